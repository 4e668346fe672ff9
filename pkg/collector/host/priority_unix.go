//go:build unix

package host

import "golang.org/x/sys/unix"

func processNice(pid int) (int, error) {
	prio, err := unix.Getpriority(unix.PRIO_PROCESS, pid)
	if err != nil {
		return 0, err
	}
	return niceFromKernel(prio), nil
}

func applyNice(pid, nice int) error {
	return unix.Setpriority(unix.PRIO_PROCESS, pid, nice)
}

func elevated() bool {
	return unix.Geteuid() == 0
}
