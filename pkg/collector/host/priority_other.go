//go:build !unix && !windows

package host

import "errors"

var errNoPriority = errors.New("process priority is not supported on this platform")

func processNice(pid int) (int, error) {
	return 0, errNoPriority
}

func applyNice(pid, nice int) error {
	return errNoPriority
}

func elevated() bool {
	return false
}
