//go:build windows

package host

import "golang.org/x/sys/windows"

// Windows has priority classes rather than niceness; each class maps to a
// representative niceness band.
var classNice = []struct {
	class uint32
	nice  int
}{
	{windows.REALTIME_PRIORITY_CLASS, -20},
	{windows.HIGH_PRIORITY_CLASS, -10},
	{windows.ABOVE_NORMAL_PRIORITY_CLASS, -5},
	{windows.NORMAL_PRIORITY_CLASS, 0},
	{windows.BELOW_NORMAL_PRIORITY_CLASS, 10},
	{windows.IDLE_PRIORITY_CLASS, 19},
}

func niceForClass(class uint32) int {
	for _, cn := range classNice {
		if cn.class == class {
			return cn.nice
		}
	}
	return 0
}

// classForNice picks the least favorable class whose band starts at or below nice.
func classForNice(nice int) uint32 {
	class := uint32(windows.REALTIME_PRIORITY_CLASS)
	for _, cn := range classNice {
		if nice >= cn.nice {
			class = cn.class
		}
	}
	return class
}

func processNice(pid int) (int, error) {
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return 0, err
	}
	defer windows.CloseHandle(h)

	class, err := windows.GetPriorityClass(h)
	if err != nil {
		return 0, err
	}
	return niceForClass(class), nil
}

func applyNice(pid, nice int) error {
	h, err := windows.OpenProcess(windows.PROCESS_SET_INFORMATION, false, uint32(pid))
	if err != nil {
		return err
	}
	defer windows.CloseHandle(h)
	return windows.SetPriorityClass(h, classForNice(nice))
}

func elevated() bool {
	return windows.GetCurrentProcessToken().IsElevated()
}
