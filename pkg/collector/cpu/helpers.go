package cpu

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// procReadFile allows tests to stub reading /proc/PID/comm.
var procReadFile = os.ReadFile

// cStr converts a NUL-padded kernel buffer into a Go string.
func cStr(b []byte) string {
	if n := bytes.IndexByte(b, 0); n >= 0 {
		b = b[:n]
	}
	return string(b)
}

// commForPID resolves a task name from procfs when the kernel buffer was
// empty, memoizing both hits and misses for the current window.
func commForPID(pid uint32, cache map[uint32]string) string {
	if name, ok := cache[pid]; ok {
		return name
	}
	name := pidFallback(pid)
	if data, err := procReadFile(filepath.Join("/proc", strconv.FormatUint(uint64(pid), 10), "comm")); err == nil {
		if comm := strings.TrimSpace(string(data)); comm != "" {
			name = comm
		}
	}
	cache[pid] = name
	return name
}

func pidFallback(pid uint32) string {
	return "pid-" + strconv.FormatUint(uint64(pid), 10)
}

// processName prefers the thread-group leader's name from procfs, since the
// kernel buffer holds the name of whichever thread was switched out.
func processName(pid uint32, kernel string, cache map[uint32]string) string {
	name := commForPID(pid, cache)
	if name == pidFallback(pid) && kernel != "" {
		return kernel
	}
	return name
}
