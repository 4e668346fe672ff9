// Package memory reads per-process resident memory from procfs.
package memory

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// procReadFile allows tests to stub reading /proc/PID/statm.
var procReadFile = os.ReadFile

var pageSize = uint64(os.Getpagesize())

// rssKB returns the resident set size of a single PID in KB.
func rssKB(pid int) (uint64, error) {
	if pid <= 0 {
		return 0, fmt.Errorf("invalid pid %d", pid)
	}
	data, err := procReadFile(filepath.Join("/proc", strconv.Itoa(pid), "statm"))
	if err != nil {
		return 0, err
	}
	fields := strings.Fields(string(data))
	if len(fields) < 2 {
		return 0, fmt.Errorf("unexpected statm format for pid %d", pid)
	}
	rssPages, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing statm rss for pid %d: %w", pid, err)
	}
	return rssPages * pageSize / 1024, nil
}

// RSSKBForPIDs returns a PID->RSS(KB) map for the provided set. PIDs that
// cannot be read are omitted.
func RSSKBForPIDs(pids []int) map[int]uint64 {
	result := make(map[int]uint64, len(pids))
	for _, pid := range pids {
		if _, ok := result[pid]; ok {
			continue
		}
		if rss, err := rssKB(pid); err == nil {
			result[pid] = rss
		}
	}
	return result
}
