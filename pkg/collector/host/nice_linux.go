package host

// The raw getpriority syscall on linux returns 20-nice so the value is never negative.
func niceFromKernel(prio int) int {
	return 20 - prio
}
