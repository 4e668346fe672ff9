//go:build unix && !linux

package host

func niceFromKernel(prio int) int {
	return prio
}
