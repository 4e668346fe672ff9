//go:build !linux

package main

// disableInputEcho is a no-op where termios ioctls are not wired up.
func disableInputEcho(fd int) (func(), error) {
	return nil, nil
}
