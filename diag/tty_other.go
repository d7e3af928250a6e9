//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd && !dragonfly

package diag

func isTerminal(fd uintptr) bool {
	return false
}
