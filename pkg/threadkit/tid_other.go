//go:build !linux

package threadkit

func currentThreadID() int {
	return 0
}
