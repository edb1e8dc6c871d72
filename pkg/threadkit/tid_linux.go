//go:build linux

package threadkit

import "golang.org/x/sys/unix"

func currentThreadID() int {
	return unix.Gettid()
}
