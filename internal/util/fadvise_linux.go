//go:build linux

package util

import (
	"os"

	"golang.org/x/sys/unix"
)

// AdviseSequential tells the kernel f will be read front to back. Failures
// are ignored; the hint only affects read-ahead.
func AdviseSequential(f *os.File) {
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
}
