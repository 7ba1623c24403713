//go:build unix

package deps

import "golang.org/x/sys/unix"

func needsElevation() bool {
	return unix.Geteuid() != 0
}
