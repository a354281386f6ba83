//go:build unix

package host

import "golang.org/x/sys/unix"

func goString(p *byte) string {
	return unix.BytePtrToString(p)
}
