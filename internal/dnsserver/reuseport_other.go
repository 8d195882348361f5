//go:build !linux

package dnsserver

import "syscall"

// reusePortControl is a no-op on platforms where SO_REUSEPORT isn't wired
// up here; the peer still binds and serves, it just can't share its port
// with sibling peers. Mirrors the teacher's own per-platform split between
// server/arp_linux.go and server/arp_windows.go.
func reusePortControl(_, _ string, _ syscall.RawConn) error {
	return nil
}
