//go:build linux

package dnsserver

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// reusePortControl sets SO_REUSEPORT on the raw socket before the runtime
// converts it into its asynchronous one, so multiple peers can share the
// same listen port and let the kernel distribute inbound datagrams across
// them. Grounded on original_source/src/dns_server.rs's
// setsockopt(socket, ReusePort, true), translated from the nix crate to
// golang.org/x/sys/unix.
func reusePortControl(_, _ string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}
