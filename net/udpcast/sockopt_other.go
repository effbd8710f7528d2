//go:build !unix

package udpcast

import "syscall"

// Broadcast is left to the platform default here.
func enableBroadcast(network, address string, c syscall.RawConn) error {
	return nil
}
