package relay

import (
	"fmt"
	"net/netip"
)

// PeerAllowed reports whether a peer at remoteAddr may connect. Loopback,
// RFC 1918 private, and link-local peers are always admitted. Anything else
// requires cloudConsent; without it the connection must be closed before any
// payload is read.
func PeerAllowed(remoteAddr string, cloudConsent bool) (bool, error) {
	if cloudConsent {
		return true, nil
	}

	addrPort, err := netip.ParseAddrPort(remoteAddr)
	if err != nil {
		// Some transports hand us a bare address without a port.
		addr, addrErr := netip.ParseAddr(remoteAddr)
		if addrErr != nil {
			return false, fmt.Errorf("unparseable peer address %q: %w", remoteAddr, err)
		}
		return addrIsLocal(addr), nil
	}
	return addrIsLocal(addrPort.Addr()), nil
}

func addrIsLocal(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast()
}
