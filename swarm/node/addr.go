package node

import (
	"errors"
	"net"
	"net/netip"
)

// AdvertisedAddr picks the address peers should reach us on: the configured
// one, else the bound IP if it is specific, else the first non-loopback IPv4
// interface address. The port always comes from bound unless configured.
func AdvertisedAddr(configured string, bound netip.AddrPort) (netip.AddrPort, error) {
	if configured != "" {
		return netip.ParseAddrPort(configured)
	}

	if ip := bound.Addr().Unmap(); ip.IsValid() && !ip.IsUnspecified() && !ip.IsLoopback() {
		return netip.AddrPortFrom(ip, bound.Port()), nil
	}

	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return netip.AddrPort{}, err
	}

	ip, ok := firstUsableIPv4(addrs)
	if !ok {
		return netip.AddrPort{}, errors.New("no non-loopback IPv4 address found")
	}
	return netip.AddrPortFrom(ip, bound.Port()), nil
}

func firstUsableIPv4(addrs []net.Addr) (netip.Addr, bool) {
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		ip, ok := netip.AddrFromSlice(ipnet.IP)
		if !ok {
			continue
		}
		ip = ip.Unmap()
		if ip.Is4() && !ip.IsLoopback() && !ip.IsLinkLocalUnicast() {
			return ip, true
		}
	}
	return netip.Addr{}, false
}
