package server

import (
	"net"

	"github.com/docbridge/docbridge/internal/logging"
)

// DetectHostIP returns the address the bridge advertises to the document
// server. Selection policy: the first non-loopback IPv4 address among the
// machine's interface addresses, in the order the OS reports them. When no
// such interface exists the bridge falls back to loopback, which only works
// if the document server shares the host's network namespace.
//
// The policy is best-effort; Config.PublicHost overrides it.
func DetectHostIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		logging.Warn().Err(err).Msg("interface enumeration failed, advertising loopback")
		return "127.0.0.1"
	}

	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		ip := ipNet.IP.To4()
		if ip == nil || ip.IsLoopback() {
			continue
		}
		return ip.String()
	}

	logging.Warn().Msg("no non-loopback IPv4 interface, advertising loopback")
	return "127.0.0.1"
}
