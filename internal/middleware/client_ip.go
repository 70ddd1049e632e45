package middleware

import (
	"net"
	"net/http"
	"strings"
)

// TrustedProxyList holds the networks whose forwarding headers are believed
type TrustedProxyList struct {
	trustedIPs []*net.IPNet
}

// NewTrustedProxyList parses CIDRs; empty entries are skipped
func NewTrustedProxyList(cidrs []string) (*TrustedProxyList, error) {
	nets, err := parseCIDRs(cidrs)
	if err != nil {
		return nil, err
	}
	return &TrustedProxyList{trustedIPs: nets}, nil
}

// IsTrustedProxy reports whether remoteAddr (host or host:port) is a trusted proxy
func (t *TrustedProxyList) IsTrustedProxy(remoteAddr string) bool {
	if t == nil || len(t.trustedIPs) == 0 {
		return false
	}
	ip := net.ParseIP(hostOnly(remoteAddr))
	return ip != nil && containsIP(t.trustedIPs, ip)
}

// ClientIP returns the caller address. X-Forwarded-For and X-Real-IP are
// only honoured when the direct peer is a trusted proxy.
func (t *TrustedProxyList) ClientIP(r *http.Request) string {
	peer := hostOnly(r.RemoteAddr)
	if !t.IsTrustedProxy(peer) {
		return peer
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// rightmost address not added by one of our proxies
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop != "" && !t.IsTrustedProxy(hop) {
				return hop
			}
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return peer
}

func parseCIDRs(cidrs []string) ([]*net.IPNet, error) {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}
		if !strings.Contains(cidr, "/") {
			if ip := net.ParseIP(cidr); ip != nil && ip.To4() != nil {
				cidr += "/32"
			} else {
				cidr += "/128"
			}
		}
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, err
		}
		nets = append(nets, ipNet)
	}
	return nets, nil
}

func containsIP(nets []*net.IPNet, ip net.IP) bool {
	for _, n := range nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

func hostOnly(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		// already a raw IP
		return addr
	}
	return host
}
