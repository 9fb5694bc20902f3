// Package privacy masks personal data before it reaches logs.
package privacy

import "net"

// AnonymizeIP masks an address to its /24 (IPv4) or /48 (IPv6) network so
// request logs never carry a full client address. It returns "unknown" for
// an empty value and "invalid" when ip does not parse.
func AnonymizeIP(ip string) string {
	if ip == "" || ip == "unknown" {
		return "unknown"
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "invalid"
	}
	if v4 := parsed.To4(); v4 != nil {
		return v4.Mask(net.CIDRMask(24, 32)).String()
	}
	return parsed.Mask(net.CIDRMask(48, 128)).String()
}
