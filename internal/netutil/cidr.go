// Package netutil expands CIDR ranges into additional seed targets.
package netutil

import (
	"fmt"
	"net"
	"strings"
)

// ExpandTargets takes a CIDR range (or single IP) and a comma-separated
// port list and returns host[:port] seed strings. The entries carry no
// scheme; the crawl engine expands each into http and https variants.
func ExpandTargets(cidr, portsStr string) ([]string, error) {
	ip, ipnet, err := net.ParseCIDR(cidr)
	if err != nil {
		// Maybe it's a single IP, not a CIDR.
		ip = net.ParseIP(cidr)
		if ip == nil {
			return nil, fmt.Errorf("invalid CIDR or IP: %q", cidr)
		}
		mask := net.CIDRMask(32, 32)
		if ip.To4() == nil {
			mask = net.CIDRMask(128, 128)
		}
		ipnet = &net.IPNet{IP: ip, Mask: mask}
	}

	ports := parsePorts(portsStr)

	var targets []string
	for ip := ip.Mask(ipnet.Mask); ipnet.Contains(ip); inc(ip) {
		// Skip network and broadcast addresses for /24 and larger.
		ones, bits := ipnet.Mask.Size()
		if bits-ones > 1 {
			if ip.Equal(ipnet.IP) {
				continue
			}
			if isBroadcast(ip, ipnet) {
				continue
			}
		}
		if len(ports) == 0 {
			targets = append(targets, ip.String())
			continue
		}
		for _, port := range ports {
			targets = append(targets, ip.String()+":"+port)
		}
	}
	return targets, nil
}

func parsePorts(portsStr string) []string {
	if portsStr == "" {
		return nil
	}
	var ports []string
	for _, p := range strings.Split(portsStr, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			ports = append(ports, p)
		}
	}
	return ports
}

func inc(ip net.IP) {
	for i := len(ip) - 1; i >= 0; i-- {
		ip[i]++
		if ip[i] != 0 {
			break
		}
	}
}

func isBroadcast(ip net.IP, ipnet *net.IPNet) bool {
	v4 := ip.To4()
	if v4 == nil {
		return false
	}
	mask := ipnet.Mask
	if len(mask) == 16 {
		mask = mask[12:]
	}
	for i := range v4 {
		if v4[i]|mask[i] != 0xff {
			return false
		}
	}
	return true
}
