package ipam

import (
	"encoding/binary"
	"fmt"
	"net"
)

// ipToUint converts an IPv4 address to its big-endian integer form.
func ipToUint(ip net.IP) (uint32, error) {
	v4 := ip.To4()
	if v4 == nil {
		return 0, fmt.Errorf("not an IPv4 address: %s", ip)
	}
	return binary.BigEndian.Uint32(v4), nil
}

// uintToIP converts a big-endian integer back to an IPv4 address.
func uintToIP(v uint32) net.IP {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return net.IP(b)
}

// parseRange parses rangeStart..rangeEnd into integer bounds, rejecting
// malformed addresses and inverted ranges.
func parseRange(start, end string) (lo, hi uint32, err error) {
	s := net.ParseIP(start)
	if s == nil {
		return 0, 0, fmt.Errorf("invalid range start %q", start)
	}
	e := net.ParseIP(end)
	if e == nil {
		return 0, 0, fmt.Errorf("invalid range end %q", end)
	}
	if lo, err = ipToUint(s); err != nil {
		return 0, 0, err
	}
	if hi, err = ipToUint(e); err != nil {
		return 0, 0, err
	}
	if hi < lo {
		return 0, 0, fmt.Errorf("range end %s precedes start %s", end, start)
	}
	return lo, hi, nil
}

// TotalIPs counts the addresses in the inclusive range start..end. Exact
// arithmetic over the integer form: 10.0.0.10..10.0.0.100 is 91.
func TotalIPs(start, end string) (int64, error) {
	lo, hi, err := parseRange(start, end)
	if err != nil {
		return 0, err
	}
	return int64(hi) - int64(lo) + 1, nil
}

// rangesOverlap reports whether the two inclusive ranges share any address.
func rangesOverlap(aLo, aHi, bLo, bHi uint32) bool {
	return aLo <= bHi && bLo <= aHi
}

// cidrBounds returns the first and last address of a CIDR block.
func cidrBounds(cidr string) (lo, hi uint32, err error) {
	_, ipnet, err := net.ParseCIDR(cidr)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid CIDR %q: %w", cidr, err)
	}
	lo, err = ipToUint(ipnet.IP)
	if err != nil {
		return 0, 0, err
	}
	ones, bits := ipnet.Mask.Size()
	if bits != 32 {
		return 0, 0, fmt.Errorf("not an IPv4 CIDR: %s", cidr)
	}
	hi = lo | (1<<(32-ones) - 1)
	return lo, hi, nil
}
