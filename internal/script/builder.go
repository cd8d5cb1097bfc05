package script

import (
	"fmt"
	"math/rand"
	"net"
	"regexp"
	"strconv"

	"go.uber.org/zap"

	"github.com/traidnet/wificore/internal/common/cnst"
	"github.com/traidnet/wificore/internal/common/config"
)

// ifaceNamePattern is the safe character class an interface name must match
// before it is interpolated into a script.
var ifaceNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// HotspotBridge is the bridge all hotspot interfaces are grouped under.
const HotspotBridge = "br-hotspot"

// InterfaceConfig is the per-interface pool configuration.
type InterfaceConfig struct {
	RangeStart string
	RangeEnd   string
	RateLimit  string // "down/up"
	DNSPrimary string
}

// Builder renders device configuration scripts from service assignments.
type Builder struct {
	logger *zap.Logger
	radius config.RadiusConfig
	randN  func(int) int
}

func NewBuilder(logger *zap.Logger, radius config.RadiusConfig) *Builder {
	return &Builder{logger: logger.Named("script"), radius: radius, randN: rand.Intn}
}

// ServiceScript builds the full configuration for a set of interface
// assignments. Interfaces failing name validation are skipped and logged;
// the common section is always present even when nothing is assigned.
func (b *Builder) ServiceScript(interfaces []string, services map[string]string, configs map[string]InterfaceConfig) (*Script, error) {
	var hotspot, pppoe []string
	for _, name := range interfaces {
		if !ifaceNamePattern.MatchString(name) {
			b.logger.Warn("skipping interface with unsafe name", zap.String("interface", name))
			continue
		}
		switch services[name] {
		case cnst.ServiceHotspot:
			hotspot = append(hotspot, name)
		case cnst.ServicePPPoE:
			pppoe = append(pppoe, name)
		}
	}

	s := &Script{}
	s.Add(b.commonSection())
	if len(hotspot) > 0 {
		s.Add(b.hotspotSection(hotspot, configs))
	}
	if len(pppoe) > 0 {
		s.Add(b.pppoeSection(pppoe, configs))
	}
	return s, nil
}

// commonSection sets up the interface lists, outbound NAT and the baseline
// forward policy every deployment gets.
func (b *Builder) commonSection() Section {
	return Section{
		Title: "Base configuration",
		Lines: []Line{
			Cmd("/interface list", "add", "name", "LAN"),
			Cmd("/interface list", "add", "name", "WAN"),
			Cmd("/interface list member", "add", "interface", "ether1", "list", "WAN"),
			Cmd("/ip firewall nat", "add",
				"chain", "srcnat", "out-interface-list", "WAN", "action", "masquerade"),
			Cmd("/ip firewall filter", "add",
				"chain", "forward", "connection-state", "established,related", "action", "accept"),
			Cmd("/ip firewall filter", "add",
				"chain", "forward", "connection-state", "invalid", "action", "drop"),
			Cmd("/ip firewall filter", "add",
				"chain", "forward", "connection-state", "new", "connection-nat-state", "!dstnat",
				"in-interface-list", "LAN", "out-interface-list", "WAN", "action", "drop"),
		},
	}
}

// hotspotSection groups every hotspot interface under one bridge and stands
// up the pool, DHCP, profile and firewall pieces around it. The network is
// derived from the first interface's configured range.
func (b *Builder) hotspotSection(interfaces []string, configs map[string]InterfaceConfig) Section {
	cfg := configs[interfaces[0]]
	network, gateway, rangeStart, rangeEnd := b.deriveNetwork(cfg)
	dns := cfg.DNSPrimary
	if dns == "" {
		dns = "8.8.8.8"
	}

	lines := []Line{
		Cmd("/interface bridge", "add", "name", HotspotBridge),
	}
	for _, name := range interfaces {
		lines = append(lines, Cmd("/interface bridge port", "add",
			"bridge", HotspotBridge, "interface", name))
	}
	poolRange := rangeStart + "-" + rangeEnd
	lines = append(lines,
		Cmd("/ip pool", "add", "name", "hs-pool", "ranges", poolRange),
		Cmd("/ip address", "add",
			"address", gateway+"/24", "interface", HotspotBridge, "network", network),
		Cmd("/ip dhcp-server", "add",
			"name", "hs-dhcp", "interface", HotspotBridge, "address-pool", "hs-pool", "disabled", "no"),
		Cmd("/ip dhcp-server network", "add",
			"address", network+"/24", "gateway", gateway, "dns-server", dns),
		// reserve the gateway address so the pool can never hand it out
		Cmd("/ip dhcp-server lease", "add",
			"address", gateway, "mac-address", "00:00:00:00:00:01",
			"server", "hs-dhcp", "disabled", "yes", "comment", "gateway-reservation"),
	)

	profileArgs := []string{
		"name", "hs-profile",
		"hotspot-address", gateway,
		"login-by", "http-chap,mac-cookie",
		"use-radius", "yes",
	}
	if cfg.RateLimit != "" {
		profileArgs = append(profileArgs, "rate-limit", cfg.RateLimit)
	}
	lines = append(lines,
		Cmd("/ip hotspot profile", "add", profileArgs...),
		Cmd("/ip hotspot", "add",
			"name", "hotspot1", "interface", HotspotBridge,
			"address-pool", "hs-pool", "profile", "hs-profile", "disabled", "no"),
		Cmd("/ip hotspot user profile", "add",
			"name", "hs-default", "add-mac-cookie", "yes", "mac-cookie-timeout", "1d"),
		Cmd("/radius", "add",
			"service", "hotspot", "address", b.radius.ServerHost, "secret", b.radius.Secret),
		Cmd("/interface list member", "add", "interface", HotspotBridge, "list", "LAN"),
		// the captive portal needs exactly HTTP, HTTPS and DNS on this bridge
		Cmd("/ip firewall filter", "add",
			"chain", "input", "protocol", "tcp", "dst-port", "80,443",
			"in-interface", HotspotBridge, "action", "accept"),
		Cmd("/ip firewall filter", "add",
			"chain", "input", "protocol", "udp", "dst-port", "53",
			"in-interface", HotspotBridge, "action", "accept"),
	)
	return Section{Title: "Hotspot service", Lines: lines}
}

// pppoeSection runs a RADIUS-backed PPPoE server on each assigned interface.
func (b *Builder) pppoeSection(interfaces []string, configs map[string]InterfaceConfig) Section {
	cfg := configs[interfaces[0]]
	network, gateway, rangeStart, rangeEnd := b.deriveNetwork(cfg)
	_ = network

	lines := []Line{
		Cmd("/ip pool", "add", "name", "ppp-pool", "ranges", rangeStart+"-"+rangeEnd),
		Cmd("/ppp profile", "add",
			"name", "ppp-profile", "local-address", gateway, "remote-address", "ppp-pool"),
	}
	for _, name := range interfaces {
		lines = append(lines, Cmd("/interface pppoe-server server", "add",
			"service-name", "pppoe-"+name, "interface", name,
			"default-profile", "ppp-profile", "authentication", "chap,mschap2", "disabled", "no"))
	}
	lines = append(lines,
		Cmd("/radius", "add",
			"service", "ppp", "address", b.radius.ServerHost, "secret", b.radius.Secret),
		Cmd("/ppp aaa", "set", "use-radius", "yes"),
	)
	return Section{Title: "PPPoE service", Lines: lines}
}

// deriveNetwork computes network/gateway/range from a configured range
// start, falling back to a random 192.168.x.0/24 when nothing is
// configured.
func (b *Builder) deriveNetwork(cfg InterfaceConfig) (network, gateway, rangeStart, rangeEnd string) {
	ip := net.ParseIP(cfg.RangeStart)
	if ip == nil || ip.To4() == nil {
		octet := 100 + b.randN(100)
		base := "192.168." + strconv.Itoa(octet)
		b.logger.Warn("no usable pool range configured, falling back to random subnet",
			zap.String("network", base+".0"))
		return base + ".0", base + ".1", base + ".10", base + ".250"
	}
	v4 := ip.To4()
	prefix := fmt.Sprintf("%d.%d.%d", v4[0], v4[1], v4[2])
	network = prefix + ".0"
	gateway = prefix + ".1"
	rangeStart = cfg.RangeStart
	rangeEnd = cfg.RangeEnd
	if net.ParseIP(rangeEnd) == nil {
		rangeEnd = prefix + ".250"
	}
	return network, gateway, rangeStart, rangeEnd
}

// IfaceNameOK exposes the name check for callers that validate before
// persisting assignments.
func IfaceNameOK(name string) bool {
	return ifaceNamePattern.MatchString(name)
}
