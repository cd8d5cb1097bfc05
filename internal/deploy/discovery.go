package deploy

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/traidnet/wificore/internal/common/config"
	"github.com/traidnet/wificore/internal/common/errorx"
)

// maxProbeHosts bounds a subnet sweep regardless of the configured CIDR.
const maxProbeHosts = 254

// Discoverer locates a device that moved off its recorded address. DNS is
// tried first; a bounded TCP probe of the discovery subnet is the fallback.
type Discoverer struct {
	logger     *zap.Logger
	cfg        config.RouterConfig
	lookupHost func(host string) ([]string, error)
	probe      func(addr string, timeout time.Duration) bool
}

func NewDiscoverer(logger *zap.Logger, cfg config.RouterConfig) *Discoverer {
	return &Discoverer{
		logger:     logger.Named("discovery"),
		cfg:        cfg,
		lookupHost: net.LookupHost,
		probe:      tcpProbe,
	}
}

func tcpProbe(addr string, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// Discover returns a reachable address for the device or the unreachable
// error when every avenue is exhausted.
func (d *Discoverer) Discover(ctx context.Context, dnsName string) (string, error) {
	if dnsName != "" {
		if addrs, err := d.lookupHost(dnsName); err == nil && len(addrs) > 0 {
			d.logger.Info("device found via DNS",
				zap.String("name", dnsName),
				zap.String("address", addrs[0]))
			return addrs[0], nil
		}
	}

	if d.cfg.DiscoverySubnet == "" {
		return "", errorx.New(errorx.KindDeviceUnreachable, "device not found and no discovery subnet configured")
	}
	_, ipnet, err := net.ParseCIDR(d.cfg.DiscoverySubnet)
	if err != nil {
		return "", fmt.Errorf("invalid discovery subnet %q: %w", d.cfg.DiscoverySubnet, err)
	}

	port := strconv.Itoa(d.cfg.APIPort)
	probed := 0
	for ip := ipnet.IP.Mask(ipnet.Mask); ipnet.Contains(ip) && probed < maxProbeHosts; incIP(ip) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		candidate := ip.String()
		probed++
		if d.probe(net.JoinHostPort(candidate, port), d.cfg.ProbeTimeout) {
			d.logger.Info("device found via subnet probe", zap.String("address", candidate))
			return candidate, nil
		}
	}
	return "", errorx.New(errorx.KindDeviceUnreachable,
		fmt.Sprintf("no device answered on subnet %s", d.cfg.DiscoverySubnet))
}

func incIP(ip net.IP) {
	for i := len(ip) - 1; i >= 0; i-- {
		ip[i]++
		if ip[i] != 0 {
			break
		}
	}
}
