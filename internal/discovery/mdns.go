// Package discovery advertises the server on the local network.
package discovery

import (
	"fmt"
	"net"
	"os"

	"github.com/hashicorp/mdns"
	"github.com/rs/zerolog/log"
)

const DefaultService = "_canvas._tcp"

// Advertise announces service on port until the returned server is shut down.
func Advertise(service string, port int) (*mdns.Server, error) {
	if service == "" {
		service = DefaultService
	}
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("could not get hostname: %w", err)
	}

	zone, err := newZone(host, service, port, nil)
	if err != nil {
		return nil, err
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: zone})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}
	log.Info().Str("module", "discovery").Str("service", service).Str("host", host).Int("port", port).Msg("mDNS advertising")
	return server, nil
}

// newZone builds the SRV, TXT and address records. nil ips resolves the host.
func newZone(host, service string, port int, ips []net.IP) (*mdns.MDNSService, error) {
	zone, err := mdns.NewMDNSService(host, service, "", "", port, ips, []string{"Canvas"})
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}
	return zone, nil
}
