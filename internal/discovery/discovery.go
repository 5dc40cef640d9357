// Package discovery advertises a running loom serve endpoint on the LAN via
// mDNS/Bonjour, so a companion viewer can find it without the user typing
// an address.
package discovery

import (
	"fmt"
	"strings"

	"github.com/hashicorp/mdns"
)

const serviceType = "_loom._tcp"

// Advertise registers an mDNS service for name at port, carrying url as a
// TXT record. The caller must call Shutdown on the returned server when
// the endpoint stops.
func Advertise(name string, port int, url string) (*mdns.Server, error) {
	if port <= 0 {
		return nil, fmt.Errorf("discovery: invalid port %d", port)
	}
	instance := strings.TrimSpace(name)
	if instance == "" {
		instance = "loom"
	}
	txt := []string{fmt.Sprintf("url=%s", url)}
	service, err := mdns.NewMDNSService(instance, serviceType, "local", "", port, nil, txt)
	if err != nil {
		return nil, fmt.Errorf("discovery: build service: %w", err)
	}
	srv, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("discovery: start server: %w", err)
	}
	return srv, nil
}
