package provider

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/kohlkopf/kohlkopf/internal/version"
)

// NewHTTPClient returns a client with the given overall timeout. With
// forceIPv4 set, connections are dialed over IPv4 only; some networks have
// broken IPv6 routes to musicbrainz.org.
func NewHTTPClient(timeout time.Duration, forceIPv4 bool) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if forceIPv4 {
		dialer := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			if network == "tcp" || network == "tcp6" {
				network = "tcp4"
			}
			return dialer.DialContext(ctx, network, addr)
		}
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

// UserAgent builds the identifying User-Agent the providers ask for.
func UserAgent(contact string) string {
	if contact == "" {
		return fmt.Sprintf("Kohlkopf/%s (+https://github.com/kohlkopf/kohlkopf)", version.Version)
	}
	return fmt.Sprintf("Kohlkopf/%s (+https://github.com/kohlkopf/kohlkopf; contact: %s)", version.Version, contact)
}
