package checker

import (
	"crypto/tls"
	"fmt"
	"math"
	"net"
	"strings"
	"time"
)

// DaysLeftFunc resolves the whole days remaining until an expiry for a
// domain. A nil result with a nil error means no expiry could be
// determined, which is not a failure.
type DaysLeftFunc func(domain string) (*int, error)

// NewTLSCheck returns a DaysLeftFunc that connects to port 443 of the
// domain, reads the peer certificate's NotAfter date and computes the whole
// days remaining. The hostname doubles as the SNI server name.
func NewTLSCheck(timeout time.Duration) DaysLeftFunc {
	return func(domain string) (*int, error) {
		host := CleanHostname(domain)

		dialer := &net.Dialer{Timeout: timeout}
		conn, err := tls.DialWithDialer(dialer, "tcp", net.JoinHostPort(host, "443"), &tls.Config{
			// Expired or otherwise invalid certificates must still report
			// their expiry date.
			InsecureSkipVerify: true,
			ServerName:         host,
		})
		if err != nil {
			return nil, fmt.Errorf("tls connect %s: %w", host, err)
		}
		defer conn.Close()

		certs := conn.ConnectionState().PeerCertificates
		if len(certs) == 0 {
			return nil, nil
		}

		days := DaysUntil(certs[0].NotAfter, time.Now())
		return &days, nil
	}
}

// CleanHostname strips a leading "www." and any path suffix from a domain
// entered by a user.
func CleanHostname(domain string) string {
	host := strings.TrimPrefix(domain, "www.")
	if i := strings.IndexByte(host, '/'); i >= 0 {
		host = host[:i]
	}
	return host
}

// DaysUntil returns the whole days between now and t, floored so an expiry
// 36 hours away reads as 1 day.
func DaysUntil(t, now time.Time) int {
	return int(math.Floor(t.Sub(now).Hours() / 24))
}
