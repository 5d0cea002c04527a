package checker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
)

const (
	whoisIanaServer = "whois.iana.org"
	whoisPort       = "43"
	whoisMaxBytes   = 128 * 1024
)

// WhoisClient performs raw WHOIS lookups over TCP port 43. The registrar
// server for a TLD is resolved through IANA unless overridden in Servers.
type WhoisClient struct {
	Servers map[string]string
	Timeout time.Duration
}

// Lookup queries the authoritative WHOIS server for the given domain and
// returns the raw response body.
func (c *WhoisClient) Lookup(ctx context.Context, domain string) (string, error) {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return "", errors.New("whois domain is required")
	}

	tld := domain[strings.LastIndexByte(domain, '.')+1:]
	server, err := c.resolveServer(ctx, tld)
	if err != nil {
		return "", err
	}

	return c.query(ctx, server, domain)
}

func (c *WhoisClient) resolveServer(ctx context.Context, tld string) (string, error) {
	tld = strings.ToLower(strings.TrimSpace(tld))
	if tld == "" {
		return "", errors.New("whois tld is required")
	}
	if server := strings.TrimSpace(c.Servers[tld]); server != "" {
		return server, nil
	}

	response, err := c.query(ctx, whoisIanaServer, tld)
	if err != nil {
		return "", fmt.Errorf("whois iana query failed: %w", err)
	}

	for _, line := range strings.Split(response, "\n") {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		if strings.HasPrefix(lower, "refer:") || strings.HasPrefix(lower, "whois:") {
			parts := strings.SplitN(trimmed, ":", 2)
			if len(parts) == 2 {
				return strings.TrimSpace(parts[1]), nil
			}
		}
	}

	return "", fmt.Errorf("no whois server for tld %s", tld)
}

func (c *WhoisClient) query(ctx context.Context, server, query string) (string, error) {
	dialer := &net.Dialer{}
	if c.Timeout > 0 {
		dialer.Timeout = c.Timeout
	}

	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(server, whoisPort))
	if err != nil {
		return "", fmt.Errorf("whois dial failed: %w", err)
	}
	defer conn.Close()

	if c.Timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(c.Timeout))
	}

	if _, err := fmt.Fprintf(conn, "%s\r\n", query); err != nil {
		return "", fmt.Errorf("whois query failed: %w", err)
	}

	limited := &io.LimitedReader{R: bufio.NewReader(conn), N: whoisMaxBytes}
	body, err := io.ReadAll(limited)
	if err != nil {
		return "", fmt.Errorf("whois read failed: %w", err)
	}

	return string(body), nil
}
