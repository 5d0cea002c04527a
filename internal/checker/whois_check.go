package checker

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openrdap/rdap"
)

// Registrars disagree on how the expiry line is labelled; the first
// non-empty field wins, in this order.
var expiryFieldPriority = []string{
	"registrar registration expiration date",
	"registry expiry date",
	"expiration date",
	"expiry date",
	"paid-till",
}

var expiryDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02-Jan-2006",
	"2006.01.02",
}

// NewWhoisCheck returns a DaysLeftFunc that resolves a domain's
// registration expiry via WHOIS, with an RDAP fallback for registries whose
// WHOIS output carries no expiry field. nil days with nil error means the
// registration has no discoverable expiry.
func NewWhoisCheck(timeout time.Duration) DaysLeftFunc {
	whois := &WhoisClient{Timeout: timeout}
	rdapClient := &rdap.Client{HTTP: &http.Client{Timeout: timeout}}

	return func(domain string) (*int, error) {
		host := CleanHostname(domain)

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		body, err := whois.Lookup(ctx, host)
		if err != nil {
			return nil, fmt.Errorf("whois lookup %s: %w", host, err)
		}

		expiry, found := ParseWhoisExpiry(body)
		if found {
			days := DaysUntil(expiry, time.Now())
			return &days, nil
		}

		// Some registries publish expiry only over RDAP.
		if expiry, ok := rdapExpiry(rdapClient, host); ok {
			days := DaysUntil(expiry, time.Now())
			return &days, nil
		}

		return nil, nil
	}
}

// ParseWhoisExpiry scans a raw WHOIS response for an expiration date,
// honoring the registrar field priority order.
func ParseWhoisExpiry(body string) (time.Time, bool) {
	fields := make(map[string]string)
	for _, line := range strings.Split(body, "\n") {
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(parts[0]))
		value := strings.TrimSpace(parts[1])
		if value == "" {
			continue
		}
		if _, exists := fields[key]; !exists {
			fields[key] = value
		}
	}

	for _, field := range expiryFieldPriority {
		raw, ok := fields[field]
		if !ok {
			continue
		}
		if t, ok := parseExpiryDate(raw); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseExpiryDate(raw string) (time.Time, bool) {
	// Trailing annotations like "2026-03-01 (registrar)" appear in some
	// registries; keep only the first token when full parsing fails.
	candidates := []string{raw}
	if i := strings.IndexByte(raw, ' '); i > 0 {
		candidates = append(candidates, raw[:i])
	}

	for _, candidate := range candidates {
		for _, layout := range expiryDateLayouts {
			if t, err := time.Parse(layout, candidate); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func rdapExpiry(client *rdap.Client, domain string) (time.Time, bool) {
	d, err := client.QueryDomain(domain)
	if err != nil || d == nil {
		return time.Time{}, false
	}
	for _, event := range d.Events {
		if !strings.EqualFold(event.Action, "expiration") {
			continue
		}
		for _, layout := range expiryDateLayouts {
			if t, err := time.Parse(layout, event.Date); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
