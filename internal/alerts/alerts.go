// Package alerts aggregates alert candidates produced by a check cycle and
// delivers at most two combined Telegram messages per cycle.
package alerts

// ExpiryKind identifies which expiry signal produced a candidate.
type ExpiryKind string

const (
	KindTLS   ExpiryKind = "TLS"
	KindWhois ExpiryKind = "WHOIS"
)

// ExpiryAlert is a cycle-scoped candidate: a certificate or registration
// below the configured alert threshold.
type ExpiryAlert struct {
	Domain   string
	Kind     ExpiryKind
	DaysLeft int
}

// FailureAlert is a cycle-scoped candidate: a domain whose consecutive
// HTTP/HTTPS failures reached its threshold.
type FailureAlert struct {
	Domain    string
	Failures  int
	Threshold int
}
