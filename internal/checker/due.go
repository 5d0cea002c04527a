package checker

import "time"

// IntervalUnit is the native unit of a signal's check interval.
type IntervalUnit int

const (
	// UnitSeconds is used by the HTTP/HTTPS reachability signal.
	UnitSeconds IntervalUnit = iota
	// UnitDays is used by the TLS and WHOIS expiry signals.
	UnitDays
)

// IsDue reports whether a signal must run this cycle. A nil lastChecked
// means the signal has never run and is due immediately; otherwise the
// signal is due once the elapsed time since lastChecked reaches the
// configured interval in the signal's native unit.
func IsDue(lastChecked *time.Time, interval int, unit IntervalUnit, now time.Time) bool {
	if lastChecked == nil {
		return true
	}

	elapsed := now.Sub(*lastChecked).Seconds()
	switch unit {
	case UnitDays:
		return elapsed/86400.0 >= float64(interval)
	default:
		return elapsed >= float64(interval)
	}
}
