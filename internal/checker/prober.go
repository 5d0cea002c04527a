package checker

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/MimoJanra/SitePulse/internal/alerts"
	"github.com/MimoJanra/SitePulse/internal/models"
)

// Outcome-level health thresholds. These are fixed and deliberately
// independent of the configurable alert thresholds.
const (
	healthyTLSMinDays   = 7
	healthyWhoisMinDays = 30
)

// SiteStore is the registry commit point for mutable probe state.
type SiteStore interface {
	SaveCheckState(models.Site) error
}

// ResultStore persists outcomes and serves the latest one for carry-forward.
type ResultStore interface {
	Add(models.CheckResult) error
	LatestBySite(siteID string) (*models.CheckResult, error)
}

// Prober runs the due signals for one site, maintains its failure counter
// and produces alert candidates. Check functions and the clock are injected
// so the decision logic tests without the network.
type Prober struct {
	Sites      SiteStore
	Results    ResultStore
	CheckHTTP  HTTPCheckFunc
	CheckTLS   DaysLeftFunc
	CheckWhois DaysLeftFunc
	Now        func() time.Time
	Log        *zap.Logger
}

// Probe evaluates due-ness per signal, runs the due checks, applies
// carry-forward for skipped signals and persists the outcome plus the
// site's probe state. A signal failure never aborts the other signals; only
// persistence errors propagate. Nothing is persisted on a cycle where no
// signal was due.
func (p *Prober) Probe(site *models.Site, alertCfg models.AlertConfig) ([]alerts.ExpiryAlert, []alerts.FailureAlert, error) {
	now := p.Now()
	result := models.CheckResult{
		SiteID:    site.ID,
		Healthy:   true,
		CheckedAt: now,
	}

	var (
		expiry   []alerts.ExpiryAlert
		failures []alerts.FailureAlert
	)

	httpDue := (site.CheckHTTP || site.CheckHTTPS) && IsDue(site.LastHTTPCheck, site.HTTPIntervalSeconds, UnitSeconds, now)
	if httpDue {
		httpFailed := false
		if site.CheckHTTP {
			httpFailed = p.runHTTP(site.Domain, "http", &result) || httpFailed
		}
		if site.CheckHTTPS {
			httpFailed = p.runHTTP(site.Domain, "https", &result) || httpFailed
		}
		site.LastHTTPCheck = timePtr(now)

		if httpFailed {
			site.ConsecutiveFailures++
			if site.ConsecutiveFailures >= site.FailureThreshold {
				failures = append(failures, alerts.FailureAlert{
					Domain:    site.Domain,
					Failures:  site.ConsecutiveFailures,
					Threshold: site.FailureThreshold,
				})
			}
		} else {
			site.ConsecutiveFailures = 0
		}
	}

	tlsDue := (site.CheckTLS || site.CheckHTTPS) && IsDue(site.LastTLSCheck, site.TLSIntervalDays, UnitDays, now)
	if tlsDue {
		days, err := p.CheckTLS(site.Domain)
		if err != nil {
			appendError(&result, "TLS error: "+err.Error())
		} else if days != nil {
			result.TLSDaysLeft = days
			if *days < alertCfg.TLSAlertDays {
				expiry = append(expiry, alerts.ExpiryAlert{Domain: site.Domain, Kind: alerts.KindTLS, DaysLeft: *days})
			}
			if *days < healthyTLSMinDays {
				result.Healthy = false
			}
		}
		site.LastTLSCheck = timePtr(now)
	}

	whoisDue := site.CheckWhois && IsDue(site.LastWhoisCheck, site.WhoisIntervalDays, UnitDays, now)
	if whoisDue {
		days, err := p.CheckWhois(site.Domain)
		if err != nil {
			appendError(&result, "WHOIS error: "+err.Error())
		} else if days != nil {
			result.DomainDaysLeft = days
			if *days < alertCfg.DomainAlertDays {
				expiry = append(expiry, alerts.ExpiryAlert{Domain: site.Domain, Kind: alerts.KindWhois, DaysLeft: *days})
			}
			if *days < healthyWhoisMinDays {
				result.Healthy = false
			}
		}
		site.LastWhoisCheck = timePtr(now)
	}

	if !httpDue && !tlsDue && !whoisDue {
		return nil, nil, nil
	}

	if err := p.carryForward(site.ID, tlsDue, whoisDue, &result); err != nil {
		return nil, nil, err
	}
	if err := p.Results.Add(result); err != nil {
		return nil, nil, fmt.Errorf("persist outcome for %s: %w", site.Domain, err)
	}
	if err := p.Sites.SaveCheckState(*site); err != nil {
		return nil, nil, err
	}

	p.Log.Debug("site checked",
		zap.String("domain", site.Domain),
		zap.Bool("healthy", result.Healthy),
		zap.Bool("http_due", httpDue),
		zap.Bool("tls_due", tlsDue),
		zap.Bool("whois_due", whoisDue))

	return expiry, failures, nil
}

// CheckNow runs every enabled signal immediately, ignoring due-ness. Used
// when a site is created or a manual check is requested. It records the
// outcome and timestamps but emits no alert candidates and leaves the
// failure counter alone.
func (p *Prober) CheckNow(site *models.Site) (models.CheckResult, error) {
	now := p.Now()
	result := models.CheckResult{
		SiteID:    site.ID,
		Healthy:   true,
		CheckedAt: now,
	}

	if site.CheckHTTP {
		p.runHTTP(site.Domain, "http", &result)
	}
	if site.CheckHTTPS {
		p.runHTTP(site.Domain, "https", &result)
	}
	if site.CheckHTTP || site.CheckHTTPS {
		site.LastHTTPCheck = timePtr(now)
	}

	if site.CheckTLS || site.CheckHTTPS {
		days, err := p.CheckTLS(site.Domain)
		if err != nil {
			appendError(&result, "TLS error: "+err.Error())
		} else if days != nil {
			result.TLSDaysLeft = days
			if *days < healthyTLSMinDays {
				result.Healthy = false
			}
		}
		site.LastTLSCheck = timePtr(now)
	}

	if site.CheckWhois {
		days, err := p.CheckWhois(site.Domain)
		if err != nil {
			appendError(&result, "WHOIS error: "+err.Error())
		} else if days != nil {
			result.DomainDaysLeft = days
			if *days < healthyWhoisMinDays {
				result.Healthy = false
			}
		}
		site.LastWhoisCheck = timePtr(now)
	}

	if err := p.Results.Add(result); err != nil {
		return models.CheckResult{}, fmt.Errorf("persist outcome for %s: %w", site.Domain, err)
	}
	if err := p.Sites.SaveCheckState(*site); err != nil {
		return models.CheckResult{}, err
	}

	p.Log.Info("immediate check completed",
		zap.String("domain", site.Domain),
		zap.Bool("healthy", result.Healthy))
	return result, nil
}

// runHTTP performs one reachability request and folds the result into the
// outcome. Reports whether the sub-check failed in the consecutive-failure
// sense (network error or status >= 400).
func (p *Prober) runHTTP(domain, scheme string, result *models.CheckResult) bool {
	status, err := p.CheckHTTP(scheme + "://" + domain)
	if err != nil {
		result.Healthy = false
		appendError(result, fmt.Sprintf("%s error: %s", schemeLabel(scheme), err.Error()))
		return true
	}

	// The first sub-check to respond owns the recorded status code.
	if result.HTTPStatus == nil {
		result.HTTPStatus = &status
	}
	if status >= 400 {
		result.Healthy = false
		return true
	}
	return false
}

// carryForward copies the latest known TLS/WHOIS values into the new
// outcome for signals that were not due, so historical queries always see
// the most recent known value.
func (p *Prober) carryForward(siteID string, tlsDue, whoisDue bool, result *models.CheckResult) error {
	if tlsDue && whoisDue {
		return nil
	}

	prev, err := p.Results.LatestBySite(siteID)
	if err != nil {
		return fmt.Errorf("load previous outcome: %w", err)
	}
	if prev == nil {
		return nil
	}
	if !tlsDue && prev.TLSDaysLeft != nil {
		result.TLSDaysLeft = prev.TLSDaysLeft
	}
	if !whoisDue && prev.DomainDaysLeft != nil {
		result.DomainDaysLeft = prev.DomainDaysLeft
	}
	return nil
}

func appendError(result *models.CheckResult, msg string) {
	result.ErrorDetails += msg + "; "
}

func schemeLabel(scheme string) string {
	if scheme == "https" {
		return "HTTPS"
	}
	return "HTTP"
}

func timePtr(t time.Time) *time.Time { return &t }
