package checker

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MimoJanra/SitePulse/internal/models"
)

// The fakes are shared with the runner tests, which probe concurrently.
type fakeSiteStore struct {
	mu    sync.Mutex
	saved []models.Site
	err   error
}

func (f *fakeSiteStore) SaveCheckState(s models.Site) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, s)
	return nil
}

type fakeResultStore struct {
	mu     sync.Mutex
	added  []models.CheckResult
	latest *models.CheckResult
}

func (f *fakeResultStore) Add(r models.CheckResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, r)
	return nil
}

func (f *fakeResultStore) LatestBySite(string) (*models.CheckResult, error) {
	return f.latest, nil
}

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestProber(sites *fakeSiteStore, results *fakeResultStore) *Prober {
	return &Prober{
		Sites:   sites,
		Results: results,
		CheckHTTP: func(string) (int, error) {
			return 200, nil
		},
		CheckTLS: func(string) (*int, error) {
			days := 90
			return &days, nil
		},
		CheckWhois: func(string) (*int, error) {
			days := 200
			return &days, nil
		},
		Now: func() time.Time { return testNow },
		Log: zap.NewNop(),
	}
}

func allChecksSite() models.Site {
	return models.Site{
		ID:                  "site-1",
		Domain:              "example.com",
		CheckHTTPS:          true,
		CheckTLS:            true,
		CheckWhois:          true,
		HTTPIntervalSeconds: 300,
		TLSIntervalDays:     1,
		WhoisIntervalDays:   1,
		FailureThreshold:    3,
		Status:              models.SiteStatusActive,
	}
}

func TestProbeHealthySite(t *testing.T) {
	sites := &fakeSiteStore{}
	results := &fakeResultStore{}
	p := newTestProber(sites, results)

	site := allChecksSite()
	expiry, failures, err := p.Probe(&site, models.AlertConfig{TLSAlertDays: 14, DomainAlertDays: 30})
	require.NoError(t, err)
	assert.Empty(t, expiry)
	assert.Empty(t, failures)

	require.Len(t, results.added, 1)
	res := results.added[0]
	assert.True(t, res.Healthy)
	require.NotNil(t, res.HTTPStatus)
	assert.Equal(t, 200, *res.HTTPStatus)
	require.NotNil(t, res.TLSDaysLeft)
	assert.Equal(t, 90, *res.TLSDaysLeft)
	require.NotNil(t, res.DomainDaysLeft)
	assert.Equal(t, 200, *res.DomainDaysLeft)

	require.Len(t, sites.saved, 1)
	assert.Equal(t, 0, sites.saved[0].ConsecutiveFailures)
	require.NotNil(t, sites.saved[0].LastHTTPCheck)
	assert.Equal(t, testNow, *sites.saved[0].LastHTTPCheck)
}

func TestProbeNothingDueSkipsPersistence(t *testing.T) {
	sites := &fakeSiteStore{}
	results := &fakeResultStore{}
	p := newTestProber(sites, results)

	site := allChecksSite()
	justChecked := testNow.Add(-time.Minute)
	site.LastHTTPCheck = &justChecked
	site.LastTLSCheck = &justChecked
	site.LastWhoisCheck = &justChecked

	expiry, failures, err := p.Probe(&site, models.AlertConfig{TLSAlertDays: 14, DomainAlertDays: 30})
	require.NoError(t, err)
	assert.Empty(t, expiry)
	assert.Empty(t, failures)
	assert.Empty(t, results.added)
	assert.Empty(t, sites.saved)
}

func TestProbeTLSBelowThresholdCandidate(t *testing.T) {
	sites := &fakeSiteStore{}
	results := &fakeResultStore{}
	p := newTestProber(sites, results)
	p.CheckTLS = func(string) (*int, error) {
		days := 10
		return &days, nil
	}

	site := allChecksSite()
	expiry, _, err := p.Probe(&site, models.AlertConfig{TLSAlertDays: 14, DomainAlertDays: 30})
	require.NoError(t, err)

	require.Len(t, expiry, 1)
	assert.Equal(t, "example.com", expiry[0].Domain)
	assert.Equal(t, 10, expiry[0].DaysLeft)

	// 10 days is below the alert threshold but above the health floor.
	require.Len(t, results.added, 1)
	assert.True(t, results.added[0].Healthy)
}

func TestProbeTLSBelowHealthFloor(t *testing.T) {
	sites := &fakeSiteStore{}
	results := &fakeResultStore{}
	p := newTestProber(sites, results)
	p.CheckTLS = func(string) (*int, error) {
		days := 5
		return &days, nil
	}

	site := allChecksSite()
	expiry, _, err := p.Probe(&site, models.AlertConfig{TLSAlertDays: 14, DomainAlertDays: 30})
	require.NoError(t, err)
	require.Len(t, expiry, 1)
	require.Len(t, results.added, 1)
	assert.False(t, results.added[0].Healthy)
}

func TestProbeFailureCounter(t *testing.T) {
	t.Run("increments on error and alerts at threshold", func(t *testing.T) {
		sites := &fakeSiteStore{}
		results := &fakeResultStore{}
		p := newTestProber(sites, results)
		p.CheckHTTP = func(string) (int, error) {
			return 0, errors.New("connection refused")
		}

		site := allChecksSite()
		site.ConsecutiveFailures = 2

		_, failures, err := p.Probe(&site, models.AlertConfig{TLSAlertDays: 14, DomainAlertDays: 30})
		require.NoError(t, err)
		assert.Equal(t, 3, site.ConsecutiveFailures)
		require.Len(t, failures, 1)
		assert.Equal(t, 3, failures[0].Failures)
		assert.Equal(t, 3, failures[0].Threshold)

		require.Len(t, results.added, 1)
		assert.False(t, results.added[0].Healthy)
		assert.Contains(t, results.added[0].ErrorDetails, "HTTPS error")
	})

	t.Run("below threshold emits no candidate", func(t *testing.T) {
		sites := &fakeSiteStore{}
		results := &fakeResultStore{}
		p := newTestProber(sites, results)
		p.CheckHTTP = func(string) (int, error) {
			return 503, nil
		}

		site := allChecksSite()
		_, failures, err := p.Probe(&site, models.AlertConfig{TLSAlertDays: 14, DomainAlertDays: 30})
		require.NoError(t, err)
		assert.Equal(t, 1, site.ConsecutiveFailures)
		assert.Empty(t, failures)
	})

	t.Run("resets on success", func(t *testing.T) {
		sites := &fakeSiteStore{}
		results := &fakeResultStore{}
		p := newTestProber(sites, results)

		site := allChecksSite()
		site.ConsecutiveFailures = 2

		_, failures, err := p.Probe(&site, models.AlertConfig{TLSAlertDays: 14, DomainAlertDays: 30})
		require.NoError(t, err)
		assert.Equal(t, 0, site.ConsecutiveFailures)
		assert.Empty(t, failures)
	})

	t.Run("untouched when http not due", func(t *testing.T) {
		sites := &fakeSiteStore{}
		results := &fakeResultStore{}
		p := newTestProber(sites, results)
		p.CheckHTTP = func(string) (int, error) {
			t.Fatal("http check must not run when not due")
			return 0, nil
		}

		site := allChecksSite()
		site.ConsecutiveFailures = 2
		justChecked := testNow.Add(-time.Minute)
		site.LastHTTPCheck = &justChecked

		_, failures, err := p.Probe(&site, models.AlertConfig{TLSAlertDays: 14, DomainAlertDays: 30})
		require.NoError(t, err)
		assert.Equal(t, 2, site.ConsecutiveFailures)
		assert.Empty(t, failures)
	})
}

func TestProbeCarryForward(t *testing.T) {
	sites := &fakeSiteStore{}
	prevTLS, prevWhois := 42, 180
	results := &fakeResultStore{
		latest: &models.CheckResult{
			SiteID:         "site-1",
			TLSDaysLeft:    &prevTLS,
			DomainDaysLeft: &prevWhois,
		},
	}
	p := newTestProber(sites, results)
	p.CheckTLS = func(string) (*int, error) {
		t.Fatal("tls check must not run when not due")
		return nil, nil
	}
	p.CheckWhois = func(string) (*int, error) {
		t.Fatal("whois check must not run when not due")
		return nil, nil
	}

	site := allChecksSite()
	justChecked := testNow.Add(-time.Hour)
	site.LastTLSCheck = &justChecked
	site.LastWhoisCheck = &justChecked

	expiry, _, err := p.Probe(&site, models.AlertConfig{TLSAlertDays: 14, DomainAlertDays: 30})
	require.NoError(t, err)

	// Carried-forward values never become alert candidates.
	assert.Empty(t, expiry)

	require.Len(t, results.added, 1)
	require.NotNil(t, results.added[0].TLSDaysLeft)
	assert.Equal(t, prevTLS, *results.added[0].TLSDaysLeft)
	require.NotNil(t, results.added[0].DomainDaysLeft)
	assert.Equal(t, prevWhois, *results.added[0].DomainDaysLeft)
}

func TestProbeSignalErrorDoesNotAbortOthers(t *testing.T) {
	sites := &fakeSiteStore{}
	results := &fakeResultStore{}
	p := newTestProber(sites, results)
	p.CheckTLS = func(string) (*int, error) {
		return nil, errors.New("handshake timeout")
	}

	site := allChecksSite()
	_, _, err := p.Probe(&site, models.AlertConfig{TLSAlertDays: 14, DomainAlertDays: 30})
	require.NoError(t, err)

	require.Len(t, results.added, 1)
	res := results.added[0]
	// A TLS lookup error is recorded but does not flip health.
	assert.True(t, res.Healthy)
	assert.Contains(t, res.ErrorDetails, "TLS error")
	require.NotNil(t, res.DomainDaysLeft)
	assert.Equal(t, 200, *res.DomainDaysLeft)
}

func TestCheckNow(t *testing.T) {
	sites := &fakeSiteStore{}
	results := &fakeResultStore{}
	p := newTestProber(sites, results)

	site := allChecksSite()
	site.ConsecutiveFailures = 2
	justChecked := testNow.Add(-time.Minute)
	site.LastHTTPCheck = &justChecked
	site.LastTLSCheck = &justChecked
	site.LastWhoisCheck = &justChecked

	res, err := p.CheckNow(&site)
	require.NoError(t, err)

	// Due-ness is ignored; every enabled signal ran.
	assert.True(t, res.Healthy)
	require.NotNil(t, res.HTTPStatus)
	require.NotNil(t, res.TLSDaysLeft)
	require.NotNil(t, res.DomainDaysLeft)

	// The failure counter belongs to the scheduled loop.
	assert.Equal(t, 2, site.ConsecutiveFailures)
	require.NotNil(t, site.LastHTTPCheck)
	assert.Equal(t, testNow, *site.LastHTTPCheck)
	require.Len(t, results.added, 1)
	require.Len(t, sites.saved, 1)
}
