package alerts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MimoJanra/SitePulse/internal/models"
)

type fakeNotifier struct {
	sent    []string
	failOn  int
	calls   int
	lastErr error
}

func (f *fakeNotifier) Send(_ context.Context, _, _, text string) error {
	f.calls++
	if f.failOn != 0 && f.calls == f.failOn {
		f.lastErr = errors.New("telegram unreachable")
		return f.lastErr
	}
	f.sent = append(f.sent, text)
	return nil
}

func enabledConfig() models.AlertConfig {
	return models.AlertConfig{
		TelegramBotToken: "token",
		TelegramChatID:   "chat",
		TLSAlertDays:     14,
		DomainAlertDays:  30,
		Enabled:          true,
	}
}

func newAggregator(n Notifier) *Aggregator {
	return &Aggregator{
		Notifier: n,
		Log:      zap.NewNop(),
		Now:      func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func TestDispatchDisabledSuppresses(t *testing.T) {
	notifier := &fakeNotifier{}
	a := newAggregator(notifier)

	cfg := enabledConfig()
	cfg.Enabled = false

	a.Dispatch(context.Background(), cfg,
		[]ExpiryAlert{{Domain: "example.com", Kind: KindTLS, DaysLeft: 2}},
		[]FailureAlert{{Domain: "example.com", Failures: 5, Threshold: 3}})

	assert.Zero(t, notifier.calls)
}

func TestDispatchUnconfiguredSuppresses(t *testing.T) {
	notifier := &fakeNotifier{}
	a := newAggregator(notifier)

	cfg := enabledConfig()
	cfg.TelegramChatID = ""

	a.Dispatch(context.Background(), cfg,
		[]ExpiryAlert{{Domain: "example.com", Kind: KindTLS, DaysLeft: 2}}, nil)

	assert.Zero(t, notifier.calls)
}

func TestDispatchNothingToReport(t *testing.T) {
	notifier := &fakeNotifier{}
	a := newAggregator(notifier)

	a.Dispatch(context.Background(), enabledConfig(), nil, nil)
	assert.Zero(t, notifier.calls)
}

func TestDispatchCombinesIntoTwoMessages(t *testing.T) {
	notifier := &fakeNotifier{}
	a := newAggregator(notifier)

	expiry := []ExpiryAlert{
		{Domain: "a.example.com", Kind: KindTLS, DaysLeft: 2},
		{Domain: "b.example.com", Kind: KindTLS, DaysLeft: 6},
		{Domain: "c.example.com", Kind: KindWhois, DaysLeft: 20},
	}
	failures := []FailureAlert{
		{Domain: "d.example.com", Failures: 3, Threshold: 3},
		{Domain: "e.example.com", Failures: 7, Threshold: 3},
	}

	a.Dispatch(context.Background(), enabledConfig(), expiry, failures)

	require.Len(t, notifier.sent, 2)

	expiryMsg := notifier.sent[0]
	assert.Contains(t, expiryMsg, "TLS certificates expiring")
	assert.Contains(t, expiryMsg, "Domain registrations expiring")
	assert.Contains(t, expiryMsg, "a.example.com")
	assert.Contains(t, expiryMsg, "c.example.com")
	assert.Contains(t, expiryMsg, "3 item(s) need attention")
	// Severity markers per band: 2 days is critical, 6 is warning.
	assert.Contains(t, expiryMsg, "🔴 <code>a.example.com</code>")
	assert.Contains(t, expiryMsg, "🟠 <code>b.example.com</code>")
	assert.Contains(t, expiryMsg, "🟡 <code>c.example.com</code>")

	failureMsg := notifier.sent[1]
	assert.Contains(t, failureMsg, "Consecutive Failure Alert")
	assert.Contains(t, failureMsg, "2 domain(s) failing")
	// At twice the threshold the marker escalates.
	assert.Contains(t, failureMsg, "🟠 <code>d.example.com</code>")
	assert.Contains(t, failureMsg, "🔴 <code>e.example.com</code>")
}

func TestDispatchExpiryOnly(t *testing.T) {
	notifier := &fakeNotifier{}
	a := newAggregator(notifier)

	a.Dispatch(context.Background(), enabledConfig(),
		[]ExpiryAlert{{Domain: "a.example.com", Kind: KindWhois, DaysLeft: 10}}, nil)

	require.Len(t, notifier.sent, 1)
	assert.Contains(t, notifier.sent[0], "Domain registrations expiring")
	assert.NotContains(t, notifier.sent[0], "TLS certificates expiring")
}

func TestDispatchFailedSendDoesNotBlockSecondMessage(t *testing.T) {
	notifier := &fakeNotifier{failOn: 1}
	a := newAggregator(notifier)

	a.Dispatch(context.Background(), enabledConfig(),
		[]ExpiryAlert{{Domain: "a.example.com", Kind: KindTLS, DaysLeft: 2}},
		[]FailureAlert{{Domain: "b.example.com", Failures: 4, Threshold: 3}})

	assert.Equal(t, 2, notifier.calls)
	require.Len(t, notifier.sent, 1)
	assert.Contains(t, notifier.sent[0], "Consecutive Failure Alert")
}

func TestSeverityMarkers(t *testing.T) {
	assert.Equal(t, "🔴", tlsSeverityMarker(3))
	assert.Equal(t, "🟠", tlsSeverityMarker(7))
	assert.Equal(t, "🟡", tlsSeverityMarker(8))

	assert.Equal(t, "🔴", whoisSeverityMarker(7))
	assert.Equal(t, "🟠", whoisSeverityMarker(14))
	assert.Equal(t, "🟡", whoisSeverityMarker(15))

	assert.Equal(t, "🟠", failureSeverityMarker(3, 3))
	assert.Equal(t, "🔴", failureSeverityMarker(6, 3))
}
