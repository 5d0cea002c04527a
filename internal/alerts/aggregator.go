package alerts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/MimoJanra/SitePulse/internal/models"
)

// Notifier delivers one rendered message to a destination chat.
type Notifier interface {
	Send(ctx context.Context, token, chatID, text string) error
}

// Aggregator turns the candidates of a whole cycle into at most one
// combined expiry message and one combined failure message. Delivery
// problems are logged and swallowed; alerting never fails a cycle.
type Aggregator struct {
	Notifier Notifier
	Log      *zap.Logger
	Now      func() time.Time
}

// Dispatch sends the combined messages for one cycle. It is a no-op when
// alerting is disabled, the destination is not configured, or there is
// nothing to report.
func (a *Aggregator) Dispatch(ctx context.Context, cfg models.AlertConfig, expiry []ExpiryAlert, failures []FailureAlert) {
	if !cfg.Enabled || cfg.TelegramBotToken == "" || cfg.TelegramChatID == "" {
		if len(expiry) > 0 || len(failures) > 0 {
			a.Log.Debug("alerting disabled or unconfigured, suppressing alerts",
				zap.Int("expiry_candidates", len(expiry)),
				zap.Int("failure_candidates", len(failures)))
		}
		return
	}
	if len(expiry) == 0 && len(failures) == 0 {
		return
	}

	if len(expiry) > 0 {
		msg := a.renderExpiryMessage(expiry)
		if err := a.Notifier.Send(ctx, cfg.TelegramBotToken, cfg.TelegramChatID, msg); err != nil {
			a.Log.Error("expiry alert delivery failed", zap.Error(err), zap.Int("items", len(expiry)))
		} else {
			a.Log.Info("expiry alert sent", zap.Int("items", len(expiry)))
		}
	}

	if len(failures) > 0 {
		msg := a.renderFailureMessage(failures)
		if err := a.Notifier.Send(ctx, cfg.TelegramBotToken, cfg.TelegramChatID, msg); err != nil {
			a.Log.Error("failure alert delivery failed", zap.Error(err), zap.Int("items", len(failures)))
		} else {
			a.Log.Info("failure alert sent", zap.Int("items", len(failures)))
		}
	}
}

func (a *Aggregator) renderExpiryMessage(items []ExpiryAlert) string {
	var tlsItems, whoisItems []ExpiryAlert
	for _, item := range items {
		if item.Kind == KindTLS {
			tlsItems = append(tlsItems, item)
		} else {
			whoisItems = append(whoisItems, item)
		}
	}

	var b strings.Builder
	b.WriteString("🚨 <b>Site Monitoring Alert</b> 🚨\n\n")

	if len(tlsItems) > 0 {
		b.WriteString("🔐 <b>TLS certificates expiring</b>\n")
		for _, item := range tlsItems {
			fmt.Fprintf(&b, "  %s <code>%s</code> — <b>%d</b> days left\n",
				tlsSeverityMarker(item.DaysLeft), item.Domain, item.DaysLeft)
		}
		b.WriteString("\n")
	}

	if len(whoisItems) > 0 {
		b.WriteString("🌐 <b>Domain registrations expiring</b>\n")
		for _, item := range whoisItems {
			fmt.Fprintf(&b, "  %s <code>%s</code> — <b>%d</b> days left\n",
				whoisSeverityMarker(item.DaysLeft), item.Domain, item.DaysLeft)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "⏰ %s\n", a.now().Format(time.RFC1123))
	fmt.Fprintf(&b, "📋 %d item(s) need attention", len(items))
	return b.String()
}

func (a *Aggregator) renderFailureMessage(items []FailureAlert) string {
	var b strings.Builder
	b.WriteString("🔥 <b>Consecutive Failure Alert</b> 🔥\n\n")
	for _, item := range items {
		fmt.Fprintf(&b, "  %s <code>%s</code> — <b>%d</b> consecutive failures (threshold %d)\n",
			failureSeverityMarker(item.Failures, item.Threshold), item.Domain, item.Failures, item.Threshold)
	}
	fmt.Fprintf(&b, "\n⏰ %s\n", a.now().Format(time.RFC1123))
	fmt.Fprintf(&b, "⚠️ %d domain(s) failing", len(items))
	return b.String()
}

// Severity bands are rendering-only and independent of the configured alert
// thresholds.
func tlsSeverityMarker(daysLeft int) string {
	switch {
	case daysLeft <= 3:
		return "🔴"
	case daysLeft <= 7:
		return "🟠"
	default:
		return "🟡"
	}
}

func whoisSeverityMarker(daysLeft int) string {
	switch {
	case daysLeft <= 7:
		return "🔴"
	case daysLeft <= 14:
		return "🟠"
	default:
		return "🟡"
	}
}

func failureSeverityMarker(failures, threshold int) string {
	if failures >= threshold*2 {
		return "🔴"
	}
	return "🟠"
}

func (a *Aggregator) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}
