// Package notification handles sending notifications to external services.
package notification

import (
	"fmt"
	"strings"
	"time"

	"github.com/containrrr/shoutrrr"
	"github.com/zorak1103/pokybox/internal/config"
)

// Notifier handles sending notifications via Shoutrrr
type Notifier struct {
	enabled     bool
	shoutrrrURL string
}

// NewNotifier initializes a Shoutrrr-based notification client from config.
func NewNotifier(cfg *config.Config) (*Notifier, error) {
	if !cfg.Notification.Enabled {
		return &Notifier{enabled: false}, nil
	}

	url := strings.TrimSpace(cfg.Notification.ShoutrrURL)
	if url == "" {
		return &Notifier{enabled: false}, fmt.Errorf("notification enabled but shoutrrr_url not configured: provide URL in format 'service://credentials' (e.g., slack://token@channel, discord://token@webhookid)")
	}

	return &Notifier{
		enabled:     true,
		shoutrrrURL: cfg.Notification.ShoutrrURL,
	}, nil
}

// SendRunSummary delivers the outcome of a provisioning run via the
// configured notification channel.
func (n *Notifier) SendRunSummary(envLabel, target string, succeeded bool, duration time.Duration, logDir string) error {
	if !n.enabled {
		return nil // Notifications disabled
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")

	var sb strings.Builder
	if succeeded {
		sb.WriteString("✅ Yocto build environment ready\n")
	} else {
		sb.WriteString("❌ Yocto environment setup failed\n")
	}
	sb.WriteString(fmt.Sprintf("📅 Time: %s\n", timestamp))
	sb.WriteString(fmt.Sprintf("📦 Environment: %s\n", envLabel))
	if target != "" {
		sb.WriteString(fmt.Sprintf("🎯 Target: %s\n", target))
	}
	sb.WriteString(fmt.Sprintf("⏱️  Duration: %s\n", duration.Round(time.Second)))
	if logDir != "" {
		sb.WriteString(fmt.Sprintf("📝 Logs: %s\n", logDir))
	}

	err := shoutrrr.Send(n.shoutrrrURL, sb.String())
	if err != nil {
		// Extract service type from URL (e.g., "slack://..." -> "slack")
		serviceType := "unknown"
		if idx := strings.Index(n.shoutrrrURL, "://"); idx > 0 {
			serviceType = n.shoutrrrURL[:idx]
		}
		return fmt.Errorf("notification failed to send via %s (environment: %s, succeeded: %t): %w", serviceType, envLabel, succeeded, err)
	}

	return nil
}

// IsEnabled reports whether notifications are configured and active.
func (n *Notifier) IsEnabled() bool {
	return n.enabled
}
