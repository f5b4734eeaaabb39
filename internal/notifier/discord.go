// Package notifier sends operational alerts to a Discord webhook.
package notifier

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/contactkeval/optionprob/internal/logger"
	"github.com/contactkeval/optionprob/internal/secrets"
)

// webhookURLPattern extracts the ID and token from a Discord webhook
// URL, e.g. https://discord.com/api/webhooks/<id>/<token>.
var webhookURLPattern = regexp.MustCompile(`/webhooks/(\d+)/([^/?]+)`)

// Level selects the embed color and emoji a notification is sent with.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

var levelColor = map[Level]int{
	LevelInfo:    0x3498db,
	LevelSuccess: 0x2ecc71,
	LevelWarning: 0xf1c40f,
	LevelError:   0xe74c3c,
}

var levelEmoji = map[Level]string{
	LevelInfo:    "ℹ️",
	LevelSuccess: "✅",
	LevelWarning: "⚠️",
	LevelError:   "🚨",
}

const webhookTimeout = 5 * time.Second

// Notifier posts messages to a Discord webhook. It is a silent no-op
// when no webhook URL is configured, so callers never need to branch
// on whether notifications are enabled.
type Notifier struct {
	webhookID    string
	webhookToken string
	session      *discordgo.Session
	enabled      bool
}

// New builds a Notifier from the DISCORD_WEBHOOK_URL secret (Docker
// secret file first, then environment variable). Returns a disabled
// Notifier (Send is a no-op) if it's unset or malformed, rather than an
// error — alerting is best-effort.
func New() *Notifier {
	url := secrets.LoadOptional("DISCORD_WEBHOOK_URL")
	if url == "" {
		logger.Infof("DISCORD_WEBHOOK_URL not set, notifications disabled")
		return &Notifier{enabled: false}
	}

	m := webhookURLPattern.FindStringSubmatch(url)
	if m == nil {
		logger.Errorf("could not parse DISCORD_WEBHOOK_URL, notifications disabled")
		return &Notifier{enabled: false}
	}
	webhookID, webhookToken := m[1], m[2]

	session, err := discordgo.New("")
	if err != nil {
		logger.Errorf("could not initialize discord session: %v", err)
		return &Notifier{enabled: false}
	}

	return &Notifier{
		webhookID:    webhookID,
		webhookToken: webhookToken,
		session:      session,
		enabled:      true,
	}
}

// Send posts title/body at the given level. It always returns within
// webhookTimeout; failures are logged, never returned, since a failed
// alert should never fail the caller's operation.
func (n *Notifier) Send(level Level, title, body string) {
	if !n.enabled {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), webhookTimeout)
	defer cancel()

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s %s", levelEmoji[level], title),
		Description: body,
		Color:       levelColor[level],
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Footer:      &discordgo.MessageEmbedFooter{Text: uuid.New().String()},
	}

	_, err := n.session.WebhookExecute(n.webhookID, n.webhookToken, false, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
	}, discordgo.WithContext(ctx))
	if err != nil {
		logger.Errorf("discord notification failed: %v", err)
	}
}

// Infof sends a LevelInfo notification with a formatted body.
func (n *Notifier) Infof(title, format string, args ...any) {
	n.Send(LevelInfo, title, fmt.Sprintf(format, args...))
}

// Errorf sends a LevelError notification with a formatted body.
func (n *Notifier) Errorf(title, format string, args ...any) {
	n.Send(LevelError, title, fmt.Sprintf(format, args...))
}

// Warnf sends a LevelWarning notification with a formatted body.
func (n *Notifier) Warnf(title, format string, args ...any) {
	n.Send(LevelWarning, title, fmt.Sprintf(format, args...))
}

// Successf sends a LevelSuccess notification with a formatted body.
func (n *Notifier) Successf(title, format string, args ...any) {
	n.Send(LevelSuccess, title, fmt.Sprintf(format, args...))
}
