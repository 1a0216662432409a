package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/clickpulse/internal/config"
	"github.com/set-night/clickpulse/internal/service"
)

const (
	MaxMessageLen = 4096
	sendTimeout   = 10 * time.Second
)

type messageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// LedgerAlerter posts ledger alerts to the operators' log chat.
type LedgerAlerter struct {
	sender  messageSender
	chatID  int64
	topicID int
	now     func() time.Time
}

func NewLedgerAlerter(b *bot.Bot, cfg *config.Config) *LedgerAlerter {
	return newLedgerAlerter(b, cfg.LogTelegramChatID, cfg.LogTopicLedger)
}

func newLedgerAlerter(sender messageSender, chatID int64, topicID int) *LedgerAlerter {
	return &LedgerAlerter{sender: sender, chatID: chatID, topicID: topicID, now: time.Now}
}

func (l *LedgerAlerter) LedgerAlert(alert service.LedgerAlert) {
	if l.chatID == 0 {
		return
	}

	message := formatAlert(alert, l.now())
	if len([]rune(message)) > MaxMessageLen {
		message = string([]rune(message)[:MaxMessageLen-20]) + "\n\n... (truncated)"
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	_, err := l.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          l.chatID,
		Text:            message,
		MessageThreadID: l.topicID,
	})
	if err != nil {
		slog.Error("failed to send ledger alert", "kind", alert.Kind, "payout_id", alert.PayoutID, "error", err)
	}
}

func formatAlert(a service.LedgerAlert, at time.Time) string {
	var b strings.Builder
	switch a.Kind {
	case service.AlertLedgerConflict:
		b.WriteString("🚨 Ledger conflict: transfer sent, ledger not updated\n\n")
	case service.AlertTransferAmbiguous:
		b.WriteString("⚠️ Payout transfer outcome unknown\n\n")
	default:
		fmt.Fprintf(&b, "⚠️ %s\n\n", a.Kind)
	}
	fmt.Fprintf(&b, "Worker: %d\nPayout: %d\nAmount: %d\n", a.WorkerID, a.PayoutID, a.Amount)
	if a.Signature != "" {
		fmt.Fprintf(&b, "Transfer: %s\n", a.Signature)
	}
	if a.Err != nil {
		fmt.Fprintf(&b, "Error: %s\n", a.Err)
	}
	fmt.Fprintf(&b, "Time: %s", at.UTC().Format("2006-01-02 15:04:05"))
	return b.String()
}

var _ service.Alerter = (*LedgerAlerter)(nil)
