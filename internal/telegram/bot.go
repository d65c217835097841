package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"inactivity-service/internal/inactivity"
	"inactivity-service/internal/models"
	"inactivity-service/internal/rabbitmq"
	"inactivity-service/internal/telemetry"
)

type api interface {
	GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error)
	SendMessage(ctx context.Context, chatID int64, text string) error
}

type scanBroadcaster interface {
	BroadcastScanResult(chatID int64, result models.ScanResult)
}

// Bot long-polls the Bot API and routes updates: plain text records
// activity, commands run scans and change per-chat configuration.
type Bot struct {
	api         api
	tracker     *inactivity.Tracker
	hub         scanBroadcaster
	publisher   rabbitmq.Publisher
	audit       *telemetry.AuditEmitter
	pollTimeout int
	offset      int64
}

// NewBot constructs a Bot.
func NewBot(api api, tracker *inactivity.Tracker, hub scanBroadcaster, publisher rabbitmq.Publisher, audit *telemetry.AuditEmitter, pollTimeout int) *Bot {
	return &Bot{
		api:         api,
		tracker:     tracker,
		hub:         hub,
		publisher:   publisher,
		audit:       audit,
		pollTimeout: pollTimeout,
	}
}

// Run polls for updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		updates, err := b.api.GetUpdates(ctx, b.offset, b.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error().Err(err).Msg("telegram getUpdates failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= b.offset {
				b.offset = upd.UpdateID + 1
			}
			b.HandleUpdate(ctx, upd)
		}
	}
}

// HandleUpdate processes a single update.
func (b *Bot) HandleUpdate(ctx context.Context, upd Update) {
	msg := upd.Message
	if msg == nil || msg.From == nil || msg.From.IsBot || msg.Text == "" {
		return
	}

	if strings.HasPrefix(msg.Text, "/") {
		b.handleCommand(ctx, msg)
		return
	}

	if err := b.tracker.RecordActivity(ctx, msg.From.ID, msg.Chat.ID); err != nil {
		log.Error().Err(err).Int64("user_id", msg.From.ID).Int64("chat_id", msg.Chat.ID).Msg("record activity failed")
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *Message) {
	fields := strings.Fields(msg.Text)
	cmd := fields[0]
	if at := strings.Index(cmd, "@"); at > 0 {
		cmd = cmd[:at]
	}

	switch cmd {
	case "/review":
		b.handleReview(ctx, msg.Chat.ID)
	case "/set_inactive":
		b.handleSetInactive(ctx, msg.Chat.ID, fields[1:])
	case "/set_newuser":
		b.handleSetNewUser(ctx, msg.Chat.ID, fields[1:])
	}
}

func (b *Bot) handleReview(ctx context.Context, chatID int64) {
	requestID := uuid.NewString()

	result, err := b.tracker.RunScan(ctx, chatID)
	if err != nil {
		if errors.Is(err, inactivity.ErrRosterUnavailable) {
			b.audit.Emit(ctx, "ERROR", "scan aborted: roster unavailable", requestID, &chatID)
			b.reply(ctx, chatID, "Scan aborted: could not fetch chat administrators.")
			return
		}
		log.Error().Err(err).Int64("chat_id", chatID).Msg("scan failed")
		b.audit.Emit(ctx, "ERROR", "scan failed", requestID, &chatID)
		b.reply(ctx, chatID, "Scan failed, try again later.")
		return
	}

	for _, userID := range result.Flagged {
		warning := fmt.Sprintf(`⚠️ <a href="tg://user?id=%d">User</a> inactive for %d days.`, userID, result.InactiveDays)
		if err := b.api.SendMessage(ctx, chatID, warning); err != nil {
			log.Error().Err(err).Int64("user_id", userID).Msg("warning message failed")
		}
	}
	b.reply(ctx, chatID, fmt.Sprintf("Warned users: %d", result.Count))

	b.audit.Emit(ctx, "INFO", "scan completed", requestID, &chatID)
	if err := b.publisher.Publish(ctx, "scans.completed", result); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("scan report publish failed")
	}
	if b.hub != nil {
		b.hub.BroadcastScanResult(chatID, result)
	}
}

func (b *Bot) handleSetInactive(ctx context.Context, chatID int64, args []string) {
	if len(args) != 1 {
		b.reply(ctx, chatID, "Usage: /set_inactive <days>")
		return
	}

	days, err := b.tracker.SetInactiveDays(ctx, chatID, args[0])
	if err != nil {
		if errors.Is(err, inactivity.ErrInvalidDays) {
			b.reply(ctx, chatID, "Days must be a positive whole number.")
			return
		}
		log.Error().Err(err).Int64("chat_id", chatID).Msg("set inactive days failed")
		b.reply(ctx, chatID, "Could not update configuration.")
		return
	}

	b.audit.Emit(ctx, "INFO", "inactive threshold updated", uuid.NewString(), &chatID)
	b.reply(ctx, chatID, fmt.Sprintf("Inactivity threshold set to %d days", days))
}

func (b *Bot) handleSetNewUser(ctx context.Context, chatID int64, args []string) {
	if len(args) != 1 {
		b.reply(ctx, chatID, "Usage: /set_newuser <days>")
		return
	}

	days, err := b.tracker.SetNewUserDays(ctx, chatID, args[0])
	if err != nil {
		if errors.Is(err, inactivity.ErrInvalidDays) {
			b.reply(ctx, chatID, "Days must be a whole number, 0 or more.")
			return
		}
		log.Error().Err(err).Int64("chat_id", chatID).Msg("set new user days failed")
		b.reply(ctx, chatID, "Could not update configuration.")
		return
	}

	b.audit.Emit(ctx, "INFO", "grace period updated", uuid.NewString(), &chatID)
	b.reply(ctx, chatID, fmt.Sprintf("New members excluded for %d days", days))
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if err := b.api.SendMessage(ctx, chatID, text); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("reply failed")
	}
}
