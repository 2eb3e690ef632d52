// Package telegram connects the assistant to Telegram through a long-polling
// bot.
package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	tele "gopkg.in/telebot.v3"

	"github.com/dvloznov/saldo-certo/internal/assistant"
	"github.com/dvloznov/saldo-certo/internal/config"
)

const (
	handlerTimeout = 30 * time.Second
	csvMIME        = "text/csv"
	msgFailure     = "Algo deu errado. Tente novamente."
)

// Assistant is the conversation flow driven by the bot.
type Assistant interface {
	Welcome() assistant.Reply
	HandleText(ctx context.Context, userID, text string) (assistant.Reply, error)
	ChooseCategory(ctx context.Context, userID, pendingID, slug string) (assistant.Reply, error)
	Act(ctx context.Context, userID string, action assistant.Action) (assistant.Reply, error)
}

// Bot routes Telegram updates to an Assistant.
type Bot struct {
	bot       *tele.Bot
	assistant Assistant
	log       zerolog.Logger
	base      context.Context
}

// New creates a bot polling with the configured token. It does not start
// polling; call Run.
func New(cfg config.TelegramConfig, a Assistant, log zerolog.Logger) (*Bot, error) {
	if cfg.Token == "" {
		return nil, errors.New("New: telegram token is empty")
	}

	b := &Bot{
		assistant: a,
		log:       log.With().Str("component", "telegram").Logger(),
		base:      context.Background(),
	}

	tb, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: cfg.PollTimeout},
		OnError: func(err error, c tele.Context) {
			b.log.Error().Err(err).Msg("telegram update failed")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("New: create bot: %w", err)
	}
	b.bot = tb

	tb.Use(b.recoverer)
	tb.Handle("/start", b.onStart)
	tb.Handle(tele.OnText, b.onText)
	tb.Handle(tele.OnCallback, b.onCallback)
	return b, nil
}

// Run polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	b.base = ctx
	go b.bot.Start()
	b.log.Info().Str("username", b.bot.Me.Username).Msg("telegram bot polling")

	<-ctx.Done()
	b.bot.Stop()
	b.log.Info().Msg("telegram bot stopped")
}

func (b *Bot) recoverer(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				b.log.Error().Interface("panic", r).Msg("panic in telegram handler")
				err = fmt.Errorf("handler panic: %v", r)
			}
		}()
		return next(c)
	}
}

func (b *Bot) onStart(c tele.Context) error {
	return b.deliver(c, b.assistant.Welcome(), false)
}

func (b *Bot) onText(c tele.Context) error {
	ctx, cancel := context.WithTimeout(b.base, handlerTimeout)
	defer cancel()

	reply, err := b.assistant.HandleText(ctx, userID(c), c.Text())
	if err != nil {
		b.log.Error().Err(err).Str("user_id", userID(c)).Msg("failed to handle text")
		return c.Send(msgFailure)
	}
	return b.deliver(c, reply, false)
}

func (b *Bot) onCallback(c tele.Context) error {
	cb := c.Callback()
	if cb == nil {
		return nil
	}
	if err := c.Respond(); err != nil {
		b.log.Warn().Err(err).Msg("failed to answer callback")
	}

	decoded, err := DecodeCallback(cb.Data)
	if err != nil {
		b.log.Warn().Err(err).Str("data", cb.Data).Msg("ignoring callback")
		return nil
	}

	ctx, cancel := context.WithTimeout(b.base, handlerTimeout)
	defer cancel()

	var reply assistant.Reply
	switch decoded.Kind {
	case CallbackCategory:
		reply, err = b.assistant.ChooseCategory(ctx, userID(c), decoded.PendingID, decoded.Slug)
	default:
		reply, err = b.assistant.Act(ctx, userID(c), decoded.Action)
	}
	if err != nil {
		b.log.Error().Err(err).Str("user_id", userID(c)).Str("data", cb.Data).Msg("failed to handle callback")
		return c.Send(msgFailure)
	}
	return b.deliver(c, reply, true)
}

// deliver sends reply in order. For a callback the first text replaces the
// text of the pressed message when it differs; otherwise, or when the edit
// fails, a new message is sent.
func (b *Bot) deliver(c tele.Context, reply assistant.Reply, fromCallback bool) error {
	for i, msg := range reply.Messages {
		opts := sendOptions(markupFor(msg))

		if msg.Document != nil {
			doc := &tele.Document{
				File:     tele.FromReader(bytes.NewReader(msg.Document.Data)),
				FileName: msg.Document.Name,
				MIME:     csvMIME,
			}
			if err := c.Send(doc, opts...); err != nil {
				return fmt.Errorf("deliver: send document: %w", err)
			}
			continue
		}

		if i == 0 && fromCallback && canEdit(c.Callback(), msg.Text) {
			err := c.Edit(msg.Text, opts...)
			if err == nil {
				continue
			}
			b.log.Debug().Err(err).Msg("edit failed, sending new message")
		}
		if err := c.Send(msg.Text, opts...); err != nil {
			return fmt.Errorf("deliver: send: %w", err)
		}
	}
	return nil
}

func canEdit(cb *tele.Callback, text string) bool {
	if cb == nil || cb.Message == nil {
		return false
	}
	return cb.Message.Text != "" && cb.Message.Text != text
}

func userID(c tele.Context) string {
	if u := c.Sender(); u != nil {
		return strconv.FormatInt(u.ID, 10)
	}
	if chat := c.Chat(); chat != nil {
		return strconv.FormatInt(chat.ID, 10)
	}
	return ""
}
