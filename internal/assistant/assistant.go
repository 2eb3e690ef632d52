// Package assistant implements the chat conversation: it turns user text
// into ledger entries, asks for categories it cannot infer, and answers
// menu actions. It knows nothing about the chat transport.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/saldo-certo/internal/domain"
	"github.com/dvloznov/saldo-certo/internal/interpreter"
	"github.com/dvloznov/saldo-certo/internal/jobs"
	"github.com/dvloznov/saldo-certo/internal/logger"
	"github.com/dvloznov/saldo-certo/internal/metrics"
	"github.com/dvloznov/saldo-certo/internal/session"
	"github.com/dvloznov/saldo-certo/internal/store"
)

// Assistant is safe for concurrent use by many users.
type Assistant struct {
	interp  *interpreter.Interpreter
	store   store.Store
	pending *session.Store
	archive jobs.Publisher
	metrics *metrics.Metrics
	log     zerolog.Logger
	now     func() time.Time
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithArchive enqueues an archive job for every CSV export.
func WithArchive(p jobs.Publisher) Option {
	return func(a *Assistant) { a.archive = p }
}

// WithMetrics records conversation metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Assistant) { a.metrics = m }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Assistant) { a.now = now }
}

// New creates an Assistant. The interpreter should read learned words
// from st.
func New(interp *interpreter.Interpreter, st store.Store, pending *session.Store, log zerolog.Logger, opts ...Option) *Assistant {
	a := &Assistant{
		interp:  interp,
		store:   st,
		pending: pending,
		log:     log.With().Str("component", "assistant").Logger(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Welcome is the reply to a new conversation: the greeting and the menu.
func (a *Assistant) Welcome() Reply {
	var reply Reply
	reply.text(msgGreeting, KeyboardMenu)
	return reply
}

// HandleText interprets a free-form message. Transactions with a known
// category are stored at once; each of the others is kept pending and
// gets its own category prompt.
func (a *Assistant) HandleText(ctx context.Context, userID, text string) (Reply, error) {
	log := logger.WithUser(a.log, userID)
	var reply Reply

	text = strings.TrimSpace(text)
	txs, err := a.interp.Interpret(ctx, text)
	if err != nil {
		a.countUtterance("error")
		return reply, fmt.Errorf("HandleText: %w", err)
	}

	if len(txs) == 0 {
		if IsGreeting(text) {
			a.countUtterance("greeting")
			reply.text(msgGreeting, KeyboardMenu)
		} else {
			a.countUtterance("not_understood")
			reply.text(msgNotUnderstood, KeyboardMenu)
		}
		return reply, nil
	}
	a.countUtterance("parsed")

	now := a.now()
	inserted := 0
	for _, tx := range txs {
		a.countResolution(tx.Category.Source())

		if !tx.Category.Resolved() {
			p, evicted := a.pending.Put(userID, tx.Amount, tx.Note, now)
			a.countPending("created", 1)
			a.countPending("evicted", len(evicted))
			log.Debug().Str("pending_id", p.ID).Str("amount", tx.Amount.String()).Msg("category prompt created")
			reply.prompt(msgChooseCategory(tx.Amount, tx.Note), p.ID)
			continue
		}

		entry := domain.NewTransaction(userID, tx.Amount, tx.Category.Name(), tx.Note, now)
		if err := a.store.AddTransaction(ctx, entry); err != nil {
			return reply, fmt.Errorf("HandleText: %w", err)
		}
		a.countTransaction(entry.Direction)
		inserted++
	}

	if inserted > 0 {
		balance, err := a.store.Balance(ctx, userID)
		if err != nil {
			return reply, fmt.Errorf("HandleText: %w", err)
		}
		reply.text(msgRecorded(inserted, balance), KeyboardMenu)
	}

	log.Info().Int("found", len(txs)).Int("inserted", inserted).Msg("message interpreted")
	return reply, nil
}

// ChooseCategory stores a pending transaction under the chosen category and
// teaches every salient word of its note that category. Unknown slugs fall
// back to "outros".
func (a *Assistant) ChooseCategory(ctx context.Context, userID, pendingID, slug string) (Reply, error) {
	log := logger.WithUser(a.log, userID)
	var reply Reply

	p, err := a.pending.Take(userID, pendingID)
	switch {
	case errors.Is(err, session.ErrPendingExpired):
		a.countPending("expired", 1)
		reply.text(msgPendingExpired, KeyboardMenu)
		return reply, nil
	case errors.Is(err, session.ErrPendingNotFound):
		reply.text(msgPendingMissing, KeyboardMenu)
		return reply, nil
	case err != nil:
		return reply, fmt.Errorf("ChooseCategory: %w", err)
	}

	choice, ok := domain.ChoiceBySlug(slug)
	if !ok {
		log.Warn().Str("slug", slug).Msg("unknown category choice")
	}

	entry := domain.NewTransaction(userID, p.Amount, choice.Name, p.Note, p.OccurredAt)
	if err := a.store.AddTransaction(ctx, entry); err != nil {
		return reply, fmt.Errorf("ChooseCategory: %w", err)
	}
	a.countTransaction(entry.Direction)
	a.countPending("resolved", 1)

	for _, word := range interpreter.SalientWords(p.Note) {
		if err := a.store.Learn(ctx, word, choice.Name); err != nil {
			log.Warn().Err(err).Str("word", word).Msg("failed to learn word")
			continue
		}
		if a.metrics != nil {
			a.metrics.LearnedWordsTotal.Inc()
		}
	}

	balance, err := a.store.Balance(ctx, userID)
	if err != nil {
		return reply, fmt.Errorf("ChooseCategory: %w", err)
	}
	reply.text(msgCategorized(entry, balance), KeyboardMenu)
	return reply, nil
}

func (a *Assistant) countUtterance(result string) {
	if a.metrics != nil {
		a.metrics.UtterancesTotal.WithLabelValues(result).Inc()
	}
}

func (a *Assistant) countResolution(src interpreter.Provenance) {
	if a.metrics != nil {
		a.metrics.CategoryResolutions.WithLabelValues(src.String()).Inc()
	}
}

func (a *Assistant) countTransaction(dir domain.Direction) {
	if a.metrics != nil {
		a.metrics.TransactionsTotal.WithLabelValues(string(dir)).Inc()
	}
}

func (a *Assistant) countPending(event string, n int) {
	if a.metrics != nil && n > 0 {
		a.metrics.PendingPromptsTotal.WithLabelValues(event).Add(float64(n))
	}
}
