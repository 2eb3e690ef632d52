package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/saldo-certo/internal/export"
	"github.com/dvloznov/saldo-certo/internal/jobs"
	"github.com/dvloznov/saldo-certo/internal/logger"
	"github.com/dvloznov/saldo-certo/internal/store"
)

// Act answers a main menu action.
func (a *Assistant) Act(ctx context.Context, userID string, action Action) (Reply, error) {
	if a.metrics != nil {
		a.metrics.MenuActionsTotal.WithLabelValues(string(action)).Inc()
	}

	var (
		reply Reply
		err   error
	)
	switch action {
	case ActionAddExpense:
		reply.text(msgAddExpense, KeyboardMenu)
	case ActionAddIncome:
		reply.text(msgAddIncome, KeyboardMenu)
	case ActionResetAccount:
		err = a.reset(ctx, userID, &reply)
	case ActionShowBalance:
		err = a.showBalance(ctx, userID, &reply)
	case ActionShowExpense:
		err = a.showExpense(ctx, userID, &reply)
	case ActionExportCSV:
		err = a.exportAll(ctx, userID, &reply)
	case ActionMonthlyReport:
		err = a.monthlyReport(ctx, userID, &reply)
	default:
		log := logger.WithUser(a.log, userID)
		log.Warn().Str("action", string(action)).Msg("unknown menu action")
		reply.text(msgUnknownAction, KeyboardMenu)
	}
	if err != nil {
		return Reply{}, fmt.Errorf("Act %s: %w", action, err)
	}
	return reply, nil
}

func (a *Assistant) reset(ctx context.Context, userID string, reply *Reply) error {
	n, err := a.store.ResetUser(ctx, userID)
	if err != nil {
		return err
	}
	discarded := a.pending.DiscardUser(userID)
	log := logger.WithUser(a.log, userID)
	log.Info().Int64("deleted", n).Int("discarded", discarded).Msg("account reset")
	reply.text(msgReset, KeyboardMenu)
	return nil
}

func (a *Assistant) showBalance(ctx context.Context, userID string, reply *Reply) error {
	balance, err := a.store.Balance(ctx, userID)
	if err != nil {
		return err
	}
	reply.text(msgBalance(balance), KeyboardMenu)
	return nil
}

func (a *Assistant) showExpense(ctx context.Context, userID string, reply *Reply) error {
	totals, err := a.store.Totals(ctx, userID, time.Time{})
	if err != nil {
		return err
	}
	reply.text(msgTotalExpense(totals.Expense), KeyboardMenu)
	return nil
}

func (a *Assistant) exportAll(ctx context.Context, userID string, reply *Reply) error {
	file, err := export.Build(ctx, a.store, userID, time.Time{}, false)
	if err != nil {
		return err
	}
	if file == nil {
		reply.text(msgNothingExport, KeyboardMenu)
		return nil
	}
	reply.document(file, KeyboardMenu)
	a.archiveExport(ctx, userID, time.Time{}, false)
	return nil
}

func (a *Assistant) monthlyReport(ctx context.Context, userID string, reply *Reply) error {
	since := store.StartOfMonth(a.now())

	balance, err := a.store.Balance(ctx, userID)
	if err != nil {
		return err
	}
	month, err := a.store.Totals(ctx, userID, since)
	if err != nil {
		return err
	}
	reply.text(msgMonthlyReport(balance, month), KeyboardMenu)

	if month.Count == 0 {
		return nil
	}
	file, err := export.Build(ctx, a.store, userID, since, true)
	if err != nil {
		return err
	}
	if file != nil {
		reply.document(file, KeyboardNone)
		a.archiveExport(ctx, userID, since, true)
	}
	return nil
}

// archiveExport enqueues an archive job. Failures are logged and do not
// affect the reply.
func (a *Assistant) archiveExport(ctx context.Context, userID string, since time.Time, monthly bool) {
	if a.archive == nil {
		return
	}
	job := &jobs.ExportJob{UserID: userID, Since: since, Monthly: monthly}
	log := logger.WithUser(a.log, userID)
	if err := a.archive.PublishExport(ctx, job); err != nil {
		log.Warn().Err(err).Msg("failed to enqueue export archive")
		return
	}
	log.Debug().Str("job_id", job.JobID).Msg("export archive enqueued")
}
