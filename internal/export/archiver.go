package export

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/saldo-certo/internal/jobs"
	"github.com/dvloznov/saldo-certo/internal/store"
)

// Archiver handles export jobs by uploading the rendered CSV to a bucket.
type Archiver struct {
	ledger  store.Ledger
	storage Storage
	bucket  string
	log     zerolog.Logger
	now     func() time.Time
}

// NewArchiver creates an Archiver writing to bucket.
func NewArchiver(ledger store.Ledger, storage Storage, bucket string, log zerolog.Logger) *Archiver {
	return &Archiver{
		ledger:  ledger,
		storage: storage,
		bucket:  bucket,
		log:     log.With().Str("component", "archiver").Logger(),
		now:     time.Now,
	}
}

// Handle is a jobs.JobHandler. On success the job carries the object URI
// and row count; a user without transactions completes with no object.
func (a *Archiver) Handle(ctx context.Context, job jobs.Job) error {
	ej, ok := job.(*jobs.ExportJob)
	if !ok {
		return fmt.Errorf("Handle: unexpected job type %s", job.GetType())
	}

	file, err := Build(ctx, a.ledger, ej.UserID, ej.Since, ej.Monthly)
	if err != nil {
		return fmt.Errorf("Handle: %w", err)
	}
	if file == nil {
		a.log.Info().Str("job_id", ej.JobID).Str("user_id", ej.UserID).Msg("nothing to archive")
		ej.Rows = 0
		ej.ObjectURI = ""
		return nil
	}

	object := ObjectName(ej.UserID, ej.JobID, file.Name, a.now())
	if err := a.storage.Upload(ctx, a.bucket, object, ContentType, file.Data); err != nil {
		return fmt.Errorf("Handle: %w", err)
	}

	ej.Rows = file.Rows
	ej.ObjectURI = URI(a.bucket, object)
	return nil
}
