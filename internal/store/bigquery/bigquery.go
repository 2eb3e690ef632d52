// Package bigquery implements store.Store on BigQuery. Writes go through
// DML jobs rather than the streaming inserter so that rows can be deleted
// right after they are written.
package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/saldo-certo/internal/store"
)

const (
	transactionsTable = "transactions"
	learnedWordsTable = "learned_words"
)

// Store is a BigQuery-backed store.Store. It holds a shared client to avoid
// creating a new connection for each operation.
type Store struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

var _ store.Store = (*Store)(nil)

// New creates a Store with its own client.
func New(ctx context.Context, projectID, datasetID string) (*Store, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("New: bigquery client: %w", err)
	}
	return NewWithClient(client, projectID, datasetID), nil
}

// NewWithClient creates a Store on an existing client. Close closes the
// client.
func NewWithClient(client *bigquery.Client, projectID, datasetID string) *Store {
	return &Store{client: client, projectID: projectID, datasetID: datasetID}
}

// Close closes the BigQuery client connection.
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// EnsureSchema creates the dataset tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	ddl := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				transaction_id STRING NOT NULL,
				user_id        STRING NOT NULL,
				amount         NUMERIC NOT NULL,
				direction      STRING NOT NULL,
				category       STRING NOT NULL,
				note           STRING,
				occurred_ts    TIMESTAMP NOT NULL,
				created_ts     TIMESTAMP NOT NULL
			)
			CLUSTER BY user_id
		`, s.table(transactionsTable)),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				word       STRING NOT NULL,
				category   STRING NOT NULL,
				learned_ts TIMESTAMP NOT NULL
			)
		`, s.table(learnedWordsTable)),
	}

	for _, sql := range ddl {
		if _, err := s.run(ctx, sql, nil); err != nil {
			return fmt.Errorf("EnsureSchema: %w", err)
		}
	}
	return nil
}

// table returns the fully qualified, quoted name of a table.
func (s *Store) table(name string) string {
	return fmt.Sprintf("`%s.%s.%s`", s.projectID, s.datasetID, name)
}

// run executes a DML or DDL statement and waits for it to finish.
func (s *Store) run(ctx context.Context, sql string, params []bigquery.QueryParameter) (*bigquery.JobStatus, error) {
	q := s.client.Query(sql)
	q.Parameters = params

	job, err := q.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("run query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("wait for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return nil, fmt.Errorf("job error: %w", err)
	}
	return status, nil
}

// affectedRows reads the DML row count from a finished job.
func affectedRows(status *bigquery.JobStatus) int64 {
	if status == nil || status.Statistics == nil {
		return 0
	}
	if qs, ok := status.Statistics.Details.(*bigquery.QueryStatistics); ok {
		return qs.NumDMLAffectedRows
	}
	return 0
}
