package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/saldo-certo/internal/store"
)

// Lookup returns the category learned for word. When concurrent Learn
// calls raced and left duplicates, the earliest one is returned.
func (s *Store) Lookup(ctx context.Context, word string) (string, bool, error) {
	word = store.NormalizeWord(word)
	if word == "" {
		return "", false, nil
	}

	q := s.client.Query(fmt.Sprintf(`
		SELECT word, category, learned_ts
		FROM %s
		WHERE word = @word
		ORDER BY learned_ts
		LIMIT 1
	`, s.table(learnedWordsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "word", Value: word},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return "", false, fmt.Errorf("Lookup: query read: %w", err)
	}

	var r LearnedWordRow
	err = it.Next(&r)
	if err == iterator.Done {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("Lookup: iter next: %w", err)
	}
	return r.Category, true, nil
}

// Learn binds word to category unless a binding exists. The MERGE only
// inserts when no row matches, so the first writer wins.
func (s *Store) Learn(ctx context.Context, word, category string) error {
	word = store.NormalizeWord(word)
	if word == "" {
		return store.ErrEmptyWord
	}

	sql := fmt.Sprintf(`
		MERGE %s T
		USING (SELECT @word AS word, @category AS category, @learned_ts AS learned_ts) S
		ON T.word = S.word
		WHEN NOT MATCHED THEN
		  INSERT (word, category, learned_ts) VALUES (S.word, S.category, S.learned_ts)
	`, s.table(learnedWordsTable))

	params := []bigquery.QueryParameter{
		{Name: "word", Value: word},
		{Name: "category", Value: category},
		{Name: "learned_ts", Value: time.Now().UTC()},
	}

	if _, err := s.run(ctx, sql, params); err != nil {
		return fmt.Errorf("Learn: %w", err)
	}
	return nil
}
