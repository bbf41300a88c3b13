package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrFeedbackNotFound is returned when deleting a nonexistent entry.
var ErrFeedbackNotFound = errors.New("feedback entry not found")

// Feedback kinds map to their own tables; suggestions never carry a
// screenshot.
const (
	FeedbackSuggestion = "suggestion"
	FeedbackBugReport  = "bug_report"
)

// FeedbackEntry is one suggestion or bug report.
type FeedbackEntry struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	Screenshot *string   `json:"screenshot,omitempty"` // base64, bug reports only
	CreatedAt  time.Time `json:"created_at"`
}

// FeedbackStore handles the append-only suggestion and bug-report lists.
type FeedbackStore struct {
	pool *pgxpool.Pool
}

// NewFeedbackStore creates a new FeedbackStore.
func NewFeedbackStore(pool *pgxpool.Pool) *FeedbackStore {
	return &FeedbackStore{pool: pool}
}

// AddSuggestion appends a suggestion.
func (s *FeedbackStore) AddSuggestion(ctx context.Context, text string) (*FeedbackEntry, error) {
	e := &FeedbackEntry{Text: text}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO suggestions (text) VALUES ($1)
		RETURNING id, created_at`, text)
	if err := row.Scan(&e.ID, &e.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert suggestion: %w", err)
	}
	return e, nil
}

// AddBugReport appends a bug report with an optional screenshot.
func (s *FeedbackStore) AddBugReport(ctx context.Context, text string, screenshot *string) (*FeedbackEntry, error) {
	e := &FeedbackEntry{Text: text, Screenshot: screenshot}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO bug_reports (text, screenshot) VALUES ($1, $2)
		RETURNING id, created_at`, text, screenshot)
	if err := row.Scan(&e.ID, &e.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert bug report: %w", err)
	}
	return e, nil
}

// ListSuggestions returns all suggestions, newest first.
func (s *FeedbackStore) ListSuggestions(ctx context.Context) ([]FeedbackEntry, error) {
	return s.list(ctx, `SELECT id, text, NULL, created_at FROM suggestions ORDER BY created_at DESC`)
}

// ListBugReports returns all bug reports, newest first.
func (s *FeedbackStore) ListBugReports(ctx context.Context) ([]FeedbackEntry, error) {
	return s.list(ctx, `SELECT id, text, screenshot, created_at FROM bug_reports ORDER BY created_at DESC`)
}

// Delete removes one entry of the given kind. Only callable in admin mode;
// the handler enforces that.
func (s *FeedbackStore) Delete(ctx context.Context, kind, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrFeedbackNotFound
	}
	table := "suggestions"
	if kind == FeedbackBugReport {
		table = "bug_reports"
	}
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table), id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFeedbackNotFound
	}
	return nil
}

func (s *FeedbackStore) list(ctx context.Context, query string) ([]FeedbackEntry, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	var out []FeedbackEntry
	for rows.Next() {
		var e FeedbackEntry
		if err := rows.Scan(&e.ID, &e.Text, &e.Screenshot, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
