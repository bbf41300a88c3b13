package store

import (
	"context"
	"errors"
	"testing"
)

func TestFeedbackStore_Suggestions(t *testing.T) {
	pool := SetupTestDB(t)
	defer pool.Close()
	store := NewFeedbackStore(pool)
	ctx := context.Background()

	first, err := store.AddSuggestion(ctx, "add a queen role")
	if err != nil {
		t.Fatalf("add suggestion: %v", err)
	}
	if _, err := store.AddSuggestion(ctx, "dark mode please"); err != nil {
		t.Fatalf("add second suggestion: %v", err)
	}

	got, err := store.ListSuggestions(ctx)
	if err != nil {
		t.Fatalf("list suggestions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(got))
	}
	if got[len(got)-1].ID != first.ID {
		t.Errorf("expected newest-first ordering, got %+v", got)
	}
	for _, e := range got {
		if e.Screenshot != nil {
			t.Errorf("suggestion carries a screenshot: %+v", e)
		}
	}
}

func TestFeedbackStore_BugReports(t *testing.T) {
	pool := SetupTestDB(t)
	defer pool.Close()
	store := NewFeedbackStore(pool)
	ctx := context.Background()

	shot := "aGVsbG8="
	entry, err := store.AddBugReport(ctx, "minister timer fires twice", &shot)
	if err != nil {
		t.Fatalf("add bug report: %v", err)
	}
	if _, err := store.AddBugReport(ctx, "no screenshot here", nil); err != nil {
		t.Fatalf("add second bug report: %v", err)
	}

	got, err := store.ListBugReports(ctx)
	if err != nil {
		t.Fatalf("list bug reports: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(got))
	}
	for _, e := range got {
		if e.ID == entry.ID {
			if e.Screenshot == nil || *e.Screenshot != shot {
				t.Errorf("screenshot lost in round trip: %+v", e)
			}
		}
	}
}

func TestFeedbackStore_Delete(t *testing.T) {
	pool := SetupTestDB(t)
	defer pool.Close()
	store := NewFeedbackStore(pool)
	ctx := context.Background()

	entry, err := store.AddSuggestion(ctx, "shorter reveal animation")
	if err != nil {
		t.Fatalf("add suggestion: %v", err)
	}

	if err := store.Delete(ctx, FeedbackSuggestion, entry.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, FeedbackSuggestion, entry.ID); !errors.Is(err, ErrFeedbackNotFound) {
		t.Errorf("expected ErrFeedbackNotFound on double delete, got %v", err)
	}
	if err := store.Delete(ctx, FeedbackSuggestion, "not-a-uuid"); !errors.Is(err, ErrFeedbackNotFound) {
		t.Errorf("expected ErrFeedbackNotFound for malformed id, got %v", err)
	}

	left, err := store.ListSuggestions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(left) != 0 {
		t.Errorf("expected empty list after delete, got %d", len(left))
	}
}
