package store

import (
	"context"
	"testing"
	"time"
)

// openTestStore opens an in-memory SQLiteStore for use in tests.
func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func Test_Store_RecordAndRecent(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	decisions := []Decision{
		{Question: "q-old", Action: "escalate-to-human", Score: 0.4, CreatedAt: base},
		{Question: "q-mid", Action: "draft-for-review", Score: 0.88, MatchedQuestion: "stored q", CreatedAt: base.Add(time.Minute)},
		{Question: "q-new", Action: "auto-reply", Score: 0.97, MatchedQuestion: "stored q", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, d := range decisions {
		if err := s.Record(ctx, d); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("want 3 decisions, got %d", len(got))
	}
	// Newest first.
	if got[0].Question != "q-new" || got[2].Question != "q-old" {
		t.Errorf("order: want newest first, got %q .. %q", got[0].Question, got[2].Question)
	}
	if got[0].Action != "auto-reply" || got[0].Score != 0.97 {
		t.Errorf("fields lost: %+v", got[0])
	}
	if got[0].MatchedQuestion != "stored q" {
		t.Errorf("matched question lost: %+v", got[0])
	}
}

func Test_Store_RecentLimitRespected(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	for range 7 {
		if err := s.Record(ctx, Decision{Question: "q", Action: "auto-reply", Score: 0.96}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := s.Recent(ctx, 5)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 5 {
		t.Errorf("want 5 decisions, got %d", len(got))
	}
}

func Test_Store_EmptyRecent(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	got, err := s.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent on empty store: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("want no decisions, got %d", len(got))
	}
}

func Test_Store_ZeroTimestampStamped(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Record(ctx, Decision{Question: "q", Action: "escalate-to-human"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	got, err := s.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if got[0].CreatedAt.IsZero() {
		t.Error("zero CreatedAt should be stamped at record time")
	}
}
