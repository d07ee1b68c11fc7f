package stores

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/caseflow/caseflow/pkg/engine"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(Config{
		Path: filepath.Join(t.TempDir(), "results.db"),
	})
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func sampleResult(name string, success bool) engine.CaseResult {
	started := time.Now().Add(-time.Second).UTC().Truncate(time.Millisecond)
	secondCode := 0
	if !success {
		secondCode = engine.CodeStepPanic
	}
	return engine.CaseResult{
		CaseID:         1,
		CaseName:       name,
		OverallSuccess: success,
		StartedAt:      started,
		CompletedAt:    started.Add(time.Second),
		TotalDuration:  time.Second,
		Steps: []engine.StepExecution{
			{
				StepID:    1,
				Result:    engine.StepResult{Success: true, Message: "clicked", ExtraData: "ok"},
				Duration:  400 * time.Millisecond,
				StartedAt: started,
			},
			{
				StepID: 2,
				Result: engine.StepResult{
					Success:   success,
					ErrorCode: secondCode,
					Message:   "second step",
				},
				Duration:  600 * time.Millisecond,
				StartedAt: started.Add(400 * time.Millisecond),
			},
		},
	}
}

func TestNewSQLiteStoreRequiresPath(t *testing.T) {
	if _, err := NewSQLiteStore(Config{}); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestSaveAndGetResult(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.SaveResult(ctx, sampleResult("login flow", false))
	if err != nil {
		t.Fatalf("SaveResult failed: %v", err)
	}
	if id == "" {
		t.Fatal("SaveResult must return an ID")
	}

	got, err := store.GetResult(ctx, id)
	if err != nil {
		t.Fatalf("GetResult failed: %v", err)
	}
	if got.CaseName != "login flow" || got.OverallSuccess {
		t.Errorf("result changed in storage: %+v", got)
	}
	if got.TotalDuration != time.Second {
		t.Errorf("duration changed: %s", got.TotalDuration)
	}
	if len(got.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(got.Steps))
	}
	if got.Steps[0].StepID != 1 || got.Steps[1].StepID != 2 {
		t.Error("step order changed in storage")
	}
	if got.Steps[1].ErrorCode != engine.CodeStepPanic {
		t.Errorf("error code changed: %d", got.Steps[1].ErrorCode)
	}
	if got.Steps[0].ExtraData != "ok" {
		t.Errorf("extra data lost: %q", got.Steps[0].ExtraData)
	}

	back := got.ToCaseResult()
	if back.FailedSteps() != 1 || back.PassedSteps() != 1 {
		t.Errorf("round trip broke step accounting: %+v", back)
	}
}

func TestGetResultNotFound(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.GetResult(context.Background(), "no-such-id"); err == nil {
		t.Error("expected error for unknown result")
	}
}

func TestListResultsNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i := 0; i < 3; i++ {
		r := sampleResult("case", true)
		r.StartedAt = base.Add(time.Duration(i) * time.Minute)
		r.CompletedAt = r.StartedAt.Add(time.Second)
		if _, err := store.SaveResult(ctx, r); err != nil {
			t.Fatalf("SaveResult failed: %v", err)
		}
	}

	results, err := store.ListResults(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ListResults failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].StartedAt.After(results[i-1].StartedAt) {
			t.Error("results not ordered newest first")
		}
	}
	if len(results[0].Steps) != 0 {
		t.Error("list must not hydrate steps")
	}

	page, err := store.ListResults(ctx, 1, 1)
	if err != nil || len(page) != 1 {
		t.Errorf("pagination failed: %v (len=%d)", err, len(page))
	}
}

func TestDeleteResultCascades(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.SaveResult(ctx, sampleResult("doomed", true))
	if err != nil {
		t.Fatalf("SaveResult failed: %v", err)
	}

	if err := store.DeleteResult(ctx, id); err != nil {
		t.Fatalf("DeleteResult failed: %v", err)
	}
	if _, err := store.GetResult(ctx, id); err == nil {
		t.Error("deleted result must not be found")
	}
	if err := store.DeleteResult(ctx, id); err == nil {
		t.Error("second delete must report absence")
	}

	var count int
	if err := store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM step_results`).Scan(&count); err != nil {
		t.Fatalf("counting steps: %v", err)
	}
	if count != 0 {
		t.Errorf("steps must cascade on delete, %d left", count)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	if err := store.Migrate(context.Background()); err != nil {
		t.Errorf("second Migrate must be a no-op: %v", err)
	}
}
