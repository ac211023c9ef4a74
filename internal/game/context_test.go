package game

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ryotaka/kanasprint/internal/corpus"
	"github.com/ryotaka/kanasprint/internal/model"
	"github.com/ryotaka/kanasprint/internal/session"
)

type fakeRecorder struct {
	boardWrites   map[string]int
	historyWrites int
	failBoards    map[string]error
	failHistory   error
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{boardWrites: map[string]int{}, failBoards: map[string]error{}}
}

func (r *fakeRecorder) AppendBoardEntry(_ context.Context, boardKey string, _ model.BoardEntry) error {
	if err, ok := r.failBoards[boardKey]; ok {
		return err
	}
	r.boardWrites[boardKey]++
	return nil
}

func (r *fakeRecorder) AppendHistory(_ context.Context, _ model.HistoryEntry) error {
	if r.failHistory != nil {
		return r.failHistory
	}
	r.historyWrites++
	return nil
}

func testCorpus(t *testing.T) *corpus.Corpus {
	t.Helper()
	dir := t.TempDir()
	path := dir + "/corpus.toml"
	content := `
[[passages]]
text = "春はあけぼの"
category = "classic"
theme = "spring"

[[passages]]
text = "冬はつとめて"
category = "classic"
theme = "winter"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write corpus: %v", err)
	}
	c, err := corpus.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	return c
}

func testContext(t *testing.T, rec Recorder, clock func() time.Time) *Context {
	t.Helper()
	g := New(testCorpus(t), rec, "yuki", "actor-1", DefaultCooldown, clock)
	if _, err := g.NextPassage(); err != nil {
		t.Fatalf("NextPassage: %v", err)
	}
	return g
}

func result() session.Result {
	return session.Result{TypedLength: 300, Seconds: 60, Keystrokes: 330}
}

func TestSaveResultEndToEnd(t *testing.T) {
	rec := newFakeRecorder()
	g := testContext(t, rec, nil)
	report, err := g.SaveResult(context.Background(), result())
	if err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	m := report.Record.Metrics
	if m.CPM != 300 || m.KPM != 330 || m.WPM != 60 || m.Diff != 30 {
		t.Fatalf("metrics = %+v", m)
	}
	if report.Record.Rank != model.RankA {
		t.Fatalf("rank = %s, want A", report.Record.Rank)
	}
	if report.Record.RankingScore != 382 {
		t.Fatalf("score = %d, want 382", report.Record.RankingScore)
	}
	if len(report.Outcomes) != 4 {
		t.Fatalf("outcomes = %d, want 4", len(report.Outcomes))
	}
	if report.Failed() {
		t.Fatalf("unexpected failure: %+v", report)
	}
	if rec.historyWrites != 1 {
		t.Fatalf("history writes = %d, want 1", rec.historyWrites)
	}
	total := 0
	for _, n := range rec.boardWrites {
		total += n
	}
	if total != 4 {
		t.Fatalf("board writes = %d, want 4", total)
	}
}

func TestSaveResultCooldownSuppresses(t *testing.T) {
	rec := newFakeRecorder()
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.Local)
	clock := func() time.Time { return now }
	g := testContext(t, rec, clock)

	if _, err := g.SaveResult(context.Background(), result()); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	now = now.Add(5 * time.Second)
	report, err := g.SaveResult(context.Background(), result())
	if err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	if !report.Suppressed {
		t.Fatalf("expected suppression inside cooldown")
	}
	if rec.historyWrites != 1 {
		t.Fatalf("history writes = %d, want 1", rec.historyWrites)
	}
	// Metrics are still computed for the UI even when suppressed.
	if report.Record.Metrics.CPM != 300 {
		t.Fatalf("suppressed report lost metrics: %+v", report.Record)
	}

	now = now.Add(DefaultCooldown)
	report, err = g.SaveResult(context.Background(), result())
	if err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	if report.Suppressed {
		t.Fatalf("suppressed outside cooldown")
	}
	if rec.historyWrites != 2 {
		t.Fatalf("history writes = %d, want 2", rec.historyWrites)
	}
}

func TestSaveResultPartialFailureTolerated(t *testing.T) {
	rec := newFakeRecorder()
	g := testContext(t, rec, nil)
	daily := ""
	report, err := g.SaveResult(context.Background(), result())
	if err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	for _, o := range report.Outcomes {
		if o.Scope == model.ScopeDaily {
			daily = o.Board
		}
	}
	// Fail only the daily partition write.
	rec.failBoards[daily] = fmt.Errorf("store unreachable")

	g2 := New(testCorpus(t), rec, "yuki", "actor-1", DefaultCooldown, nil)
	if _, err := g2.NextPassage(); err != nil {
		t.Fatalf("NextPassage: %v", err)
	}
	report, err = g2.SaveResult(context.Background(), result())
	if err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	if !report.Failed() {
		t.Fatalf("expected a failed outcome")
	}
	failures := 0
	for _, o := range report.Outcomes {
		if o.Err != nil {
			failures++
		}
	}
	if failures != 1 {
		t.Fatalf("failures = %d, want 1", failures)
	}
	// The history write is independent of board failures.
	if report.HistoryErr != nil {
		t.Fatalf("history write blocked by board failure: %v", report.HistoryErr)
	}
}

func TestSaveResultPreconditions(t *testing.T) {
	rec := newFakeRecorder()
	g := New(testCorpus(t), rec, "yuki", "", DefaultCooldown, nil)
	if _, err := g.SaveResult(context.Background(), result()); err == nil {
		t.Fatalf("expected error without a passage")
	}
	if _, err := g.NextPassage(); err != nil {
		t.Fatalf("NextPassage: %v", err)
	}
	_, err := g.SaveResult(context.Background(), result())
	if err == nil || !strings.Contains(err.Error(), "participant") {
		t.Fatalf("expected participant precondition, got %v", err)
	}
	if rec.historyWrites != 0 {
		t.Fatalf("writes happened despite precondition failure")
	}
	g.SetActor("actor-9")
	if _, err := g.SaveResult(context.Background(), result()); err != nil {
		t.Fatalf("SaveResult after SetActor: %v", err)
	}
}

func TestFilterFrozenIntoRecord(t *testing.T) {
	rec := newFakeRecorder()
	g := testContext(t, rec, nil)
	g.SetDifficulty(model.DifficultyEasy)
	g.SetCategory("classic")
	report, err := g.SaveResult(context.Background(), result())
	if err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	g.SetDifficulty(model.DifficultyHard)
	if report.Record.FilterContext.Difficulty != model.DifficultyEasy {
		t.Fatalf("record filter mutated after save")
	}
	if report.Record.FilterContext.Category != "classic" {
		t.Fatalf("category filter not frozen")
	}
}

func TestSetDailyActiveResolvesTheme(t *testing.T) {
	g := testContext(t, newFakeRecorder(), nil)
	g.SetDailyActive(true)
	fc := g.Filter()
	if !fc.DailyActive {
		t.Fatalf("daily not active")
	}
	if fc.DailyTheme != "spring" && fc.DailyTheme != "winter" {
		t.Fatalf("daily theme %q not from corpus", fc.DailyTheme)
	}
	g.SetDailyActive(false)
	if g.Filter().DailyTheme != "" {
		t.Fatalf("daily theme not cleared")
	}
}
