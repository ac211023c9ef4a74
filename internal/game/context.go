// Package game owns the process-scoped play state: corpus, filters,
// selection, and the record save fan-out.
package game

import (
	"context"
	"fmt"
	"time"

	"github.com/ryotaka/kanasprint/internal/board"
	"github.com/ryotaka/kanasprint/internal/corpus"
	"github.com/ryotaka/kanasprint/internal/metrics"
	"github.com/ryotaka/kanasprint/internal/model"
	"github.com/ryotaka/kanasprint/internal/selection"
	"github.com/ryotaka/kanasprint/internal/session"
)

// DefaultCooldown suppresses record saves for completions arriving this
// soon after the previous saved completion.
const DefaultCooldown = 15 * time.Second

// Recorder is the write surface of the document store.
type Recorder interface {
	AppendBoardEntry(ctx context.Context, boardKey string, e model.BoardEntry) error
	AppendHistory(ctx context.Context, e model.HistoryEntry) error
}

// WriteOutcome is the independent result of one partition write.
type WriteOutcome struct {
	Scope model.Scope
	Board string
	Err   error
}

// SaveReport describes what happened to one completed round.
type SaveReport struct {
	Record     model.PerformanceRecord
	Suppressed bool
	Outcomes   []WriteOutcome
	HistoryErr error
}

// Failed reports whether any fan-out or history write failed.
func (r SaveReport) Failed() bool {
	if r.HistoryErr != nil {
		return true
	}
	for _, o := range r.Outcomes {
		if o.Err != nil {
			return true
		}
	}
	return false
}

// Context holds the mutable play state for one participant process.
type Context struct {
	corpus   *corpus.Corpus
	picker   *selection.Picker
	recorder Recorder
	now      func() time.Time

	player   string
	actorID  string
	filter   model.FilterContext
	current  *model.Passage
	cooldown time.Duration
	lastSave time.Time
}

// New builds a play context. actorID may arrive later via SetActor.
func New(c *corpus.Corpus, recorder Recorder, player, actorID string, cooldown time.Duration, now func() time.Time) *Context {
	if now == nil {
		now = time.Now
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Context{
		corpus:   c,
		picker:   selection.NewPicker(selection.NewRecentPool()),
		recorder: recorder,
		now:      now,
		player:   player,
		actorID:  actorID,
		cooldown: cooldown,
	}
}

// SetActor installs the opaque actor identifier once it is available.
func (g *Context) SetActor(id string) {
	g.actorID = id
}

// Filter returns the active filter context.
func (g *Context) Filter() model.FilterContext {
	return g.filter
}

// SetDifficulty updates the difficulty filter.
func (g *Context) SetDifficulty(d model.Difficulty) {
	g.filter.Difficulty = d
}

// SetCategory updates the category filter.
func (g *Context) SetCategory(category string) {
	g.filter.Category = category
}

// SetTheme updates the theme filter.
func (g *Context) SetTheme(theme string) {
	g.filter.Theme = theme
}

// SetDailyActive toggles the daily-theme mode. Activation resolves the
// theme of the day from the corpus theme set and the local date.
func (g *Context) SetDailyActive(active bool) {
	g.filter.DailyActive = active
	if active {
		g.filter.DailyTheme = board.DailyTheme(g.today(), g.corpus.Themes())
	} else {
		g.filter.DailyTheme = ""
	}
}

// Corpus returns the loaded corpus.
func (g *Context) Corpus() *corpus.Corpus {
	return g.corpus
}

// NextPassage selects the next target under the active filters, biased
// away from recently served texts.
func (g *Context) NextPassage() (model.Passage, error) {
	p, ok := g.picker.Pick(g.corpus.Passages(), g.filter)
	if !ok {
		return model.Passage{}, fmt.Errorf("no passage matches the active filters")
	}
	g.current = &p
	return p, nil
}

// SaveResult turns a completed round into a PerformanceRecord and fans it
// out to every scope partition plus the actor history. The filter context
// is frozen into the record at save time. Writes are independent; partial
// failure never blocks the next round. Completions inside the cooldown
// window are suppressed entirely but still reported with their metrics.
func (g *Context) SaveResult(ctx context.Context, res session.Result) (SaveReport, error) {
	if g.current == nil {
		return SaveReport{}, fmt.Errorf("no active passage")
	}
	if g.actorID == "" {
		return SaveReport{}, fmt.Errorf("no active participant")
	}

	m := metrics.Compute(res.TypedLength, res.Seconds, res.Keystrokes)
	record := model.PerformanceRecord{
		TypedLength:   res.TypedLength,
		ElapsedSecs:   res.Seconds,
		Keystrokes:    res.Keystrokes,
		Metrics:       m,
		Rank:          metrics.Classify(m.CPM, m.Eff),
		RankingScore:  metrics.Score(m.CPM, m.KPM),
		FilterContext: g.filter,
		Passage:       *g.current,
	}
	report := SaveReport{Record: record}

	now := g.now()
	if !g.lastSave.IsZero() && now.Sub(g.lastSave) < g.cooldown {
		report.Suppressed = true
		return report, nil
	}
	g.lastSave = now

	entry := model.BoardEntry{
		Player:     g.player,
		CPM:        m.CPM,
		KPM:        m.KPM,
		WPM:        m.WPM,
		Diff:       m.Diff,
		Eff:        m.Eff,
		Rank:       record.Rank,
		Score:      record.RankingScore,
		Category:   g.current.Category,
		Theme:      g.current.Theme,
		Difficulty: g.current.Difficulty,
		Length:     g.current.Length,
	}
	keys := board.KeysFor(record.FilterContext, g.today())
	for _, scope := range model.Scopes {
		key := keys[scope]
		err := g.recorder.AppendBoardEntry(ctx, key, entry)
		report.Outcomes = append(report.Outcomes, WriteOutcome{Scope: scope, Board: key, Err: err})
	}

	report.HistoryErr = g.recorder.AppendHistory(ctx, model.HistoryEntry{
		Actor:    g.actorID,
		CPM:      m.CPM,
		KPM:      m.KPM,
		WPM:      m.WPM,
		Diff:     m.Diff,
		Eff:      m.Eff,
		Rank:     record.Rank,
		Score:    record.RankingScore,
		Category: g.current.Category,
		Theme:    g.current.Theme,
	})
	return report, nil
}

func (g *Context) today() string {
	return g.now().Format(board.DateFormat)
}
