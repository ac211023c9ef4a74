// Package model defines shared data structures.
package model

import "time"

// Difficulty labels a passage by its derived difficulty score.
type Difficulty string

// Difficulty levels, plus the "all" filter wildcard.
const (
	DifficultyAll    Difficulty = "all"
	DifficultyEasy   Difficulty = "easy"
	DifficultyNormal Difficulty = "normal"
	DifficultyHard   Difficulty = "hard"
)

// Scope identifies a leaderboard partition dimension.
type Scope string

// Leaderboard scopes.
const (
	ScopeOverall  Scope = "overall"
	ScopeDaily    Scope = "daily"
	ScopeCategory Scope = "category"
	ScopeTheme    Scope = "theme"
)

// Scopes lists every leaderboard scope in fan-out order.
var Scopes = []Scope{ScopeOverall, ScopeDaily, ScopeCategory, ScopeTheme}

// Rank is a coarse performance tier.
type Rank string

// Ranks from worst to best.
const (
	RankD   Rank = "D"
	RankC   Rank = "C"
	RankB   Rank = "B"
	RankA   Rank = "A"
	RankS   Rank = "S"
	RankSS  Rank = "SS"
	RankSSS Rank = "SSS"
)

// Passage is one transcription target, tagged once at corpus load.
type Passage struct {
	Text             string
	Length           int
	PunctuationCount int
	KatakanaRatio    float64
	Difficulty       Difficulty
	Category         string
	Theme            string
	Score            int
}

// FilterContext holds the active selection/addressing filters.
type FilterContext struct {
	Difficulty  Difficulty
	Category    string
	Theme       string
	DailyActive bool
	DailyTheme  string
}

// Metrics are the derived performance numbers for one completed round.
type Metrics struct {
	CPM  int
	KPM  int
	WPM  int
	Diff int
	Eff  float64
}

// PerformanceRecord is the immutable result of one completed round.
type PerformanceRecord struct {
	TypedLength   int
	ElapsedSecs   float64
	Keystrokes    int
	Metrics       Metrics
	Rank          Rank
	RankingScore  int
	FilterContext FilterContext
	Passage       Passage
}

// BoardEntry is one row of a leaderboard partition.
type BoardEntry struct {
	Player     string
	CPM        int
	KPM        int
	WPM        int
	Diff       int
	Eff        float64
	Rank       Rank
	Score      int
	Category   string
	Theme      string
	Difficulty Difficulty
	Length     int
	CreatedAt  time.Time
}

// HistoryEntry is one row of a participant's round history.
type HistoryEntry struct {
	Actor     string
	CPM       int
	KPM       int
	WPM       int
	Diff      int
	Eff       float64
	Rank      Rank
	Score     int
	Category  string
	Theme     string
	CreatedAt time.Time
}

// Config defines play settings.
type Config struct {
	CorpusPath string
	Player     string
	Difficulty Difficulty
	Category   string
	Theme      string
	Daily      bool
	Cooldown   time.Duration
}
