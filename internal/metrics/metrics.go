// Package metrics converts raw round measurements into performance numbers
// and ranks.
package metrics

import (
	"math"

	"github.com/ryotaka/kanasprint/internal/model"
)

// Compute derives CPM/KPM/WPM, keystroke waste, and efficiency from one
// completed round. Callers floor seconds upstream, so minutes never reaches
// zero here.
func Compute(typedLength int, seconds float64, keystrokes int) model.Metrics {
	minutes := seconds / 60
	cpm := int(math.Round(float64(typedLength) / minutes))
	kpm := int(math.Round(float64(keystrokes) / minutes))
	wpm := int(math.Round(float64(typedLength) / 5 / minutes))
	diff := kpm - cpm
	if diff < 0 {
		diff = 0
	}
	eff := 0.0
	if kpm > 0 {
		eff = float64(cpm) / float64(kpm)
	}
	return model.Metrics{CPM: cpm, KPM: kpm, WPM: wpm, Diff: diff, Eff: eff}
}

type tier struct {
	rank   model.Rank
	minCPM int
	minEff float64
}

// Tiers are evaluated top-down; both floors must hold, except C which has
// no efficiency floor. Eff above 1 is passed through unclamped.
var tiers = []tier{
	{model.RankSSS, 420, 0.92},
	{model.RankSS, 360, 0.88},
	{model.RankS, 320, 0.84},
	{model.RankA, 260, 0.78},
	{model.RankB, 200, 0.72},
	{model.RankC, 150, 0},
}

// Classify maps speed and efficiency to a rank tier. Total on any
// non-negative input: anything below the C floor is D.
func Classify(cpm int, eff float64) model.Rank {
	for _, t := range tiers {
		if cpm >= t.minCPM && eff >= t.minEff {
			return t.rank
		}
	}
	return model.RankD
}

// Score computes the continuous ranking score used purely for leaderboard
// ordering. The efficiency term contributes zero when kpm is zero.
func Score(cpm, kpm int) int {
	eff := 0.0
	if kpm > 0 {
		eff = float64(cpm) / float64(kpm)
	}
	waste := float64(kpm - cpm)
	return int(math.Round(float64(cpm) + eff*100 - waste*0.3))
}
