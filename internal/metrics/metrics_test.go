package metrics

import (
	"testing"

	"github.com/ryotaka/kanasprint/internal/model"
)

func TestComputeBaseline(t *testing.T) {
	m := Compute(300, 60, 330)
	if m.CPM != 300 {
		t.Fatalf("cpm = %d, want 300", m.CPM)
	}
	if m.KPM != 330 {
		t.Fatalf("kpm = %d, want 330", m.KPM)
	}
	if m.WPM != 60 {
		t.Fatalf("wpm = %d, want 60", m.WPM)
	}
	if m.Diff != 30 {
		t.Fatalf("diff = %d, want 30", m.Diff)
	}
	if m.Eff < 0.909 || m.Eff > 0.91 {
		t.Fatalf("eff = %f, want ~0.909", m.Eff)
	}
}

func TestComputeDiffClampsAtZero(t *testing.T) {
	// Fewer keystrokes than committed characters: drift clamps to zero.
	m := Compute(120, 30, 100)
	if m.Diff != 0 {
		t.Fatalf("diff = %d, want 0", m.Diff)
	}
	if m.Eff <= 1 {
		t.Fatalf("eff = %f, expected >1 passthrough", m.Eff)
	}
}

func TestComputeZeroKeystrokesZeroEff(t *testing.T) {
	m := Compute(10, 60, 0)
	if m.Eff != 0 {
		t.Fatalf("eff = %f, want 0", m.Eff)
	}
}

func TestComputeMonotonicInTypedLength(t *testing.T) {
	prev := -1
	for typed := 0; typed <= 500; typed += 25 {
		m := Compute(typed, 47.5, 600)
		if m.CPM < prev {
			t.Fatalf("cpm decreased at typed=%d: %d < %d", typed, m.CPM, prev)
		}
		prev = m.CPM
	}
}

func TestClassifyThresholdOrder(t *testing.T) {
	cases := []struct {
		cpm  int
		eff  float64
		want model.Rank
	}{
		{420, 0.92, model.RankSSS},
		// SSS speed with a failed efficiency floor falls through to SS.
		{420, 0.90, model.RankSS},
		{420, 0.80, model.RankA},
		{360, 0.89, model.RankSS},
		{360, 0.80, model.RankA},
		{320, 0.84, model.RankS},
		{260, 0.78, model.RankA},
		{200, 0.72, model.RankB},
		{150, 0.0, model.RankC},
		{149, 0.99, model.RankD},
		{0, 0, model.RankD},
	}
	for _, tc := range cases {
		if got := Classify(tc.cpm, tc.eff); got != tc.want {
			t.Errorf("Classify(%d, %.2f) = %s, want %s", tc.cpm, tc.eff, got, tc.want)
		}
	}
}

func TestClassifyIsTotal(t *testing.T) {
	valid := map[model.Rank]bool{
		model.RankD: true, model.RankC: true, model.RankB: true,
		model.RankA: true, model.RankS: true, model.RankSS: true,
		model.RankSSS: true,
	}
	for cpm := 0; cpm <= 500; cpm += 10 {
		for eff := 0.0; eff <= 1.0; eff += 0.05 {
			if !valid[Classify(cpm, eff)] {
				t.Fatalf("Classify(%d, %.2f) returned unknown rank", cpm, eff)
			}
		}
	}
}

func TestScoreBaseline(t *testing.T) {
	// 300 + (300/330)*100 - 30*0.3 = 381.9...
	if got := Score(300, 330); got != 382 {
		t.Fatalf("score = %d, want 382", got)
	}
}

func TestScoreZeroKeystrokesGuard(t *testing.T) {
	if got := Score(100, 0); got != 130 {
		// 100 + 0 - (0-100)*0.3 = 130.
		t.Fatalf("score = %d, want 130", got)
	}
}
