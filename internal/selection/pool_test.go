package selection

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/ryotaka/kanasprint/internal/model"
)

func passages(n int) []model.Passage {
	out := make([]model.Passage, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, model.Passage{
			Text:       fmt.Sprintf("passage %d", i),
			Difficulty: model.DifficultyNormal,
			Category:   "general",
			Theme:      "general",
		})
	}
	return out
}

func TestRecentPoolBounded(t *testing.T) {
	pool := NewRecentPool()
	for i := 0; i < 25; i++ {
		pool.Remember(fmt.Sprintf("text %d", i))
	}
	if pool.Len() != RecentSize {
		t.Fatalf("len = %d, want %d", pool.Len(), RecentSize)
	}
	if pool.Has("text 0") {
		t.Fatalf("oldest entry should have been evicted")
	}
	if !pool.Has("text 24") {
		t.Fatalf("newest entry missing")
	}
}

func TestPickExcludesRecentWhenPoolLargeEnough(t *testing.T) {
	all := passages(11)
	for i := 0; i < 50; i++ {
		// Exactly one fresh candidate remains; it must always win.
		pool := NewRecentPool()
		for j := 0; j < 10; j++ {
			pool.Remember(all[j].Text)
		}
		picker := NewPickerWithSource(pool, rand.NewSource(int64(i)))
		got, ok := picker.Pick(all, model.FilterContext{})
		if !ok {
			t.Fatalf("expected a pick")
		}
		if got.Text != all[10].Text {
			t.Fatalf("picked recent passage %q", got.Text)
		}
	}
}

func TestPickFallsBackWhenAllRecent(t *testing.T) {
	pool := NewRecentPool()
	picker := NewPickerWithSource(pool, rand.NewSource(7))
	all := passages(3)
	for _, p := range all {
		pool.Remember(p.Text)
	}
	if _, ok := picker.Pick(all, model.FilterContext{}); !ok {
		t.Fatalf("expected fallback to the full pool, got nothing")
	}
}

func TestPickEmptyFilterResult(t *testing.T) {
	picker := NewPickerWithSource(NewRecentPool(), rand.NewSource(7))
	all := passages(5)
	_, ok := picker.Pick(all, model.FilterContext{Difficulty: model.DifficultyHard})
	if ok {
		t.Fatalf("expected no pick for unmatched filter")
	}
}

func TestFilterDimensions(t *testing.T) {
	all := []model.Passage{
		{Text: "a", Difficulty: model.DifficultyEasy, Category: "news", Theme: "spring"},
		{Text: "b", Difficulty: model.DifficultyHard, Category: "news", Theme: "winter"},
		{Text: "c", Difficulty: model.DifficultyEasy, Category: "poetry", Theme: "winter"},
	}
	cases := []struct {
		name string
		fc   model.FilterContext
		want []string
	}{
		{"all", model.FilterContext{}, []string{"a", "b", "c"}},
		{"difficulty", model.FilterContext{Difficulty: model.DifficultyEasy}, []string{"a", "c"}},
		{"category", model.FilterContext{Category: "news"}, []string{"a", "b"}},
		{"theme", model.FilterContext{Theme: "winter"}, []string{"b", "c"}},
		{"daily overrides theme", model.FilterContext{Theme: "winter", DailyActive: true, DailyTheme: "spring"}, []string{"a"}},
		{"combined", model.FilterContext{Difficulty: model.DifficultyEasy, Category: "poetry"}, []string{"c"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Filter(all, tc.fc)
			if len(got) != len(tc.want) {
				t.Fatalf("got %d passages, want %d", len(got), len(tc.want))
			}
			for i, p := range got {
				if p.Text != tc.want[i] {
					t.Fatalf("got[%d] = %q, want %q", i, p.Text, tc.want[i])
				}
			}
		})
	}
}
