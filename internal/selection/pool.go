// Package selection picks the next passage, biasing away from repeats.
package selection

import (
	"math/rand"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ryotaka/kanasprint/internal/model"
)

// RecentSize bounds the recently-served history window.
const RecentSize = 10

// RecentPool remembers the most recently served passage texts. It is only a
// soft exclusion filter for selection.
type RecentPool struct {
	cache *lru.Cache[string, struct{}]
}

// NewRecentPool returns an empty pool.
func NewRecentPool() *RecentPool {
	cache, err := lru.New[string, struct{}](RecentSize)
	if err != nil {
		// Only reachable with a non-positive size constant.
		panic(err)
	}
	return &RecentPool{cache: cache}
}

// Remember records a served passage text.
func (p *RecentPool) Remember(text string) {
	p.cache.Add(text, struct{}{})
}

// Has reports whether the text was served recently.
func (p *RecentPool) Has(text string) bool {
	return p.cache.Contains(text)
}

// Len returns the number of remembered texts.
func (p *RecentPool) Len() int {
	return p.cache.Len()
}

// Picker selects passages matching the active filters.
type Picker struct {
	rnd    *rand.Rand
	recent *RecentPool
}

// NewPicker returns a Picker seeded with the current time.
func NewPicker(recent *RecentPool) *Picker {
	return NewPickerWithSource(recent, rand.NewSource(time.Now().UnixNano()))
}

// NewPickerWithSource returns a Picker with a caller-provided random source.
func NewPickerWithSource(recent *RecentPool, src rand.Source) *Picker {
	return &Picker{rnd: rand.New(src), recent: recent}
}

// Pick selects one passage matching fc, preferring passages outside the
// recent pool. When the exclusion would empty the candidate set it falls
// back to the full filtered pool. Returns false when nothing matches the
// filters at all.
func (p *Picker) Pick(passages []model.Passage, fc model.FilterContext) (model.Passage, bool) {
	filtered := Filter(passages, fc)
	if len(filtered) == 0 {
		return model.Passage{}, false
	}
	fresh := make([]model.Passage, 0, len(filtered))
	for _, passage := range filtered {
		if !p.recent.Has(passage.Text) {
			fresh = append(fresh, passage)
		}
	}
	pool := fresh
	if len(pool) == 0 {
		pool = filtered
	}
	pick := pool[p.rnd.Intn(len(pool))]
	p.recent.Remember(pick.Text)
	return pick, true
}

// Filter returns the passages matching the filter context. The daily theme
// takes precedence over the plain theme filter while active.
func Filter(passages []model.Passage, fc model.FilterContext) []model.Passage {
	var out []model.Passage
	for _, passage := range passages {
		if fc.Difficulty != "" && fc.Difficulty != model.DifficultyAll && passage.Difficulty != fc.Difficulty {
			continue
		}
		if fc.Category != "" && fc.Category != "all" && passage.Category != fc.Category {
			continue
		}
		if fc.DailyActive {
			if fc.DailyTheme != "" && passage.Theme != fc.DailyTheme {
				continue
			}
		} else if fc.Theme != "" && fc.Theme != "all" && passage.Theme != fc.Theme {
			continue
		}
		out = append(out, passage)
	}
	return out
}
