// Package corpus loads and tags transcription passages.
package corpus

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/BurntSushi/toml"

	"github.com/ryotaka/kanasprint/internal/model"
)

// Full- and half-width sentence punctuation counted toward difficulty.
const punctuationClass = "、。，．！？,.!?"

const (
	punctuationWeight = 6
	katakanaWeight    = 80
	easyMaxScore      = 145
	normalMaxScore    = 190
)

const defaultLabel = "general"

type fileRecord struct {
	Text     string `toml:"text"`
	Category string `toml:"category"`
	Theme    string `toml:"theme"`
	Length   int    `toml:"length"`
}

type corpusFile struct {
	Passages []fileRecord `toml:"passages"`
}

// Corpus is the immutable set of tagged passages.
type Corpus struct {
	passages []model.Passage
}

// LoadFile decodes a TOML corpus. The parse is all-or-nothing: a decode
// error or an empty result fails the load. Records without text are dropped.
func LoadFile(path string) (*Corpus, error) {
	var file corpusFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("failed to decode corpus: %w", err)
	}
	return fromRecords(file.Passages)
}

func fromRecords(records []fileRecord) (*Corpus, error) {
	passages := make([]model.Passage, 0, len(records))
	for _, rec := range records {
		text := strings.TrimSpace(rec.Text)
		if text == "" {
			continue
		}
		passages = append(passages, Tag(text, rec.Category, rec.Theme, rec.Length))
	}
	if len(passages) == 0 {
		return nil, fmt.Errorf("corpus is empty")
	}
	return &Corpus{passages: passages}, nil
}

// Tag derives the frozen passage metadata from raw text. The difficulty
// score and label are computed once here and never recomputed.
func Tag(text, category, theme string, lengthOverride int) model.Passage {
	length := utf8.RuneCountInString(text)
	if lengthOverride > 0 {
		length = lengthOverride
	}
	punct := countPunctuation(text)
	ratio := katakanaRatio(text)
	score := int(math.Round(float64(length) + float64(punct)*punctuationWeight + ratio*katakanaWeight))
	if category == "" {
		category = defaultLabel
	}
	if theme == "" {
		theme = defaultLabel
	}
	return model.Passage{
		Text:             text,
		Length:           length,
		PunctuationCount: punct,
		KatakanaRatio:    ratio,
		Difficulty:       difficultyFor(score),
		Category:         category,
		Theme:            theme,
		Score:            score,
	}
}

func difficultyFor(score int) model.Difficulty {
	switch {
	case score <= easyMaxScore:
		return model.DifficultyEasy
	case score <= normalMaxScore:
		return model.DifficultyNormal
	default:
		return model.DifficultyHard
	}
}

func countPunctuation(text string) int {
	count := 0
	for _, r := range text {
		if strings.ContainsRune(punctuationClass, r) {
			count++
		}
	}
	return count
}

// katakanaRatio is katakana over all letters and digits (alphanumerics,
// kana, and kanji), zero when the text has none.
func katakanaRatio(text string) float64 {
	katakana := 0
	total := 0
	for _, r := range text {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		total++
		if unicode.Is(unicode.Katakana, r) {
			katakana++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(katakana) / float64(total)
}

// Passages returns all tagged passages.
func (c *Corpus) Passages() []model.Passage {
	return c.passages
}

// Themes returns the distinct passage themes, stably sorted.
func (c *Corpus) Themes() []string {
	seen := map[string]struct{}{}
	var themes []string
	for _, p := range c.passages {
		if _, ok := seen[p.Theme]; ok {
			continue
		}
		seen[p.Theme] = struct{}{}
		themes = append(themes, p.Theme)
	}
	sort.Strings(themes)
	return themes
}

// Categories returns the distinct passage categories, stably sorted.
func (c *Corpus) Categories() []string {
	seen := map[string]struct{}{}
	var categories []string
	for _, p := range c.passages {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		categories = append(categories, p.Category)
	}
	sort.Strings(categories)
	return categories
}
