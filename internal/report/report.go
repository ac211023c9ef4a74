package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/ryotaka/kanasprint/internal/model"
)

const sparkChars = " .:-=+*#%@"

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderBoard prints one leaderboard partition as a ranked table.
func RenderBoard(w io.Writer, title string, entries []model.BoardEntry) error {
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No entries yet.")
		return err
	}
	headers := []string{"#", "Player", "Rank", "Score", "CPM", "KPM", "WPM", "Eff", "Diff"}
	rows := make([][]string, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			e.Player,
			string(e.Rank),
			fmt.Sprintf("%d", e.Score),
			fmt.Sprintf("%d", e.CPM),
			fmt.Sprintf("%d", e.KPM),
			fmt.Sprintf("%d", e.WPM),
			fmt.Sprintf("%.4f", e.Eff),
			fmt.Sprintf("%d", e.Diff),
		})
	}
	rightAlign := map[int]bool{0: true, 3: true, 4: true, 5: true, 6: true, 7: true, 8: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderHistory prints an actor's recent rounds with summary aggregates and
// a CPM learning curve. The entries arrive newest first.
func RenderHistory(w io.Writer, entries []model.HistoryEntry, curveWindow int) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No rounds recorded yet.")
		return err
	}

	var totalCPM, totalEff float64
	bestCPM := 0
	for _, e := range entries {
		totalCPM += float64(e.CPM)
		totalEff += e.Eff
		if e.CPM > bestCPM {
			bestCPM = e.CPM
		}
	}
	count := float64(len(entries))
	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Rounds: %d\n", len(entries)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Avg CPM: %.2f\n", totalCPM/count); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Best CPM: %d\n", bestCPM); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Avg Eff: %.2f%%\n", totalEff/count*100); err != nil {
		return err
	}

	// Oldest-first for the curve.
	cpms := make([]float64, len(entries))
	for i, e := range entries {
		cpms[len(entries)-1-i] = float64(e.CPM)
	}
	curve := MovingAverage(cpms, curveWindow)
	if _, err := fmt.Fprintf(w, "CPM curve: %s\n\n", Sparkline(curve)); err != nil {
		return err
	}

	headers := []string{"When", "Rank", "Score", "CPM", "KPM", "WPM", "Eff", "Category", "Theme"}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.CreatedAt.Format("2006-01-02 15:04"),
			string(e.Rank),
			fmt.Sprintf("%d", e.Score),
			fmt.Sprintf("%d", e.CPM),
			fmt.Sprintf("%d", e.KPM),
			fmt.Sprintf("%d", e.WPM),
			fmt.Sprintf("%.4f", e.Eff),
			e.Category,
			e.Theme,
		})
	}
	rightAlign := map[int]bool{2: true, 3: true, 4: true, 5: true, 6: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
