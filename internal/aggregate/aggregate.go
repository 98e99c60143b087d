// Package aggregate derives display numbers from poll results. All
// functions are pure.
package aggregate

import (
	"github.com/gravadigital/smartpolls/internal/domain/poll"
)

// DefaultLabelWidth is the number of characters kept by compact labels
const DefaultLabelWidth = 18

const ellipsis = "…"

// Tally is the display row of one option
type Tally struct {
	OptionID   string
	Text       string // full option text
	Label      string // Text truncated for compact display
	Votes      int
	Percentage int
}

// Summary is the aggregated view of a poll's results
type Summary struct {
	TotalVotes int
	Tallies    []Tally // in poll option order
}

// TotalVotes sums every count in the results
func TotalVotes(results *poll.Results) int {
	if results == nil {
		return 0
	}
	total := 0
	for _, count := range results.Votes {
		total += count
	}
	return total
}

// Percentage returns round(count/total*100) rounding halves up, and 0 when
// total is 0. Percentages of a poll are rounded independently and may not
// add up to exactly 100.
func Percentage(count, total int) int {
	if total <= 0 || count <= 0 {
		return 0
	}
	// floor(x + 0.5) in integer arithmetic: (200*count + total) / (2*total)
	return (200*count + total) / (2 * total)
}

// Summarize builds per-option tallies for options in order. Options
// without an entry in results count as zero.
func Summarize(options []poll.Option, results *poll.Results) Summary {
	total := TotalVotes(results)

	tallies := make([]Tally, len(options))
	for i, opt := range options {
		count := results.CountFor(opt.ID)
		tallies[i] = Tally{
			OptionID:   opt.ID,
			Text:       opt.Text,
			Label:      TruncateLabel(opt.Text, DefaultLabelWidth),
			Votes:      count,
			Percentage: Percentage(count, total),
		}
	}

	return Summary{TotalVotes: total, Tallies: tallies}
}

// TruncateLabel shortens text to max runes followed by an ellipsis
func TruncateLabel(text string, max int) string {
	if max <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + ellipsis
}
