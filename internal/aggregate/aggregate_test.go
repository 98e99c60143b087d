package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gravadigital/smartpolls/internal/domain/poll"
)

var options = []poll.Option{
	{ID: "a", Text: "Pizza"},
	{ID: "b", Text: "Sushi"},
	{ID: "c", Text: "A remarkably long option label"},
}

func TestSummarizeOneTwo(t *testing.T) {
	s := Summarize(options[:2], &poll.Results{PollID: "p", Votes: map[string]int{"a": 1, "b": 2}})

	assert.Equal(t, 3, s.TotalVotes)
	assert.Equal(t, 33, s.Tallies[0].Percentage)
	assert.Equal(t, 67, s.Tallies[1].Percentage)
}

func TestSummarizeZeroVotes(t *testing.T) {
	for _, results := range []*poll.Results{
		nil,
		{PollID: "p"},
		{PollID: "p", Votes: map[string]int{}},
	} {
		s := Summarize(options, results)
		assert.Zero(t, s.TotalVotes)
		for _, tally := range s.Tallies {
			assert.Zero(t, tally.Votes)
			assert.Zero(t, tally.Percentage)
		}
	}
}

func TestSummarizeKeepsOptionOrderAndAbsentAsZero(t *testing.T) {
	s := Summarize(options, &poll.Results{Votes: map[string]int{"c": 4}})

	assert.Equal(t, []string{"a", "b", "c"}, []string{s.Tallies[0].OptionID, s.Tallies[1].OptionID, s.Tallies[2].OptionID})
	assert.Equal(t, 0, s.Tallies[0].Votes)
	assert.Equal(t, 100, s.Tallies[2].Percentage)
}

func TestSummarizeCountsVotesForUnlistedOptions(t *testing.T) {
	s := Summarize(options[:1], &poll.Results{Votes: map[string]int{"a": 1, "gone": 1}})
	assert.Equal(t, 2, s.TotalVotes)
	assert.Equal(t, 50, s.Tallies[0].Percentage)
}

func TestPercentagesMayNotSumTo100(t *testing.T) {
	s := Summarize(options, &poll.Results{Votes: map[string]int{"a": 1, "b": 1, "c": 1}})

	sum := 0
	for _, tally := range s.Tallies {
		assert.Equal(t, 33, tally.Percentage)
		sum += tally.Percentage
	}
	assert.Equal(t, 99, sum)
}

func TestPercentageRoundsHalfUp(t *testing.T) {
	assert.Equal(t, 50, Percentage(1, 2))
	assert.Equal(t, 13, Percentage(1, 8)) // 12.5
	assert.Equal(t, 38, Percentage(3, 8)) // 37.5
	assert.Equal(t, 0, Percentage(1, 201))
	assert.Equal(t, 1, Percentage(1, 200)) // 0.5
	assert.Equal(t, 100, Percentage(7, 7))
	assert.Equal(t, 0, Percentage(5, 0))
}

func TestPercentageUsesExactHalves(t *testing.T) {
	// 7/40 is 17.5 exactly; float math can land just below the half
	assert.Equal(t, 18, Percentage(7, 40))
	assert.Equal(t, 29, Percentage(2, 7)) // 28.57
}

func TestTruncateLabel(t *testing.T) {
	assert.Equal(t, "Pizza", TruncateLabel("Pizza", DefaultLabelWidth))
	assert.Equal(t, "exactly eighteen!!", TruncateLabel("exactly eighteen!!", DefaultLabelWidth))
	assert.Equal(t, "A remarkably long …", TruncateLabel("A remarkably long option label", DefaultLabelWidth))
	assert.Equal(t, "ñandú…", TruncateLabel("ñandú feliz", 5))
	assert.Equal(t, "anything", TruncateLabel("anything", 0))
}

func TestSummaryKeepsFullText(t *testing.T) {
	s := Summarize(options, nil)
	assert.Equal(t, "A remarkably long option label", s.Tallies[2].Text)
	assert.Equal(t, "A remarkably long …", s.Tallies[2].Label)
}
