package poll

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReason(t *testing.T) {
	tests := []struct {
		code string
		want Reason
	}{
		{"ALREADY_VOTED", ReasonAlreadyVoted},
		{"INVALID_OPTION", ReasonInvalidOption},
		{"POLL_NOT_FOUND", ReasonPollNotFound},
		{"UNKNOWN", ReasonUnknown},
		{"RATE_LIMITED", ReasonUnknown},
		{"already_voted", ReasonUnknown},
		{"", ReasonUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseReason(tt.code))
		})
	}
}

func TestReasonStringNeverLeaksUnknownCodes(t *testing.T) {
	assert.Equal(t, "UNKNOWN", Reason(42).String())
	assert.Equal(t, "ALREADY_VOTED", ReasonAlreadyVoted.String())
}

func TestReasonJSON(t *testing.T) {
	var got struct {
		Reason Reason `json:"reason"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"reason":"Something new"}`), &got))
	assert.Equal(t, ReasonUnknown, got.Reason)

	out, err := json.Marshal(struct {
		Reason Reason `json:"reason"`
	}{ReasonInvalidOption})
	require.NoError(t, err)
	assert.JSONEq(t, `{"reason":"INVALID_OPTION"}`, string(out))
}

func TestResultsCountFor(t *testing.T) {
	r := &Results{PollID: "p", Votes: map[string]int{"a": 3}}
	assert.Equal(t, 3, r.CountFor("a"))
	assert.Equal(t, 0, r.CountFor("b"))

	var missing *Results
	assert.Equal(t, 0, missing.CountFor("a"))
}

func TestPollValidate(t *testing.T) {
	valid := Poll{
		ID:       "p1",
		Question: "Lunch?",
		Options:  []Option{{ID: "a", Text: "Pizza"}, {ID: "b", Text: "Sushi"}},
	}
	assert.NoError(t, valid.Validate())

	tooFew := valid
	tooFew.Options = valid.Options[:1]
	assert.Error(t, tooFew.Validate())

	dup := valid
	dup.Options = []Option{{ID: "a", Text: "Pizza"}, {ID: "a", Text: "Sushi"}}
	assert.ErrorContains(t, dup.Validate(), "duplicate option id")
}

func TestPollOption(t *testing.T) {
	p := Poll{Options: []Option{{ID: "a", Text: "Pizza"}}}
	opt, ok := p.Option("a")
	assert.True(t, ok)
	assert.Equal(t, "Pizza", opt.Text)

	_, ok = p.Option("zzz")
	assert.False(t, ok)
}
