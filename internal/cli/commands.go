package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/gravadigital/smartpolls/internal/aggregate"
	"github.com/gravadigital/smartpolls/internal/domain/poll"
	"github.com/gravadigital/smartpolls/internal/repository"
	"github.com/gravadigital/smartpolls/internal/transport"
	"github.com/gravadigital/smartpolls/internal/validation"
	"github.com/gravadigital/smartpolls/internal/view"
)

// maxFormOptions is the option limit of the create form
const maxFormOptions = 6

func (a *App) create(ctx context.Context, args []string) int {
	var question string
	var options stringList

	fs := a.newFlagSet("create")
	fs.StringVar(&question, "q", "", "Poll question")
	fs.Var(&options, "o", "Option text (repeat for each option)")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	form := validation.NewPollValidation(maxFormOptions)
	if err := form.ValidatePoll(question, options); err != nil {
		fmt.Fprintln(a.errOut, a.style.failure.Render(err.Error()))
		return ExitUsage
	}

	created, err := a.svc.Polls.CreatePoll(ctx, repository.CreatePollInput{
		Question: question,
		Options:  options,
	})
	if err != nil {
		return a.fail(err)
	}

	fmt.Fprintln(a.out, a.style.success.Render("Poll created!"))
	a.printPoll(created)
	return ExitOK
}

func (a *App) list(ctx context.Context, args []string) int {
	if err := a.exactArgs("list", args, 0); err != nil {
		return a.fail(err)
	}

	v := view.NewDashboardView(a.svc.Polls, a.svc.Results)
	defer v.Close()

	state, ok := navigateState(ctx, v, "")
	if !ok {
		return ExitFailure
	}
	if state.Err != nil {
		return a.fail(state.Err)
	}

	if len(state.Value) == 0 {
		fmt.Fprintln(a.out, a.style.title.Render("No polls yet"))
		fmt.Fprintln(a.out, "Create your first poll to see it listed here.")
		return ExitOK
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "POLL ID\tQUESTION\tVOTES\tCREATED")
	unavailable := 0
	for _, entry := range state.Value {
		votes := "?"
		if entry.ResultsErr == nil {
			votes = humanize.Comma(int64(entry.TotalVotes))
		} else {
			unavailable++
			a.log.Warn("Results unavailable", "poll_id", entry.Poll.ID, "error", entry.ResultsErr)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			entry.Poll.ID,
			aggregate.TruncateLabel(entry.Poll.Question, 40),
			votes,
			relativeDate(entry.Poll.CreatedAt, time.Now()),
		)
	}
	_ = tw.Flush()

	if unavailable > 0 {
		fmt.Fprintln(a.errOut, a.style.failure.Render(
			fmt.Sprintf("Could not load vote totals for %d poll(s); shown as ?.", unavailable)))
	}
	return ExitOK
}

func (a *App) show(ctx context.Context, args []string) int {
	if err := a.exactArgs("show", args, 1); err != nil {
		return a.fail(err)
	}

	p, code := a.loadPoll(ctx, args[0])
	if p == nil {
		return code
	}

	a.printPoll(p)
	return ExitOK
}

func (a *App) vote(ctx context.Context, args []string) int {
	if err := a.exactArgs("vote", args, 2); err != nil {
		return a.fail(err)
	}

	p, code := a.loadPoll(ctx, args[0])
	if p == nil {
		return code
	}

	optionID, err := resolveOption(p, args[1])
	if err != nil {
		return a.fail(err)
	}

	outcome, err := a.svc.Results.Vote(ctx, p.ID, optionID)
	if err != nil {
		return a.fail(err)
	}

	switch {
	case outcome.OK:
		fmt.Fprintln(a.out, a.style.success.Render(MsgVoteSubmitted))
		return ExitOK
	case outcome.Reason == poll.ReasonAlreadyVoted:
		fmt.Fprintln(a.out, MsgAlreadyVoted)
		return ExitOK
	default:
		a.log.Debug("Vote rejected", "poll_id", p.ID, "reason", outcome.Reason)
		fmt.Fprintln(a.errOut, a.style.failure.Render(MsgVoteFailed))
		return ExitFailure
	}
}

func (a *App) results(ctx context.Context, args []string) int {
	if err := a.exactArgs("results", args, 1); err != nil {
		return a.fail(err)
	}

	v := view.NewResultsView(a.svc.Polls, a.svc.Results)
	defer v.Close()

	state, ok := navigateState(ctx, v, args[0])
	if !ok {
		return ExitFailure
	}
	if isNotFound(state.Err) {
		return a.notFound()
	}
	if state.Err != nil {
		return a.fail(state.Err)
	}

	page := state.Value
	fmt.Fprintln(a.out, a.style.title.Render(page.Poll.Question))
	fmt.Fprintln(a.out, a.style.muted.Render(fmt.Sprintf("Total votes: %d", page.Summary.TotalVotes)))

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, tally := range page.Summary.Tallies {
		line := fmt.Sprintf("%s\t%d\t%d%%", tally.Label, tally.Votes, tally.Percentage)
		if tally.Label != tally.Text {
			line += "\t" + tally.Text
		}
		fmt.Fprintln(tw, line)
	}
	_ = tw.Flush()
	return ExitOK
}

func (a *App) deletePoll(ctx context.Context, args []string) int {
	if err := a.exactArgs("delete", args, 1); err != nil {
		return a.fail(err)
	}

	if err := a.svc.Polls.DeletePoll(ctx, args[0]); err != nil {
		return a.fail(err)
	}

	fmt.Fprintln(a.out, a.style.success.Render("Poll deleted."))
	return ExitOK
}

func (a *App) whoami(ctx context.Context, args []string) int {
	if err := a.exactArgs("whoami", args, 0); err != nil {
		return a.fail(err)
	}

	id, err := a.svc.Voter.VoterID(ctx)
	if err != nil {
		return a.fail(err)
	}

	fmt.Fprintf(a.out, "Voter ID: %s\n", id)
	if a.svc.VoterStore != "" {
		fmt.Fprintln(a.out, a.style.muted.Render("Stored in: "+a.svc.VoterStore))
	}
	if a.svc.APIURL != "" {
		fmt.Fprintln(a.out, a.style.muted.Render("API: "+a.svc.APIURL))
	}
	return ExitOK
}

// loadPoll fetches a poll through the vote page view. A nil poll means the
// returned exit code should be used.
func (a *App) loadPoll(ctx context.Context, pollID string) (*poll.Poll, int) {
	v := view.NewPollView(a.svc.Polls)
	defer v.Close()

	state, ok := navigateState(ctx, v, pollID)
	if !ok {
		return nil, ExitFailure
	}
	if isNotFound(state.Err) {
		return nil, a.notFound()
	}
	if state.Err != nil {
		return nil, a.fail(state.Err)
	}
	return state.Value, ExitOK
}

// navigateState runs a single navigation and returns its applied state
func navigateState[T any](ctx context.Context, v *view.View[T], target string) (view.State[T], bool) {
	if !v.Navigate(ctx, target) {
		return view.State[T]{}, false
	}
	return v.State()
}

func (a *App) printPoll(p *poll.Poll) {
	fmt.Fprintln(a.out, a.style.title.Render(p.Question))
	fmt.Fprintln(a.out, a.style.muted.Render(fmt.Sprintf("Poll ID: %s  Created: %s", p.ID, formatDate(p.CreatedAt))))
	for i, opt := range p.Options {
		fmt.Fprintf(a.out, "  %d) %s  %s\n", i+1, opt.Text, a.style.muted.Render("["+opt.ID+"]"))
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrPollNotFound) || errors.Is(err, transport.ErrNotFound)
}

// resolveOption accepts an option id or a 1-based option number
func resolveOption(p *poll.Poll, arg string) (string, error) {
	if opt, ok := p.Option(arg); ok {
		return opt.ID, nil
	}
	if n, err := strconv.Atoi(arg); err == nil && n >= 1 && n <= len(p.Options) {
		return p.Options[n-1].ID, nil
	}
	return "", fmt.Errorf("unknown option %q: use an option id or a number from 1 to %d", arg, len(p.Options))
}

// formatDate renders a creation timestamp in local time; unparsable values
// are shown as received
func formatDate(createdAt string) string {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(createdAt))
	if err != nil {
		return createdAt
	}
	return t.Local().Format("2006-01-02 15:04")
}

// relativeDate renders a creation timestamp relative to now, for the dashboard
func relativeDate(createdAt string, now time.Time) string {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(createdAt))
	if err != nil {
		return createdAt
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
