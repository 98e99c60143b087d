// Package cli implements pollctl, a terminal front end for the polls API.
// Each subcommand mirrors one page of the web client.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/gravadigital/smartpolls/internal/domain/poll"
	"github.com/gravadigital/smartpolls/internal/logger"
	"github.com/gravadigital/smartpolls/internal/repository"
	"github.com/gravadigital/smartpolls/internal/view"
)

// Exit codes
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// User facing vote messages
const (
	MsgVoteSubmitted = "Vote submitted!"
	MsgAlreadyVoted  = "You already voted on this poll (on this device)."
	MsgVoteFailed    = "Could not submit vote."
)

var errUsage = errors.New("usage")

// PollService is the poll repository as used by the CLI
type PollService interface {
	view.PollReader
	CreatePoll(ctx context.Context, input repository.CreatePollInput) (*poll.Poll, error)
	DeletePoll(ctx context.Context, pollID string) error
}

// ResultsService is the results repository as used by the CLI
type ResultsService interface {
	view.ResultsReader
	Vote(ctx context.Context, pollID, optionID string) (poll.VoteOutcome, error)
}

// VoterIDSource provides the device voter ID
type VoterIDSource interface {
	VoterID(ctx context.Context) (string, error)
}

// Services bundles the collaborators of the CLI
type Services struct {
	Polls   PollService
	Results ResultsService
	Voter   VoterIDSource
	// VoterStore describes where the voter ID lives, for whoami
	VoterStore string
	// APIURL is the backend origin, for whoami
	APIURL string
}

// App runs pollctl subcommands
type App struct {
	svc    Services
	out    io.Writer
	errOut io.Writer
	style  styles
	log    *log.Logger
}

type styles struct {
	title   lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title:   r.NewStyle().Bold(true),
		muted:   r.NewStyle().Faint(true),
		success: r.NewStyle().Foreground(lipgloss.Color("2")),
		failure: r.NewStyle().Foreground(lipgloss.Color("1")),
	}
}

// New creates an App writing results to out and problems to errOut
func New(svc Services, out, errOut io.Writer) *App {
	return &App{
		svc:    svc,
		out:    out,
		errOut: errOut,
		style:  newStyles(out),
		log:    logger.CLI(),
	}
}

type command struct {
	name    string
	usage   string
	summary string
	run     func(a *App, ctx context.Context, args []string) int
}

// commandTable lists the subcommands in help order
func commandTable() []command {
	return []command{
		{"create", "create -q QUESTION -o OPTION -o OPTION...", "Create a poll", (*App).create},
		{"list", "list", "List polls, newest first", (*App).list},
		{"show", "show POLL_ID", "Show a poll and its options", (*App).show},
		{"vote", "vote POLL_ID OPTION_ID|NUMBER", "Vote once from this device", (*App).vote},
		{"results", "results POLL_ID", "Show vote counts and percentages", (*App).results},
		{"delete", "delete POLL_ID", "Delete a poll", (*App).deletePoll},
		{"whoami", "whoami", "Print this device's voter ID", (*App).whoami},
	}
}

// Run executes the subcommand named by args[0] and returns the exit code
func (a *App) Run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		a.usage()
		return ExitUsage
	}

	name := args[0]
	if name == "help" || name == "-h" || name == "--help" {
		a.usage()
		return ExitOK
	}

	for _, cmd := range commandTable() {
		if cmd.name == name {
			a.log.Debug("Running command", "command", name, "args", args[1:])
			return cmd.run(a, ctx, args[1:])
		}
	}

	fmt.Fprintf(a.errOut, "unknown command %q\n\n", name)
	a.usage()
	return ExitUsage
}

func (a *App) usage() {
	fmt.Fprintln(a.errOut, "Usage: pollctl [-api URL] COMMAND [ARGS]")
	fmt.Fprintln(a.errOut)
	fmt.Fprintln(a.errOut, "Commands:")
	for _, cmd := range commandTable() {
		fmt.Fprintf(a.errOut, "  %-44s %s\n", cmd.usage, cmd.summary)
	}
}

// fail prints err and returns the matching exit code
func (a *App) fail(err error) int {
	if errors.Is(err, errUsage) {
		return ExitUsage
	}
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(a.errOut, "Cancelled.")
		return ExitFailure
	}

	a.log.Debug("Command failed", "error", err)
	fmt.Fprintln(a.errOut, a.style.failure.Render(err.Error()))
	return ExitFailure
}

// notFound prints the missing poll page
func (a *App) notFound() int {
	fmt.Fprintln(a.errOut, a.style.title.Render("Poll not found"))
	fmt.Fprintln(a.errOut, "This poll ID doesn't exist (or was deleted).")
	return ExitFailure
}

// newFlagSet returns a flag set that reports errors to errOut
func (a *App) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

// exactArgs checks the positional argument count of a command
func (a *App) exactArgs(name string, args []string, n int) error {
	if len(args) == n {
		return nil
	}
	for _, cmd := range commandTable() {
		if cmd.name == name {
			fmt.Fprintf(a.errOut, "Usage: pollctl %s\n", cmd.usage)
		}
	}
	return errUsage
}

// stringList collects a repeatable string flag
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ", ")
}

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}
