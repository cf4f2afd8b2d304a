package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/entrhq/autoapply/pkg/autofill"
	"github.com/entrhq/autoapply/pkg/dom"
	"github.com/entrhq/autoapply/pkg/jobpost"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
)

func postingLine(p jobpost.Posting) string {
	line := titleStyle.Render(p.Title)
	if p.Company != "" {
		line += subtleStyle.Render(" at ") + p.Company
	}
	if p.Location != "" {
		line += subtleStyle.Render(" ("+p.Location+")")
	}
	return line
}

// printStatus is the plain, non-TUI status consumer.
func printStatus(s autofill.Status) {
	marker := okStyle.Render("•")
	switch {
	case s.Err:
		marker = errorStyle.Render("✗")
	case s.ValidationErrors:
		marker = warnStyle.Render("!")
	}
	fmt.Printf("%s step %d  %s %s\n",
		marker, s.Step, s.Message,
		subtleStyle.Render(fmt.Sprintf("(filled %d)", s.Filled)))
}

type statusMsg autofill.Status

type doneMsg struct {
	res *autofill.RunResult
	err error
}

// watchModel renders a single-line live view over the status stream.
type watchModel struct {
	spinner spinner.Model
	events  <-chan tea.Msg
	abort   func()

	last     autofill.Status
	res      *autofill.RunResult
	runErr   error
	finished bool
}

func newWatchModel(events <-chan tea.Msg, abort func()) watchModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle
	return watchModel{spinner: sp, events: events, abort: abort}
}

func waitForEvent(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg { return <-events }
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.events))
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case statusMsg:
		m.last = autofill.Status(msg)
		return m, waitForEvent(m.events)
	case doneMsg:
		m.res = msg.res
		m.runErr = msg.err
		m.finished = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			// The run stops at the next step boundary and delivers
			// doneMsg, which quits the program.
			m.abort()
		}
		return m, nil
	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
}

func (m watchModel) View() string {
	if m.finished {
		return m.summaryView()
	}
	line := fmt.Sprintf("%s step %d  %s %s",
		m.spinner.View(), m.last.Step, m.last.Message,
		subtleStyle.Render(fmt.Sprintf("filled %d", m.last.Filled)))
	return line + "\n" + subtleStyle.Render("press q to stop at the next step") + "\n"
}

func (m watchModel) summaryView() string {
	if m.res == nil {
		return errorStyle.Render("run ended without a result") + "\n"
	}
	style := okStyle
	if m.runErr != nil {
		style = errorStyle
	}
	line := fmt.Sprintf("%s  %d step(s), %d field(s) filled",
		style.Render(m.res.State.String()), m.res.StepsCompleted, m.res.TotalFilled)
	if m.runErr != nil {
		line += "\n" + errorStyle.Render(m.runErr.Error())
	}
	return line + "\n"
}

// runWatched drives the orchestrator under a live TUI and returns its
// result once the run reaches a terminal state.
func runWatched(ctx context.Context, doc dom.Document, plan autofill.Plan, opts []autofill.Option) (*autofill.RunResult, *autofill.Orchestrator, error) {
	events := make(chan tea.Msg, 32)

	opts = append(opts, autofill.WithStatus(func(s autofill.Status) {
		// Status callbacks must never block the engine.
		select {
		case events <- statusMsg(s):
		default:
		}
	}))
	o := autofill.New(doc, plan, opts...)

	go func() {
		res, err := o.Run(ctx)
		events <- doneMsg{res: res, err: err}
	}()

	final, err := tea.NewProgram(newWatchModel(events, o.Abort)).Run()
	if err != nil {
		return nil, o, fmt.Errorf("status view: %w", err)
	}
	m, ok := final.(watchModel)
	if !ok {
		return nil, o, fmt.Errorf("status view returned unexpected model")
	}
	return m.res, o, m.runErr
}
