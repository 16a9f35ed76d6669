package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/cxxbind/generator"
	"github.com/wippyai/cxxbind/overload"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateSelectSet modelState = iota
	stateInputArgs
	stateShowResult
)

// visibleRows bounds the overload set list on screen.
const visibleRows = 20

type interactiveModel struct {
	err      error
	chosen   *overload.Candidate
	manifest string
	sets     []overloadSet
	scores   []overload.Score
	nargs    int
	input    textinput.Model
	selected int
	state    modelState
}

func newInteractiveModel(manifest string, plan *generator.Plan) *interactiveModel {
	ti := textinput.New()
	ti.Prompt = "args: "
	ti.Placeholder = `1, 2.5, "text", None`
	ti.Width = 50
	return &interactiveModel{
		manifest: manifest,
		sets:     overloadSets(plan),
		input:    ti,
		state:    stateSelectSet,
	}
}

type resolvedMsg struct {
	err    error
	chosen *overload.Candidate
	scores []overload.Score
	nargs  int
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state != stateInputArgs {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectSet && m.selected > 0 {
				m.selected--
				return m, nil
			}

		case "down", "j":
			if m.state == stateSelectSet && m.selected < len(m.sets)-1 {
				m.selected++
				return m, nil
			}

		case "enter":
			switch m.state {
			case stateSelectSet:
				if len(m.sets) == 0 {
					return m, nil
				}
				m.input.SetValue("")
				m.input.Focus()
				m.state = stateInputArgs
				return m, textinput.Blink

			case stateInputArgs:
				return m, m.resolve

			case stateShowResult:
				m.reset()
				return m, nil
			}

		case "esc":
			switch m.state {
			case stateInputArgs:
				m.input.Blur()
				m.state = stateSelectSet
				return m, nil
			case stateShowResult:
				m.reset()
				return m, nil
			}
		}

	case resolvedMsg:
		m.chosen = msg.chosen
		m.scores = msg.scores
		m.nargs = msg.nargs
		m.err = msg.err
		m.input.Blur()
		m.state = stateShowResult
		return m, nil
	}

	if m.state == stateInputArgs {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *interactiveModel) reset() {
	m.state = stateSelectSet
	m.chosen = nil
	m.scores = nil
	m.err = nil
}

func (m *interactiveModel) resolve() tea.Msg {
	args, err := parseArgs(m.input.Value())
	if err != nil {
		return resolvedMsg{err: err}
	}
	set := m.sets[m.selected].fn.Set
	chosen, err := set.Resolve(args)
	return resolvedMsg{err: err, chosen: chosen, scores: set.Explain(args), nargs: len(args)}
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("cxxbind inspect"))
	b.WriteString(" ")
	b.WriteString(m.manifest)
	b.WriteString("\n\n")

	if len(m.sets) == 0 {
		b.WriteString("No callables declared.\n\n")
		b.WriteString(helpStyle.Render("q quit"))
		return b.String()
	}

	switch m.state {
	case stateSelectSet:
		b.WriteString("Select an overload set:\n\n")
		start := max(0, m.selected-visibleRows+1)
		end := min(len(m.sets), start+visibleRows)
		for i := start; i < end; i++ {
			s := m.sets[i]
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + s.name))
			} else {
				b.WriteString("  " + s.name)
			}
			b.WriteString(" " + typeStyle.Render(fmt.Sprintf("(%d)", s.fn.Set.Len())))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter resolve • q quit"))

	case stateInputArgs:
		s := m.sets[m.selected]
		b.WriteString(fmt.Sprintf("Resolving %s\n\n", funcStyle.Render(s.name)))
		for _, c := range s.fn.Set.Candidates() {
			b.WriteString("  " + m.formatCandidate(c) + "\n")
		}
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter resolve • esc back"))

	case stateShowResult:
		s := m.sets[m.selected]
		b.WriteString(fmt.Sprintf("Resolution of %s(%s):\n\n", funcStyle.Render(s.name), m.input.Value()))
		for _, sc := range m.scores {
			mark := "  "
			if sc.Candidate == m.chosen {
				mark = resultStyle.Render("> ")
			}
			b.WriteString(mark + m.formatCandidate(sc.Candidate) + "  ")
			b.WriteString(scoreText(sc, m.nargs, func(a ...any) string { return errorStyle.Render(fmt.Sprint(a...)) }))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else if m.chosen != nil {
			b.WriteString(resultStyle.Render("calls " + m.chosen.Decl.Symbol()))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func (m *interactiveModel) formatCandidate(c *overload.Candidate) string {
	params := make([]string, 0, len(c.Params))
	for _, p := range c.Params {
		params = append(params, p.Name+": "+typeStyle.Render(p.Mapping.CppType))
	}
	line := funcStyle.Render(c.Decl.Name) + "(" + strings.Join(params, ", ") + ")"
	if r := c.Decl.Result; r != "" && r != "void" {
		line += " -> " + typeStyle.Render(r)
	}
	if c.Synthetic {
		line += helpStyle.Render(" [defaults]")
	}
	return line
}

func runInteractive(manifest string, plan *generator.Plan) error {
	p := tea.NewProgram(newInteractiveModel(manifest, plan), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
