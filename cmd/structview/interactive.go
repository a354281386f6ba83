package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/cstruct/layout"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type viewState int

const (
	stateBrowse viewState = iota
	stateDetail
)

type interactiveModel struct {
	filename string
	all      []*layout.Info
	shown    []*layout.Info
	filter   textinput.Model
	selected int
	state    viewState
}

func newInteractiveModel(filename string, layouts []*layout.Info) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "filter structs"
	ti.Prompt = "/ "
	ti.Width = 40
	ti.Focus()

	return &interactiveModel{
		filename: filename,
		all:      layouts,
		shown:    layouts,
		filter:   ti,
		state:    stateBrowse,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state == stateDetail {
				return m, tea.Quit
			}

		case "up", "ctrl+p":
			if m.state == stateBrowse && m.selected > 0 {
				m.selected--
			}
			return m, nil

		case "down", "ctrl+n":
			if m.state == stateBrowse && m.selected < len(m.shown)-1 {
				m.selected++
			}
			return m, nil

		case "enter":
			if m.state == stateBrowse && len(m.shown) > 0 {
				m.state = stateDetail
				m.filter.Blur()
			}
			return m, nil

		case "esc":
			if m.state == stateDetail {
				m.state = stateBrowse
				m.filter.Focus()
				return m, nil
			}
			if m.filter.Value() != "" {
				m.filter.SetValue("")
				m.applyFilter()
				return m, nil
			}
			return m, tea.Quit
		}
	}

	if m.state != stateBrowse {
		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m *interactiveModel) applyFilter() {
	m.shown = filterLayouts(m.all, strings.TrimSpace(m.filter.Value()))
	if m.selected >= len(m.shown) {
		m.selected = max(len(m.shown)-1, 0)
	}
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Struct Layouts"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	switch m.state {
	case stateBrowse:
		b.WriteString(m.filter.View())
		b.WriteString("\n\n")
		if len(m.shown) == 0 {
			b.WriteString(helpStyle.Render("no matching structs"))
			b.WriteString("\n")
		}
		for i, info := range m.shown {
			line := fmt.Sprintf("%-24s size %-5d align %d", info.Schema.Name(), info.Size, info.Align)
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + nameStyle.Render(line))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("type to filter • ↑/↓ select • enter show • esc quit"))

	case stateDetail:
		b.WriteString(renderStruct(m.shown[m.selected], true))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("esc back • q quit"))
	}

	return b.String()
}

func runInteractive(filename string, layouts []*layout.Info) error {
	p := tea.NewProgram(newInteractiveModel(filename, layouts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
