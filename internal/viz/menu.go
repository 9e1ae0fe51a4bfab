package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/deformsim/internal/config"
	"github.com/san-kum/deformsim/internal/experiment"
)

const (
	stateMenu = iota
	stateWatch
)

type presetItem struct {
	kind, name string
}

// model lists the built-in presets and opens the one picked in a
// WatchModel.
type model struct {
	state, cursor int
	items         []presetItem
	stepsPerFrame int
	err           error
	watch         WatchModel
}

func NewInteractiveApp(stepsPerFrame int) *model {
	m := &model{stepsPerFrame: stepsPerFrame}
	for _, kind := range config.BodyTypes() {
		for _, name := range config.ListPresets(kind) {
			m.items = append(m.items, presetItem{kind, name})
		}
	}
	return m
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state == stateWatch {
		w, cmd := m.watch.Update(msg)
		m.watch = w.(WatchModel)
		return m, cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "enter", " ":
		return m.start()
	}
	return m, nil
}

func (m model) start() (model, tea.Cmd) {
	item := m.items[m.cursor]
	exp, err := experiment.Build(config.GetPreset(item.kind, item.name))
	if err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	m.watch = NewWatchModel(exp, m.stepsPerFrame)
	m.state = stateWatch
	return m, m.watch.Init()
}

func (m model) View() string {
	if m.state == stateWatch {
		return m.watch.View()
	}

	p := styles()
	var b strings.Builder
	b.WriteString("\n\n    " + p.header.Render("DEFORMSIM") + "\n    " + p.muted.Render("deformable body presets") + "\n\n")
	for i, it := range m.items {
		line := fmt.Sprintf("%-14s %s", it.name, it.kind)
		if i == m.cursor {
			b.WriteString("    " + p.active.Render("▸ "+line) + "\n")
		} else {
			b.WriteString("      " + p.muted.Render(line) + "\n")
		}
	}
	if m.err != nil {
		b.WriteString("\n    " + p.bad.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n    " + p.muted.Render("j/k navigate  enter watch  q quit") + "\n")
	return b.String()
}

func RunInteractive(stepsPerFrame int) error {
	_, err := tea.NewProgram(NewInteractiveApp(stepsPerFrame), tea.WithAltScreen()).Run()
	return err
}
