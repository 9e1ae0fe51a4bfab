package viz

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/deformsim/internal/experiment"
	"github.com/san-kum/deformsim/internal/physics"
)

const (
	historyCapacity = 600
	frameRate       = 30
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// WatchModel steps a scene a few ticks per frame and shows how its bodies
// are doing.
type WatchModel struct {
	exp           *experiment.Experiment
	dt, duration  float64
	stepsPerFrame int

	running  bool
	done     bool
	err      error
	showHelp bool
	selected int

	initialDamping map[string]float64
	displacement   []float64
	energy         []float64
}

func NewWatchModel(exp *experiment.Experiment, stepsPerFrame int) WatchModel {
	cfg := exp.Config()
	damping := make(map[string]float64, len(exp.BodyNames()))
	for _, name := range exp.BodyNames() {
		b, _ := exp.Body(name)
		damping[name] = b.RayleighDampingMass()
	}
	return WatchModel{
		exp:            exp,
		dt:             cfg.Dt,
		duration:       cfg.Duration,
		stepsPerFrame:  max(stepsPerFrame, 1),
		running:        true,
		initialDamping: damping,
		displacement:   make([]float64, 0, historyCapacity),
		energy:         make([]float64, 0, historyCapacity),
	}
}

func (m WatchModel) Init() tea.Cmd {
	return tick()
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "tab":
			m.selected = (m.selected + 1) % len(m.exp.BodyNames())
		case "up", "k":
			m.adjustDamping(1.25)
		case "down", "j":
			m.adjustDamping(0.8)
		case "t":
			NextTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running && !m.done && m.err == nil {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

func (m *WatchModel) advance() {
	mgr := m.exp.Manager()
	for i := 0; i < m.stepsPerFrame; i++ {
		if mgr.Time() >= m.duration-m.dt/2 {
			m.done = true
			break
		}
		if err := mgr.Step(context.Background(), m.dt); err != nil {
			m.err = err
			m.running = false
			break
		}
	}

	largest, energy := 0.0, 0.0
	for _, name := range m.exp.BodyNames() {
		b, _ := m.exp.Body(name)
		if b.IsActive() {
			largest = math.Max(largest, b.MaxDisplacement())
			energy += b.KineticEnergy()
		}
	}
	m.displacement = appendCapped(m.displacement, largest)
	m.energy = appendCapped(m.energy, energy)
}

func appendCapped(history []float64, v float64) []float64 {
	history = append(history, v)
	if len(history) > historyCapacity {
		history = history[1:]
	}
	return history
}

func (m *WatchModel) selectedBody() *physics.Deformable {
	b, _ := m.exp.Body(m.exp.BodyNames()[m.selected])
	return b
}

func (m *WatchModel) adjustDamping(factor float64) {
	b := m.selectedBody()
	v := b.RayleighDampingMass() * factor
	if v == 0 && factor > 1 {
		v = 0.1
	}
	_ = b.SetParam(physics.ParamRayleighMass, v)
}

// reset puts the scene back to rest with its initial damping.
func (m *WatchModel) reset() {
	m.exp.Manager().Reset()
	for name, v := range m.initialDamping {
		b, _ := m.exp.Body(name)
		_ = b.SetParam(physics.ParamRayleighMass, v)
	}
	m.displacement = m.displacement[:0]
	m.energy = m.energy[:0]
	m.done = false
	m.err = nil
}

func (m WatchModel) status(p palette) string {
	switch {
	case m.err != nil:
		return p.bad.Render("FAILED: " + m.err.Error())
	case m.done:
		return p.ok.Render("DONE")
	case !m.running:
		return p.warn.Render("PAUSED")
	default:
		return p.ok.Render("RUNNING")
	}
}

func (m WatchModel) View() string {
	p := styles()
	mgr := m.exp.Manager()
	var s strings.Builder

	s.WriteString(p.header.Render(strings.ToUpper(m.exp.Config().Name)) + "\n")
	s.WriteString(m.status(p) + "\n\n")
	s.WriteString(ProgressBar(mgr.Time()/m.duration, 30) + "\n\n")

	s.WriteString(p.label.Render("Time") + p.value.Render(fmt.Sprintf("%.3fs / %.3fs", mgr.Time(), m.duration)) + "\n")
	s.WriteString(p.label.Render("Steps") + p.value.Render(fmt.Sprintf("%d", mgr.Steps())) + "\n")
	for _, mt := range mgr.Metrics() {
		s.WriteString(p.label.Render(mt.Name()) + p.value.Render(fmt.Sprintf("%.4g", mt.Value())) + "\n")
	}

	if len(m.displacement) > 1 {
		chart := asciigraph.Plot(m.displacement, asciigraph.Height(6), asciigraph.Width(40), asciigraph.Caption("max displacement"))
		s.WriteString(p.graph.Render(chart) + "\n")
	}

	s.WriteString("\n" + Separator(44) + "\n\n")
	for i, name := range m.exp.BodyNames() {
		b, _ := m.exp.Body(name)
		state := p.ok.Render("active")
		if !b.IsActive() {
			state = p.bad.Render("inactive")
		}
		line := fmt.Sprintf("%-14s %-12s %-24s d=%.3g αM=%.3g", name, b.Type(), b.IntegrationScheme(), b.MaxDisplacement(), b.RayleighDampingMass())
		if i == m.selected {
			s.WriteString(p.active.Render("> "+line) + " " + state + "\n")
		} else {
			s.WriteString("  " + p.muted.Render(line) + " " + state + "\n")
		}
	}
	s.WriteString(p.muted.Render("\nSP:Pause R:Reset Q:Quit TAB:Body ↑↓:Damping T:Theme ?:Help"))

	view := p.panel.Render(s.String())
	if m.showHelp {
		return lipgloss.JoinVertical(lipgloss.Left, helpText, view)
	}
	return view
}

const helpText = `
  Space    pause or resume
  R        reset every body to rest
  Tab      select the next body
  Up/K     raise its Rayleigh mass damping
  Down/J   lower its Rayleigh mass damping
  T        cycle themes
  Q        quit
`

// RunWatch opens the live view on a built scene.
func RunWatch(exp *experiment.Experiment, stepsPerFrame int) error {
	_, err := tea.NewProgram(NewWatchModel(exp, stepsPerFrame), tea.WithAltScreen()).Run()
	return err
}
