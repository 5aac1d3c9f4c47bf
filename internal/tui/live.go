// Package tui provides a terminal live view of a running solve.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/voltlab/battsim/internal/cell"
	"github.com/voltlab/battsim/internal/model"
	"github.com/voltlab/battsim/internal/params"
	"github.com/voltlab/battsim/internal/solver"
)

const (
	traceCapacity = 600
	traceWidth    = 60
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(20)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	alertStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Live is the bubbletea model driving the live solve view.
type Live struct {
	mdl     *model.Model
	p       *params.Values
	stepper solver.Stepper

	y       cell.State
	initial cell.State
	t       float64
	dt      float64
	rate    float64

	voltage []float64

	running  bool
	done     bool
	doneWhy  string
	showHelp bool
	err      error
}

// NewLive prepares a live view for a built model. The rate sign follows the
// current convention: positive discharges the cell.
func NewLive(m *model.Model, p *params.Values, st solver.Stepper, rate, dt float64) (Live, error) {
	if !m.Built() {
		return Live{}, cell.ErrModelNotBuilt
	}
	y0, err := m.InitialState(p)
	if err != nil {
		return Live{}, err
	}
	if dt <= 0 {
		dt = 1.0
	}
	return Live{
		mdl:     m,
		p:       p,
		stepper: st,
		y:       y0,
		initial: y0.Clone(),
		dt:      dt,
		rate:    rate,
		voltage: make([]float64, 0, traceCapacity),
		running: true,
	}, nil
}

func (m Live) Init() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Live) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			if !m.done {
				m.running = !m.running
			}
		case "r":
			m.reset()
		case "up", "k":
			m.rate += 0.25
		case "down", "j":
			m.rate -= 0.25
		case "0":
			m.rate = 0
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running && !m.done {
			m.step()
		}
		return m, tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

func (m *Live) step() {
	i := m.p.CRateCurrent(m.rate)
	f := func(t float64, y cell.State) (cell.State, error) {
		return m.mdl.Derivative(m.mdl.Eval(m.p, t, y, i))
	}
	newY, err := m.stepper.Step(f, m.t, m.y, m.dt)
	if err != nil {
		m.err = err
		m.running = false
		return
	}
	m.y = newY
	m.t += m.dt

	e := m.mdl.Eval(m.p, m.t, m.y, i)
	v, err := e.Scalar("terminal voltage")
	if err != nil {
		m.err = err
		m.running = false
		return
	}
	m.voltage = append(m.voltage, v)
	if len(m.voltage) > traceCapacity {
		m.voltage = m.voltage[1:]
	}

	for _, ev := range m.mdl.Events() {
		g, err := ev.F(e)
		if err != nil {
			continue
		}
		if g <= 0 {
			m.done = true
			m.doneWhy = ev.Name
			m.running = false
			return
		}
	}
}

func (m *Live) reset() {
	m.y = m.initial.Clone()
	m.t = 0
	m.voltage = m.voltage[:0]
	m.running = true
	m.done = false
	m.doneWhy = ""
	m.err = nil
}

func (m Live) View() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.mdl.Name())) + "\n")

	status := "RUNNING"
	if m.done {
		status = "TERMINATED: " + m.doneWhy
	} else if m.err != nil {
		status = "ERROR"
	} else if !m.running {
		status = "PAUSED"
	}
	s.WriteString(status + "\n\n")

	if len(m.voltage) > 1 {
		chart := asciigraph.Plot(m.voltage,
			asciigraph.Height(8),
			asciigraph.Width(traceWidth),
			asciigraph.Caption("terminal voltage [V]"),
		)
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	e := m.mdl.Eval(m.p, m.t, m.y, m.p.CRateCurrent(m.rate))
	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.1f s", m.t)) + "\n")
	s.WriteString(labelStyle.Render("C-rate") + valueStyle.Render(fmt.Sprintf("%.2fC", m.rate)) + "\n")
	for _, name := range []string{"terminal voltage", "current", "cell temperature", "discharge capacity"} {
		if v, err := e.Scalar(name); err == nil {
			s.WriteString(labelStyle.Render(name) + valueStyle.Render(fmt.Sprintf("%.4g", v)) + "\n")
		}
	}

	if m.err != nil {
		s.WriteString("\n" + alertStyle.Render(m.err.Error()) + "\n")
	}

	if m.showHelp {
		s.WriteString(helpStyle.Render("space pause · r reset · up/down C-rate · 0 rest · q quit"))
	} else {
		s.WriteString(helpStyle.Render("? help · q quit"))
	}
	return s.String()
}

// Run starts the live view and blocks until the user quits.
func Run(m *model.Model, p *params.Values, st solver.Stepper, rate, dt float64) error {
	live, err := NewLive(m, p, st, rate, dt)
	if err != nil {
		return err
	}
	prog := tea.NewProgram(live)
	_, err = prog.Run()
	return err
}
