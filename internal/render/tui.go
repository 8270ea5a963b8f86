/*
 * MIT License
 *
 * Copyright (c) 2026 Nguyen Thanh Phuong
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Package render draws snapshots for a human: a full-screen dashboard on a
// terminal, or one line per tick otherwise.
package render

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/phuonguno98/unopulse/pkg/metrics"
)

// Key bindings
const (
	KeyQuit          = "q"
	KeyQuitAlt       = "ctrl+c"
	KeyTogglePerCore = "c"
)

const (
	headerHeight = 2
	footerHeight = 1
)

// snapshotMsg carries a new snapshot into the program.
type snapshotMsg struct {
	snap *metrics.Snapshot
}

// Model is the Bubble Tea model for the dashboard.
type Model struct {
	snap        *metrics.Snapshot
	showPerCore bool
	pingTarget  string
	onQuit      func()

	width    int
	height   int
	viewport viewport.Model
	ready    bool
	quitting bool
}

// NewModel creates a dashboard model. onQuit runs when the user quits.
func NewModel(showPerCore bool, pingTarget string, onQuit func()) Model {
	if onQuit == nil {
		onQuit = func() {}
	}
	return Model{
		showPerCore: showPerCore,
		pingTarget:  pingTarget,
		onQuit:      onQuit,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles key presses, resizes and new snapshots.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case KeyQuit, KeyQuitAlt:
			m.quitting = true
			m.onQuit()
			return m, tea.Quit
		case KeyTogglePerCore:
			m.showPerCore = !m.showPerCore
			m.refresh()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		viewportHeight := max(m.height-headerHeight-footerHeight, 1)
		if !m.ready {
			m.viewport = viewport.New(m.width, viewportHeight)
			m.viewport.YPosition = headerHeight
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = viewportHeight
		}
		m.refresh()

	case snapshotMsg:
		m.snap = msg.snap
		m.refresh()
		return m, nil
	}

	// Remaining keys and mouse events scroll the body.
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// refresh re-renders the body into the viewport, keeping the scroll offset.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(renderBody(m.snap, viewOptions{
		showPerCore: m.showPerCore,
		pingTarget:  m.pingTarget,
	}))
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	body := renderBody(m.snap, viewOptions{showPerCore: m.showPerCore, pingTarget: m.pingTarget})
	if m.ready {
		body = m.viewport.View()
	}

	perCore := "show"
	if m.showPerCore {
		perCore = "hide"
	}
	footer := FooterStyle.Render(fmt.Sprintf("q quit · c %s cores · ↑/↓ scroll", perCore))

	return lipgloss.JoinVertical(lipgloss.Left, renderHeader(m.snap)+"\n", body, footer)
}

// TUIOptions configures the terminal dashboard.
type TUIOptions struct {
	ShowPerCore bool
	PingTarget  string
	// OnQuit runs when the user presses a quit key.
	OnQuit func()
	// Input and Output default to the process terminal.
	Input  io.Reader
	Output io.Writer
}

// TUI runs the dashboard program and feeds it snapshots.
type TUI struct {
	program *tea.Program
}

// NewTUI creates the dashboard program. Call Run to start it.
func NewTUI(opts TUIOptions) *TUI {
	programOpts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithMouseCellMotion()}
	if opts.Input != nil {
		programOpts = append(programOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		programOpts = append(programOpts, tea.WithOutput(opts.Output))
	}

	model := NewModel(opts.ShowPerCore, opts.PingTarget, opts.OnQuit)
	return &TUI{program: tea.NewProgram(model, programOpts...)}
}

// Run blocks until the user quits or ctx is done.
func (t *TUI) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, t.program.Quit)
	defer stop()

	if _, err := t.program.Run(); err != nil {
		return fmt.Errorf("dashboard failed: %w", err)
	}
	return nil
}

// Name implements dispatch.Consumer.
func (t *TUI) Name() string {
	return "tui"
}

// Consume forwards s to the program. It waits while the program is busy;
// the dispatcher mailbox absorbs the backlog.
func (t *TUI) Consume(_ context.Context, s *metrics.Snapshot) error {
	t.program.Send(snapshotMsg{snap: s})
	return nil
}
