// Package tui is the interactive terminal browser behind `todo tui`.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"todo-desk/internal/ui"
	"todo-desk/pkg/task"
)

// Run starts the browser on the terminal and blocks until the user quits.
func Run(ctx context.Context, svc *task.Service, theme string) error {
	if !IsTTY(os.Stdout) {
		return errors.New("tui requires a terminal")
	}
	program := tea.NewProgram(New(ctx, svc, theme), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := program.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(*Model); ok && m.fatal != nil {
		return m.fatal
	}
	return nil
}

// IsTTY reports whether w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Model is the bubbletea model. Service calls run as commands so the view
// never waits on the disk.
type Model struct {
	ctx     context.Context
	svc     *task.Service
	palette ui.Palette
	styles  styles

	tasks   []task.Task // full list, stored order
	visible []task.Task // tasks after filter
	filter  task.Filter
	cursor  int

	searching     bool
	confirmDelete string // id awaiting y/n
	status        string
	err           error
	fatal         error
	width         int
}

// New builds a Model over svc with the named theme.
func New(ctx context.Context, svc *task.Service, theme string) *Model {
	p := ui.PaletteFor(theme)
	return &Model{ctx: ctx, svc: svc, palette: p, styles: newStyles(p)}
}

type loadedMsg struct {
	tasks []task.Task
	err   error
}

type changedMsg struct {
	status string
	err    error
}

func (m *Model) load() tea.Cmd {
	return func() tea.Msg {
		tasks, err := m.svc.GetAllTasks(m.ctx)
		return loadedMsg{tasks: tasks, err: err}
	}
}

func (m *Model) toggle(t task.Task) tea.Cmd {
	return func() tea.Msg {
		updated, ok, err := m.svc.ToggleTaskCompletion(m.ctx, t.ID)
		switch {
		case err != nil:
			return changedMsg{err: err}
		case !ok:
			return changedMsg{status: "task no longer exists"}
		case updated.Completed:
			return changedMsg{status: "completed " + updated.Title}
		}
		return changedMsg{status: "reopened " + updated.Title}
	}
}

func (m *Model) remove(t task.Task) tea.Cmd {
	return func() tea.Msg {
		if err := m.svc.DeleteTask(m.ctx, t.ID); err != nil {
			return changedMsg{err: err}
		}
		return changedMsg{status: "deleted " + t.Title}
	}
}

func (m *Model) Init() tea.Cmd {
	return m.load()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case loadedMsg:
		if msg.err != nil {
			// keep the previous list on screen
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.tasks = msg.tasks
		m.applyFilter()
		return m, nil
	case changedMsg:
		m.err = msg.err
		m.status = msg.status
		return m, m.load()
	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		if m.confirmDelete != "" {
			return m.updateConfirm(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m *Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "j", "down":
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case " ", "enter":
		if t, ok := m.selected(); ok {
			return m, m.toggle(t)
		}
	case "x", "delete":
		if t, ok := m.selected(); ok {
			m.confirmDelete = t.ID
			m.status = fmt.Sprintf("delete %q? (y/n)", t.Title)
		}
	case "/":
		m.searching = true
	case "r", "f5":
		m.status = ""
		return m, m.load()
	case "0":
		m.setPriority("")
	case "1":
		m.setPriority(task.Low)
	case "2":
		m.setPriority(task.Medium)
	case "3":
		m.setPriority(task.High)
	}
	return m, nil
}

func (m *Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id := m.confirmDelete
	m.confirmDelete = ""
	if msg.String() != "y" && msg.String() != "Y" {
		m.status = "delete cancelled"
		return m, nil
	}
	for _, t := range m.tasks {
		if t.ID == id {
			return m, m.remove(t)
		}
	}
	return m, nil
}

func (m *Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
	case tea.KeyEsc:
		m.searching = false
		m.filter.Query = ""
	case tea.KeyBackspace:
		if r := []rune(m.filter.Query); len(r) > 0 {
			m.filter.Query = string(r[:len(r)-1])
		}
	case tea.KeyRunes, tea.KeySpace:
		m.filter.Query += string(msg.Runes)
	}
	m.applyFilter()
	return m, nil
}

func (m *Model) setPriority(p task.Priority) {
	m.filter.Priority = p
	m.applyFilter()
}

func (m *Model) applyFilter() {
	m.visible = task.Apply(m.tasks, m.filter)
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) selected() (task.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return task.Task{}, false
	}
	return m.visible[m.cursor], true
}

// Visible returns the tasks currently shown.
func (m *Model) Visible() []task.Task {
	return m.visible
}

type styles struct {
	title, muted, cursor, errText lipgloss.Style
	token                         map[ui.Token]lipgloss.Style
}

func newStyles(p ui.Palette) styles {
	color := func(c uint32) lipgloss.Color { return lipgloss.Color(ui.Hex(c)) }
	s := styles{
		title:   lipgloss.NewStyle().Bold(true).Foreground(color(p.Accent)),
		muted:   lipgloss.NewStyle().Foreground(color(p.Muted)),
		cursor:  lipgloss.NewStyle().Bold(true).Foreground(color(p.Accent)),
		errText: lipgloss.NewStyle().Foreground(color(p.Color(ui.TokenHigh))),
		token:   make(map[ui.Token]lipgloss.Style),
	}
	for tok, c := range p.TokenColor {
		st := lipgloss.NewStyle().Foreground(color(c))
		if tok == ui.TokenDone {
			st = st.Strikethrough(true)
		}
		s.token[tok] = st
	}
	return s
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.title.Render("todo-desk"))
	b.WriteString(m.styles.muted.Render("  " + m.filterLabel()))
	b.WriteString("\n\n")

	if len(m.visible) == 0 {
		b.WriteString(m.styles.muted.Render("  no tasks"))
		b.WriteString("\n")
	}
	today := task.Today()
	for i, t := range m.visible {
		marker := "  "
		if i == m.cursor {
			marker = m.styles.cursor.Render("> ")
		}
		check := "[ ]"
		if t.Completed {
			check = "[x]"
		}
		badge := m.styles.token[ui.StyleToken(t.Priority)].Render(fmt.Sprintf("%-6s", t.Priority.Label()))
		title := t.Title
		if tok := ui.TaskToken(t, today); tok == ui.TokenDone || tok == ui.TokenOverdue {
			title = m.styles.token[tok].Render(t.Title)
		}
		fmt.Fprintf(&b, "%s%s %s %s  %s\n", marker, check, badge, title, m.styles.muted.Render(t.DueLabel()))
	}

	b.WriteString("\n")
	b.WriteString(progressBar(task.Progress(m.visible), 30))
	b.WriteString("\n")
	if m.searching {
		fmt.Fprintf(&b, "search: %s_\n", m.filter.Query)
	}
	if m.err != nil {
		b.WriteString(m.styles.errText.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(m.styles.muted.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(m.styles.muted.Render("j/k move · space toggle · x delete · / search · 0-3 priority · r reload · q quit"))
	b.WriteString("\n")
	return b.String()
}

func (m *Model) filterLabel() string {
	label := "All"
	if m.filter.Priority != "" {
		label = m.filter.Priority.Label()
	}
	if q := strings.TrimSpace(m.filter.Query); q != "" {
		label += fmt.Sprintf(" matching %q", q)
	}
	return label
}

func progressBar(percent float64, width int) string {
	filled := int(percent / 100 * float64(width))
	if filled > width {
		filled = width
	}
	return fmt.Sprintf("[%s%s] %3.0f%%", strings.Repeat("#", filled), strings.Repeat("-", width-filled), percent)
}
