package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jpalmerr/fluxboard/action"
	"github.com/jpalmerr/fluxboard/apps/kanban"
	"github.com/jpalmerr/fluxboard/view"
)

type mode int

const (
	modeBrowse mode = iota
	modeAdd
	modeEdit
)

// notesMsg carries a notes store notification into the program.
type notesMsg kanban.Notes

// styles
var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Underline(true)
	cursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	helpStyle     = lipgloss.NewStyle().Faint(true)
	emptyStyle    = lipgloss.NewStyle().Italic(true).Faint(true)
	defaultHeader = "Kanban"
)

type keyMap struct {
	Quit   key.Binding
	Up     key.Binding
	Down   key.Binding
	Add    key.Binding
	Edit   key.Binding
	Remove key.Binding
	Submit key.Binding
	Cancel key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "Quit")),
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("k", "Up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("j", "Down")),
		Add:    key.NewBinding(key.WithKeys("a", "n"), key.WithHelp("a", "Add")),
		Edit:   key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e", "Edit")),
		Remove: key.NewBinding(key.WithKeys("d", "x"), key.WithHelp("d", "Remove")),
		Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "Save")),
		Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "Cancel")),
	}
}

func (k keyMap) browseHelp() []key.Binding {
	return []key.Binding{k.Add, k.Edit, k.Remove, k.Down, k.Up, k.Quit}
}

func (k keyMap) inputHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Cancel}
}

// Board is the terminal view of the notes store.
type Board struct {
	emitter action.Emitter
	title   string
	keys    keyMap

	notes  []kanban.Note
	cursor int
	mode   mode
	input  textinput.Model
}

// New creates a Board showing initial. Edits are emitted through emitter.
func New(emitter action.Emitter, initial kanban.Notes, title string) *Board {
	if title == "" {
		title = defaultHeader
	}
	return &Board{
		emitter: emitter,
		title:   title,
		keys:    newKeyMap(),
		notes:   append([]kanban.Note(nil), initial.Notes...),
		input:   textinput.New(),
	}
}

// Run shows the board for src until the user quits or ctx is cancelled.
func Run(ctx context.Context, emitter action.Emitter, src view.Source[kanban.Notes], title string, opts ...tea.ProgramOption) error {
	b := New(emitter, src.State(), title)
	p := tea.NewProgram(b, append(opts, tea.WithContext(ctx))...)

	binding := view.New(src, func(n kanban.Notes) { p.Send(notesMsg(n)) })
	binding.Mount()
	defer binding.Unmount()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Init implements tea.Model.
func (b *Board) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (b *Board) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case notesMsg:
		b.notes = m.Notes
		b.clampCursor()
		return b, nil
	case tea.KeyMsg:
		if b.mode == modeBrowse {
			return b.handleBrowseKey(m)
		}
		return b.handleInputKey(m)
	}
	if b.mode != modeBrowse {
		var cmd tea.Cmd
		b.input, cmd = b.input.Update(msg)
		return b, cmd
	}
	return b, nil
}

func (b *Board) handleBrowseKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(m, b.keys.Quit):
		return b, tea.Quit
	case key.Matches(m, b.keys.Up):
		if b.cursor > 0 {
			b.cursor--
		}
	case key.Matches(m, b.keys.Down):
		if b.cursor < len(b.notes)-1 {
			b.cursor++
		}
	case key.Matches(m, b.keys.Add):
		return b, b.prompt(modeAdd, "New task: ", "")
	case key.Matches(m, b.keys.Edit):
		if note, ok := b.selected(); ok {
			return b, b.prompt(modeEdit, "Edit task: ", note.Task)
		}
	case key.Matches(m, b.keys.Remove):
		if note, ok := b.selected(); ok {
			b.emitter.Emit(kanban.RemoveNote, note.ID)
		}
	}
	return b, nil
}

func (b *Board) handleInputKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case m.Type == tea.KeyCtrlC:
		return b, tea.Quit
	case key.Matches(m, b.keys.Cancel):
		b.closePrompt()
		return b, nil
	case key.Matches(m, b.keys.Submit):
		task := strings.TrimSpace(b.input.Value())
		switch b.mode {
		case modeAdd:
			b.emitter.Emit(kanban.CreateNote, kanban.Note{Task: task})
		case modeEdit:
			if note, ok := b.selected(); ok {
				kanban.EditNote(b.emitter, note.ID, task)
			}
		}
		b.closePrompt()
		return b, nil
	}
	var cmd tea.Cmd
	b.input, cmd = b.input.Update(m)
	return b, cmd
}

// prompt switches to an input mode with the field prefilled by value.
func (b *Board) prompt(md mode, label, value string) tea.Cmd {
	b.mode = md
	b.input.Reset()
	b.input.Prompt = label
	b.input.SetValue(value)
	b.input.CursorEnd()
	return b.input.Focus()
}

func (b *Board) closePrompt() {
	b.mode = modeBrowse
	b.input.Blur()
	b.input.Reset()
}

func helpLine(bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, fmt.Sprintf("[%s] %s", h.Key, h.Desc))
	}
	return helpStyle.Render(strings.Join(parts, "  "))
}

// View implements tea.Model.
func (b *Board) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("%s (%d)", b.title, len(b.notes))))
	sb.WriteString("\n\n")

	if len(b.notes) == 0 {
		sb.WriteString(emptyStyle.Render("no notes yet"))
		sb.WriteString("\n")
	}
	for i, n := range b.notes {
		line := "  " + n.Task
		if i == b.cursor {
			line = cursorStyle.Render("> " + n.Task)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	switch b.mode {
	case modeAdd, modeEdit:
		sb.WriteString(b.input.View())
		sb.WriteString("\n" + helpLine(b.keys.inputHelp()))
		if b.mode == modeEdit {
			sb.WriteString(helpStyle.Render("  (empty removes)"))
		}
	default:
		sb.WriteString(helpLine(b.keys.browseHelp()))
	}
	return sb.String()
}

func (b *Board) selected() (kanban.Note, bool) {
	if b.cursor < 0 || b.cursor >= len(b.notes) {
		return kanban.Note{}, false
	}
	return b.notes[b.cursor], true
}

func (b *Board) clampCursor() {
	if b.cursor >= len(b.notes) {
		b.cursor = len(b.notes) - 1
	}
	if b.cursor < 0 {
		b.cursor = 0
	}
}
