package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jasperwreed/deja/internal/query"
)

const listLimit = 100

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4"))

	paneStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FF00"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00BFFF"))
)

// Source is the set of operations the browser drives. Each call runs on a
// command goroutine, so a Source must be safe for concurrent use.
type Source interface {
	Recent(opts query.RecentOptions) (string, query.RecentPayload)
	Search(opts query.SearchOptions) (string, query.SearchPayload)
	Episodes(sessionID string) (string, query.EpisodesPayload)
	Read(sessionID string, opts query.ReadOptions) (string, query.ReadPayload)
	Note(sessionID, text string) (string, query.NotePayload)
}

type Browser struct {
	source Source
	label  string
}

// NewBrowser returns a browser over source; label names the cache in the
// top bar.
func NewBrowser(source Source, label string) *Browser {
	return &Browser{source: source, label: label}
}

func (b *Browser) Run() error {
	m := initialModel(b.source, b.label)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

type commandMode int

const (
	modeNormal commandMode = iota
	modeCommand
	modeFilter
)

type listItem struct {
	sessionID string
	summary   string
	detail    string
}

func (i listItem) FilterValue() string { return i.summary + " " + i.detail }
func (i listItem) Title() string       { return i.summary }
func (i listItem) Description() string { return i.detail }

// Messages carrying operation results back into Update.
type (
	listMsg struct {
		status string
		items  []list.Item
	}
	contentMsg struct {
		status  string
		content string
	}
)

type model struct {
	source       Source
	label        string
	list         list.Model
	viewport     viewport.Model
	commandInput textinput.Model
	selectedID   string
	width        int
	height       int
	ready        bool
	mode         commandMode
	status       string
}

func initialModel(source Source, label string) model {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Sessions"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	vp := viewport.New(0, 0)

	cmdInput := textinput.New()
	cmdInput.Prompt = ":"
	cmdInput.CharLimit = 256
	cmdInput.Width = 50

	return model{
		source:       source,
		label:        label,
		list:         l,
		viewport:     vp,
		commandInput: cmdInput,
	}
}

func (m model) Init() tea.Cmd {
	return m.loadRecent()
}

func (m model) loadRecent() tea.Cmd {
	source := m.source
	return func() tea.Msg {
		status, payload := source.Recent(query.RecentOptions{Limit: listLimit})
		items := make([]list.Item, 0, len(payload.Sessions))
		for _, s := range payload.Sessions {
			items = append(items, listItem{
				sessionID: s.SessionID,
				summary:   s.Summary,
				detail:    fmt.Sprintf("%s · %s · %s", shortID(s.SessionID), s.Project, s.When),
			})
		}
		return listMsg{status: status, items: items}
	}
}

func (m model) search(q string) tea.Cmd {
	source := m.source
	return func() tea.Msg {
		status, payload := source.Search(query.SearchOptions{Query: q, Limit: listLimit})
		items := make([]list.Item, 0, len(payload.Results))
		for _, r := range payload.Results {
			detail := fmt.Sprintf("%s · %s · %s · score %d", shortID(r.SessionID), r.Project, r.When, r.Score)
			if r.FirstMatch != "" {
				detail += " · " + r.FirstMatch
			}
			items = append(items, listItem{sessionID: r.SessionID, summary: r.Summary, detail: detail})
		}
		return listMsg{status: status, items: items}
	}
}

func (m model) overview(id string) tea.Cmd {
	source := m.source
	return func() tea.Msg {
		status, payload := source.Episodes(id)
		return contentMsg{status: status, content: renderOverview(status, payload)}
	}
}

func (m model) read(id string, opts query.ReadOptions) tea.Cmd {
	source := m.source
	return func() tea.Msg {
		status, payload := source.Read(id, opts)
		return contentMsg{status: status, content: renderMessages(status, payload)}
	}
}

func (m model) note(id, text string) tea.Cmd {
	source := m.source
	return func() tea.Msg {
		status, _ := source.Note(id, text)
		return contentMsg{status: status}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		listWidth := m.width / 3
		m.list.SetSize(listWidth, m.height-3)
		m.viewport.Width = m.width - listWidth - 4
		m.viewport.Height = m.height - 5
		m.commandInput.Width = m.width - 4

	case listMsg:
		m.list.SetItems(msg.items)
		m.status = msg.status
		return m, nil

	case contentMsg:
		m.status = msg.status
		if msg.content != "" {
			m.viewport.SetContent(msg.content)
			m.viewport.GotoTop()
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeNormal:
			switch msg.String() {
			case "q", "ctrl+c":
				return m, tea.Quit

			case ":":
				m.mode = modeCommand
				m.commandInput.SetValue("")
				m.commandInput.Focus()
				return m, textinput.Blink

			case "/":
				m.mode = modeFilter

			case "enter":
				if item, ok := m.list.SelectedItem().(listItem); ok {
					m.selectedID = item.sessionID
					return m, m.overview(item.sessionID)
				}

			case "r":
				if m.selectedID != "" {
					return m, m.read(m.selectedID, query.ReadOptions{})
				}

			case "?":
				m.viewport.SetContent(helpText)
				m.viewport.GotoTop()
				return m, nil
			}

		case modeCommand:
			switch msg.String() {
			case "enter":
				line := m.commandInput.Value()
				m.mode = modeNormal
				m.commandInput.Blur()
				m.commandInput.SetValue("")
				cmd = m.executeCommand(line)
				return m, cmd

			case "esc":
				m.mode = modeNormal
				m.commandInput.Blur()
				m.commandInput.SetValue("")
				m.status = ""
				return m, nil
			}

		case modeFilter:
			if msg.String() == "esc" {
				m.mode = modeNormal
			}
		}
	}

	switch m.mode {
	case modeNormal, modeFilter:
		m.list, cmd = m.list.Update(msg)
		cmds = append(cmds, cmd)
	case modeCommand:
		m.commandInput, cmd = m.commandInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// executeCommand runs a ":" command line.
func (m *model) executeCommand(line string) tea.Cmd {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}
	command, args := parts[0], parts[1:]

	switch command {
	case "search", "s":
		if len(args) == 0 {
			m.status = "Usage: :search <query>"
			return nil
		}
		return m.search(strings.Join(args, " "))

	case "recent":
		return m.loadRecent()

	case "read":
		if m.selectedID == "" {
			m.status = "No session selected"
			return nil
		}
		var opts query.ReadOptions
		if len(args) > 0 {
			if err := query.ParseTarget(args[0], &opts); err != nil {
				m.status = err.Error()
				return nil
			}
		}
		return m.read(m.selectedID, opts)

	case "note":
		if m.selectedID == "" {
			m.status = "No session selected"
			return nil
		}
		if len(args) == 0 {
			m.status = "Usage: :note <text>"
			return nil
		}
		return m.note(m.selectedID, strings.Join(args, " "))

	case "help", "h":
		m.viewport.SetContent(helpText)
		m.viewport.GotoTop()
		return nil

	case "quit", "q":
		return tea.Quit
	}

	m.status = fmt.Sprintf("Unknown command: %s", command)
	return nil
}

const helpText = `
Commands (press : to enter command mode):

  :search <query>  - Rank sessions by keywords
  :recent          - List most recent sessions
  :read [target]   - Read the selected session
                     :N episode, @N turn, N message, N-M range
  :note <text>     - Attach a note to the selected session
  :help            - Show this help
  :quit            - Quit

Normal Mode Keys:
  j/k or ↑/↓     - Navigate list
  enter          - Session overview
  r              - Read the selected session
  /              - Filter list
  :              - Command mode
  ?              - Show help
  q              - Quit
`

func renderOverview(status string, p query.EpisodesPayload) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(status))
	b.WriteString("\n\n")
	if !p.Success {
		writeFailure(&b, p.Status)
		return b.String()
	}

	if len(p.Episodes) > 0 {
		b.WriteString("Episodes:\n")
		for _, ep := range p.Episodes {
			fmt.Fprintf(&b, "  :%d %s (%d messages)\n", ep.N, ep.Title, ep.Messages)
		}
		b.WriteString("\n")
	}
	writeList(&b, "In progress", p.InProgress)
	writeList(&b, "Pending", p.Pending)
	writeList(&b, "Notes", p.Notes)
	writeList(&b, "Work done", p.WorkDone)
	return b.String()
}

func renderMessages(status string, p query.ReadPayload) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(status))
	b.WriteString("\n\n")
	if !p.Success {
		writeFailure(&b, p.Status)
		return b.String()
	}

	b.WriteString(strings.Repeat("─", 40) + "\n\n")
	for _, msg := range p.Messages {
		if msg.Role == "user" {
			b.WriteString(userStyle.Render(fmt.Sprintf("User @%d:", msg.UserTurn)))
		} else {
			b.WriteString(assistantStyle.Render("Assistant:"))
		}
		b.WriteString("\n")
		b.WriteString(msg.Content)
		b.WriteString("\n\n")
	}
	return b.String()
}

func writeFailure(b *strings.Builder, s query.Status) {
	if s.Error != "" {
		b.WriteString(s.Error + "\n")
	}
	for _, c := range s.Matches {
		fmt.Fprintf(b, "  %s  %s · %s  %s\n", c.SessionID, c.Project, c.When, c.Summary)
	}
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(title + ":\n")
	for _, item := range items {
		b.WriteString("  - " + item + "\n")
	}
	b.WriteString("\n")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (m model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	listView := paneStyle.
		Width(m.width/3 - 2).
		Height(m.height - 3).
		Render(m.list.View())

	contentView := paneStyle.
		Width(m.width - m.width/3 - 2).
		Height(m.height - 3).
		Render(m.viewport.View())

	var bottomBar string
	switch m.mode {
	case modeCommand:
		bottomBar = m.commandInput.View()
	case modeFilter:
		bottomBar = helpStyle.Render("  Filter mode - Type to filter • ESC: exit filter")
	default:
		if m.status != "" {
			bottomBar = helpStyle.Render("  " + m.status)
		} else {
			bottomBar = helpStyle.Render("  j/k: navigate • enter: overview • r: read • /: filter • :: command • ?: help • q: quit")
		}
	}

	topBar := lipgloss.JoinHorizontal(
		lipgloss.Left,
		titleStyle.Render("deja"),
		helpStyle.Render("  "+m.label),
	)

	return topBar + "\n" +
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			listView,
			contentView,
		) + "\n" + bottomBar
}
