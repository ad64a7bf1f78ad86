package tui

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jasperwreed/deja/internal/models"
	"github.com/jasperwreed/deja/internal/notes"
	"github.com/jasperwreed/deja/internal/query"
	"github.com/jasperwreed/deja/internal/scanner"
	"github.com/jasperwreed/deja/internal/storage"
)

type fakeSource struct {
	searched string
	read     query.ReadOptions
	noted    string
}

func (f *fakeSource) Recent(query.RecentOptions) (string, query.RecentPayload) {
	return "2 conversations across 1 projects. Showing 2 most recent.", query.RecentPayload{
		Sessions: []query.RecentSession{
			{SessionID: "aaaa1111-2222", Summary: "fix bug", Project: "deja", When: "now"},
			{SessionID: "bbbb3333", Summary: "[1 turn] deploy", Project: "deja", When: "yesterday"},
		},
		Total: 2,
	}
}

func (f *fakeSource) Search(opts query.SearchOptions) (string, query.SearchPayload) {
	f.searched = opts.Query
	return `Found 1 sessions matching "deploy". Showing top 1.`, query.SearchPayload{
		Results: []query.SearchResult{{SessionID: "bbbb3333", Summary: "[1t] deploy", Score: 4, FirstMatch: "@1 deploy"}},
	}
}

func (f *fakeSource) Episodes(id string) (string, query.EpisodesPayload) {
	return "Session " + id + " · 2 turns", query.EpisodesPayload{
		Status:   query.Status{Success: true},
		Episodes: []query.EpisodeSummary{{N: 1, Title: "fix bug", Messages: 4}},
		Notes:    []string{"check arm64"},
	}
}

func (f *fakeSource) Read(id string, opts query.ReadOptions) (string, query.ReadPayload) {
	f.read = opts
	return "Episode 1: fix bug · 2 messages", query.ReadPayload{
		Status: query.Status{Success: true},
		Messages: []models.Message{
			{Role: "user", Content: "there is a bug", UserTurn: 1},
			{Role: "assistant", Content: "Looking.", UserTurn: 1},
		},
	}
}

func (f *fakeSource) Note(id, text string) (string, query.NotePayload) {
	f.noted = text
	return "Added note to " + shortID(id) + " (1 total notes)", query.NotePayload{Status: query.Status{Success: true}}
}

// run feeds msg to m and then every message its command produces.
func run(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(model)
	for cmd != nil {
		out := cmd()
		switch out.(type) {
		case listMsg, contentMsg:
			next, cmd = m.Update(out)
			m = next.(model)
		default:
			return m
		}
	}
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func command(t *testing.T, m model, line string) model {
	t.Helper()
	m = run(t, m, key(":"))
	if m.mode != modeCommand {
		t.Fatalf("mode = %v after ':', want command", m.mode)
	}
	m.commandInput.SetValue(line)
	return run(t, m, key("enter"))
}

func newTestModel(t *testing.T, src *fakeSource) model {
	t.Helper()
	m := initialModel(src, "cache.json")
	m = run(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m = run(t, m, m.loadRecent()())
	return m
}

func TestBrowser_LoadsRecentSessions(t *testing.T) {
	m := newTestModel(t, &fakeSource{})

	if got := len(m.list.Items()); got != 2 {
		t.Fatalf("items = %d, want 2", got)
	}
	item := m.list.Items()[0].(listItem)
	if item.sessionID != "aaaa1111-2222" || !strings.Contains(item.Description(), "aaaa1111 · deja") {
		t.Errorf("first item = %+v", item)
	}
	if !strings.HasPrefix(m.status, "2 conversations") {
		t.Errorf("status = %q", m.status)
	}
}

func TestBrowser_EnterShowsOverview(t *testing.T) {
	m := newTestModel(t, &fakeSource{})

	m = run(t, m, key("enter"))
	if m.selectedID != "aaaa1111-2222" {
		t.Errorf("selectedID = %q", m.selectedID)
	}
	view := m.viewport.View()
	if !strings.Contains(view, ":1 fix bug (4 messages)") || !strings.Contains(view, "check arm64") {
		t.Errorf("overview = %q", view)
	}
}

func TestBrowser_Commands(t *testing.T) {
	src := &fakeSource{}
	m := newTestModel(t, src)

	m = command(t, m, "read :1")
	if m.status != "No session selected" {
		t.Errorf("status without selection = %q", m.status)
	}

	m = run(t, m, key("enter"))
	m = command(t, m, "read :1")
	if src.read.Episode != 1 {
		t.Errorf("read options = %+v", src.read)
	}
	if !strings.Contains(m.viewport.View(), "there is a bug") {
		t.Errorf("read view = %q", m.viewport.View())
	}

	m = command(t, m, "note check arm64")
	if src.noted != "check arm64" || !strings.HasPrefix(m.status, "Added note") {
		t.Errorf("note = %q, status = %q", src.noted, m.status)
	}

	m = command(t, m, "search deploy")
	if src.searched != "deploy" || len(m.list.Items()) != 1 {
		t.Errorf("search = %q, items = %d", src.searched, len(m.list.Items()))
	}

	m = command(t, m, "frobnicate")
	if m.status != "Unknown command: frobnicate" {
		t.Errorf("status = %q", m.status)
	}

	m = command(t, m, "read x:")
	if !strings.Contains(m.status, "invalid") {
		t.Errorf("bad target status = %q", m.status)
	}
}

func TestBrowser_CommandEscape(t *testing.T) {
	m := newTestModel(t, &fakeSource{})
	m = run(t, m, key(":"))
	m = run(t, m, key("esc"))
	if m.mode != modeNormal {
		t.Errorf("mode = %v after esc, want normal", m.mode)
	}
}

func TestCommandsRunConcurrentlyOnService(t *testing.T) {
	root := filepath.Join(t.TempDir(), "projects")
	dir := filepath.Join(root, "-Users-me-code-deja")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 40; i++ {
		line := fmt.Sprintf(`{"type":"user","message":{"content":"fix bug %d"},"timestamp":"2025-06-14T10:00:00Z"}`, i)
		if err := os.WriteFile(filepath.Join(dir, fmt.Sprintf("s%04d.jsonl", i)), []byte(line+"\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sc := scanner.NewClaudeScanner(root)
	store := storage.NewStore(storage.NewJSONFileBackend(filepath.Join(t.TempDir(), "cache.json")), sc, storage.WithLogger(logger))
	svc := query.NewService(store, notes.NewStore(filepath.Join(t.TempDir(), "notes.json"), logger), sc, logger)

	m := initialModel(svc, "cache.json")
	cmds := []tea.Cmd{m.loadRecent(), m.search("bug"), m.overview("s0001"), m.note("s0002", "seen")}

	msgs := make([]tea.Msg, len(cmds))
	var wg sync.WaitGroup
	for i, cmd := range cmds {
		wg.Add(1)
		go func(i int, cmd tea.Cmd) {
			defer wg.Done()
			msgs[i] = cmd()
		}(i, cmd)
	}
	wg.Wait()

	if recent, ok := msgs[0].(listMsg); !ok || len(recent.items) != 40 {
		t.Errorf("recent = %#v", msgs[0])
	}
	if found, ok := msgs[1].(listMsg); !ok || len(found.items) == 0 {
		t.Errorf("search = %#v", msgs[1])
	}
}
