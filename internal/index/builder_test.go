package index

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/jasperwreed/deja/internal/models"
)

func writeLog(t *testing.T, project, session string, lines ...string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), project)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, session+".jsonl")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBuild_TwoTurnsNoTodos(t *testing.T) {
	path := writeLog(t, "-Users-me-code-deja", "abc",
		`{"type":"user","message":{"content":"how do I parse yaml"},"timestamp":"2025-03-01T10:00:00Z","sessionId":"abc"}`,
		`{"type":"assistant","message":{"content":[{"type":"text","text":"Use yaml.v3."}]},"timestamp":"2025-03-01T10:00:05Z"}`,
		`{"type":"user","message":{"content":"thanks"},"timestamp":"2025-03-01T10:01:00Z"}`,
	)

	rec, err := Build(path)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if len(rec.Episodes) != 0 || rec.Episodes == nil {
		t.Errorf("Episodes = %#v, want empty", rec.Episodes)
	}
	if len(rec.FinalTodos.All()) != 0 {
		t.Errorf("FinalTodos = %+v, want all empty", rec.FinalTodos)
	}
	if len(rec.WorkItems) != 0 || rec.WorkItems == nil {
		t.Errorf("WorkItems = %#v, want empty", rec.WorkItems)
	}

	if rec.SessionID != "abc" {
		t.Errorf("SessionID = %q, want %q", rec.SessionID, "abc")
	}
	if rec.Project != "-Users-me-code-deja" {
		t.Errorf("Project = %q", rec.Project)
	}
	if rec.FirstMessage != "how do I parse yaml" {
		t.Errorf("FirstMessage = %q", rec.FirstMessage)
	}
	if !reflect.DeepEqual(rec.UserMessageArc, []string{"how do I parse yaml", "thanks"}) {
		t.Errorf("UserMessageArc = %v", rec.UserMessageArc)
	}
	if rec.UserMessageCount != 2 || rec.MessageCount != 3 {
		t.Errorf("counts = (%d users, %d messages), want (2, 3)", rec.UserMessageCount, rec.MessageCount)
	}
	if rec.Timestamp != "2025-03-01T10:00:00Z" {
		t.Errorf("Timestamp = %q", rec.Timestamp)
	}
	if rec.SchemaVersion != CurrentSchemaVersion {
		t.Errorf("SchemaVersion = %d", rec.SchemaVersion)
	}
	if rec.TermCounts["pars"] != 1 || rec.TermCounts["yaml"] != 2 {
		t.Errorf("TermCounts = %v", rec.TermCounts)
	}
}

func TestBuild_SingleTodoWrite(t *testing.T) {
	path := writeLog(t, "proj", "s1",
		`{"type":"user","message":{"content":"there is a bug"},"timestamp":"2025-03-01T10:00:00Z"}`,
		`{"type":"assistant","message":{"content":[{"type":"text","text":"Looking."}]}}`,
		`{"type":"system","subtype":"compact"}`,
		`{"type":"user","message":{"content":"go on"}}`,
		`{"type":"assistant","message":{"content":[{"type":"tool_use","name":"TodoWrite","input":{"todos":[{"content":"fix bug","status":"completed"}]}},{"type":"tool_use","name":"Edit","input":{"file_path":"/repo/bugfix.py"}}]}}`,
	)

	rec, err := Build(path)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	want := []models.Episode{{Title: "fix bug", MessageRange: [2]int{0, 4}, CompletedAt: 4, MessageCount: 4}}
	if !reflect.DeepEqual(rec.Episodes, want) {
		t.Errorf("Episodes = %+v, want %+v", rec.Episodes, want)
	}
	if !reflect.DeepEqual(rec.FinalTodos.Completed, []string{"fix bug"}) {
		t.Errorf("FinalTodos.Completed = %v", rec.FinalTodos.Completed)
	}
	if !reflect.DeepEqual(rec.WorkItems, []string{"fix bug"}) {
		t.Errorf("WorkItems = %v", rec.WorkItems)
	}
	if !reflect.DeepEqual(rec.FilesTouched, []string{"/repo/bugfix.py", "bugfix.py"}) {
		t.Errorf("FilesTouched = %v", rec.FilesTouched)
	}
	if rec.SessionID != "unknown" {
		t.Errorf("SessionID = %q, want unknown", rec.SessionID)
	}
	if rec.TermCounts["fix"] == 0 || rec.TermCounts["bug"] == 0 {
		t.Errorf("TermCounts missing work item stems: %v", rec.TermCounts)
	}
}

func TestBuild_TaskEventsAndEntryTodos(t *testing.T) {
	path := writeLog(t, "proj", "s2",
		`{"type":"user","message":{"content":"plan it"}}`,
		`{"type":"assistant","message":{"content":[{"type":"tool_use","name":"TaskCreate","input":{"subject":"Design schema","description":"tables for sessions"}}]}}`,
		`{"type":"assistant","message":{"content":[{"type":"tool_use","name":"TaskCreate","input":{"subject":"Write loader"}}]}}`,
		`{"type":"assistant","message":{"content":[{"type":"tool_use","name":"TaskUpdate","input":{"taskId":"1","status":"completed"}}]}}`,
		`{"type":"assistant","message":{"content":[{"type":"tool_use","name":"TaskUpdate","input":{"taskId":"42","status":"completed"}}]}}`,
		`{"type":"user","message":{"content":"next"},"todos":[{"content":"ship it","status":"in_progress"}]}`,
	)

	rec, err := Build(path)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if len(rec.Episodes) != 1 || rec.Episodes[0].Title != "Design schema: tables for sessions" {
		t.Fatalf("Episodes = %+v", rec.Episodes)
	}
	if rec.Episodes[0].MessageRange != [2]int{0, 4} {
		t.Errorf("episode range = %v, want [0 4]", rec.Episodes[0].MessageRange)
	}

	// the entry todos replaced the task list entirely
	if !reflect.DeepEqual(rec.FinalTodos.InProgress, []string{"ship it"}) || len(rec.FinalTodos.Completed) != 0 {
		t.Errorf("FinalTodos = %+v", rec.FinalTodos)
	}
	wantItems := []string{"Design schema: tables for sessions", "ship it"}
	if !reflect.DeepEqual(rec.WorkItems, wantItems) {
		t.Errorf("WorkItems = %v, want %v", rec.WorkItems, wantItems)
	}
}

func TestBuild_LocalCommandNoise(t *testing.T) {
	long := strings.Repeat("a", 250)
	path := writeLog(t, "proj", "s3",
		`{"type":"user","message":{"content":"Caveat: The messages below were generated by the user while running local commands."}}`,
		`{"type":"user","message":{"content":"<command-name>/model</command-name>"}}`,
		`{"type":"user","message":{"content":"`+long+`"}}`,
	)

	rec, err := Build(path)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if rec.UserMessageCount != 2 {
		t.Errorf("UserMessageCount = %d, want 2", rec.UserMessageCount)
	}
	if rec.FirstMessage != "[/model]" {
		t.Errorf("FirstMessage = %q, want [/model]", rec.FirstMessage)
	}
	if last := rec.UserMessageArc[1]; len(last) != userMessageLimit {
		t.Errorf("last arc message has %d chars, want %d", len(last), userMessageLimit)
	}
	if rec.MessageCount != 3 {
		t.Errorf("MessageCount = %d, want 3", rec.MessageCount)
	}
}

func TestBuild_EmptyLog(t *testing.T) {
	path := writeLog(t, "proj", "empty")

	rec, err := Build(path)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if rec.FirstMessage != "No message" || len(rec.UserMessageArc) != 0 || rec.Timestamp != "" {
		t.Errorf("unexpected record for empty log: %+v", rec)
	}
	if rec.TermCounts == nil {
		t.Error("TermCounts should be an empty map, not nil")
	}
}

func TestBuild_MissingFile(t *testing.T) {
	if _, err := Build(filepath.Join(t.TempDir(), "nope", "x.jsonl")); err == nil {
		t.Error("Build() on a missing file should fail")
	}
}
