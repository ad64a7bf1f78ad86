package episodes

import (
	"sort"

	"github.com/jasperwreed/deja/internal/models"
)

// Segment walks the snapshots in order and closes an episode each time a
// todo content is completed for the first time. The boundary advances after
// every emission, so several completions in one snapshot yield zero-width
// episodes for all but the first.
func Segment(snapshots []models.TodoSnapshot) []models.Episode {
	episodes := []models.Episode{}
	closed := make(map[string]struct{})
	prev := 0

	for _, snap := range snapshots {
		for _, todo := range snap.Todos {
			if todo.Status != models.StatusCompleted || todo.Content == "" {
				continue
			}
			if _, done := closed[todo.Content]; done {
				continue
			}

			episodes = append(episodes, models.Episode{
				Title:        todo.Content,
				MessageRange: [2]int{prev, snap.MessageIndex},
				CompletedAt:  snap.MessageIndex,
				MessageCount: snap.MessageIndex - prev,
			})
			closed[todo.Content] = struct{}{}
			prev = snap.MessageIndex
		}
	}

	return episodes
}

// Final groups the latest snapshot's todos by status. Contents are distinct
// across categories; the first occurrence in the snapshot decides the
// status. Deleted tasks are left out and unknown statuses count as pending.
func Final(snapshots []models.TodoSnapshot) models.FinalTodos {
	final := models.FinalTodos{
		Completed:  []string{},
		InProgress: []string{},
		Pending:    []string{},
	}
	if len(snapshots) == 0 {
		return final
	}

	seen := make(map[string]struct{})
	for _, todo := range snapshots[len(snapshots)-1].Todos {
		if todo.Content == "" || todo.Status == models.StatusDeleted {
			continue
		}
		if _, dup := seen[todo.Content]; dup {
			continue
		}
		seen[todo.Content] = struct{}{}

		switch todo.Status {
		case models.StatusCompleted:
			final.Completed = append(final.Completed, todo.Content)
		case models.StatusInProgress:
			final.InProgress = append(final.InProgress, todo.Content)
		default:
			final.Pending = append(final.Pending, todo.Content)
		}
	}
	return final
}

// WorkItems is the sorted union of final todo contents and episode titles.
func WorkItems(final models.FinalTodos, episodes []models.Episode) []string {
	set := make(map[string]struct{})
	for _, c := range final.All() {
		set[c] = struct{}{}
	}
	for _, ep := range episodes {
		if ep.Title != "" {
			set[ep.Title] = struct{}{}
		}
	}

	items := make([]string, 0, len(set))
	for item := range set {
		items = append(items, item)
	}
	sort.Strings(items)
	return items
}

// Descriptions returns the non-empty task descriptions of the latest
// snapshot.
func Descriptions(snapshots []models.TodoSnapshot) []string {
	if len(snapshots) == 0 {
		return nil
	}
	var out []string
	for _, todo := range snapshots[len(snapshots)-1].Todos {
		if todo.Description != "" {
			out = append(out, todo.Description)
		}
	}
	return out
}
