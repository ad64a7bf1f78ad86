package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// Tool names.
const (
	ToolSearch   = "deja_search"
	ToolRecent   = "deja_recent"
	ToolEpisodes = "deja_episodes"
	ToolRead     = "deja_read"
	ToolNote     = "deja_note"
	ToolProjects = "deja_projects"
)

func filterOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("project",
			mcp.Description("Only sessions whose project directory contains this text"),
		),
		mcp.WithString("after",
			mcp.Description("Only sessions at or after this ISO-8601 time"),
		),
		mcp.WithString("before",
			mcp.Description("Only sessions before this ISO-8601 time"),
		),
		mcp.WithNumber("skip",
			mcp.Description("Number of results to skip for paging"),
		),
	}
}

func CreateSearchTool() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Find past Claude Code sessions by keywords. Scores matches in todos, notes, touched files, commands and conversation text, favouring recent sessions. Returns session ids to pass to deja_episodes or deja_read."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Space-separated keywords"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (default 5)"),
		),
		mcp.WithBoolean("recent",
			mcp.Description("Sort matches by time instead of score"),
		),
	}
	return mcp.NewTool(ToolSearch, append(opts, filterOptions()...)...)
}

func CreateRecentTool() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription("List the most recently active Claude Code sessions with their completed and open todos."),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of sessions (default 10)"),
		),
	}
	return mcp.NewTool(ToolRecent, append(opts, filterOptions()...)...)
}

func CreateEpisodesTool() mcp.Tool {
	return mcp.NewTool(ToolEpisodes,
		mcp.WithDescription("Overview of one session: its episodes (units of completed work), todos, notes and files touched. Use the episode numbers with deja_read."),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session id or a unique prefix of one"),
		),
	)
}

func CreateReadTool() mcp.Tool {
	return mcp.NewTool(ToolRead,
		mcp.WithDescription("Read messages from a session. Target ':N' reads episode N, '@N' user turn N with context, 'N' message N, 'N-M' a message range. Without a target the first 50 messages are returned."),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session id or a unique prefix of one"),
		),
		mcp.WithString("target",
			mcp.Description("Navigation target: ':N', '@N', 'N' or 'N-M'"),
		),
		mcp.WithNumber("last",
			mcp.Description("Return the last N messages"),
		),
		mcp.WithNumber("expand",
			mcp.Description("Widen the selection on each side"),
		),
		mcp.WithBoolean("full",
			mcp.Description("Do not truncate assistant text at 500 characters"),
		),
	)
}

func CreateNoteTool() mcp.Tool {
	return mcp.NewTool(ToolNote,
		mcp.WithDescription("Attach a note to a session so later searches can find it."),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session id or a unique prefix of one"),
		),
		mcp.WithString("note",
			mcp.Required(),
			mcp.Description("Note text"),
		),
	)
}

func CreateProjectsTool() mcp.Tool {
	return mcp.NewTool(ToolProjects,
		mcp.WithDescription("List the project directories that hold session logs."),
	)
}
