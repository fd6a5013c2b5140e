// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes read-only archive browsing tools over stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/muninn/internal/archive"
)

// Server wraps the MCP server with archive tools. All tools are read-only;
// curation stays on the HTTP API.
type Server struct {
	mcp *server.MCPServer
	db  *archive.DB
}

// New creates a new MCP server with all archive tools registered.
func New(db *archive.DB) *Server {
	s := &Server{db: db}

	s.mcp = server.NewMCPServer(
		"Muninn",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("search_posts",
		mcp.WithDescription("Search archived posts by title substring."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Substring to match against post titles")),
	), s.searchPosts)

	s.mcp.AddTool(mcp.NewTool("get_post",
		mcp.WithDescription("Read one archived post with its tags and authors."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Post id")),
	), s.getPost)

	s.mcp.AddTool(mcp.NewTool("list_authors",
		mcp.WithDescription("List archived authors, newest first."),
	), s.listAuthors)

	s.mcp.AddTool(mcp.NewTool("list_tags",
		mcp.WithDescription("List archive tags, newest first."),
	), s.listTags)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	h := s.db.Acquire()
	defer h.Release()

	rows, err := h.Query(`
		SELECT id, title FROM posts
		WHERE title LIKE '%' || ? || '%'
		ORDER BY id DESC LIMIT 20
	`, query)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	defer rows.Close()

	type hit struct {
		ID    archive.PostID `json:"id"`
		Title string         `json:"title"`
	}
	hits := []hit{}
	for rows.Next() {
		var x hit
		if err := rows.Scan(&x.ID, &x.Title); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		hits = append(hits, x)
	}
	if err := rows.Err(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out, _ := json.MarshalIndent(hits, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getPost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	h := s.db.Acquire()
	defer h.Release()

	post, err := archive.ScanPost(h.QueryRow(`SELECT * FROM posts WHERE id = ?`, id))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("post %d: %v", id, err)), nil
	}
	tags, err := h.PostTags(post.ID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	authors, err := h.PostAuthors(post.ID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out, _ := json.MarshalIndent(map[string]any{
		"post":    post,
		"tags":    tags,
		"authors": authors,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listAuthors(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h := s.db.Acquire()
	defer h.Release()

	rows, err := h.Query(`SELECT id, name, thumb, updated FROM authors ORDER BY id DESC LIMIT 100`)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	defer rows.Close()

	authors := []archive.Author{}
	for rows.Next() {
		a, err := archive.ScanAuthor(rows)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		authors = append(authors, a)
	}
	if err := rows.Err(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out, _ := json.MarshalIndent(authors, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h := s.db.Acquire()
	defer h.Release()

	rows, err := h.Query(`SELECT id, name, platform FROM tags ORDER BY id DESC LIMIT 100`)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	defer rows.Close()

	tags := []archive.Tag{}
	for rows.Next() {
		t, err := archive.ScanTag(rows)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out, _ := json.MarshalIndent(tags, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
