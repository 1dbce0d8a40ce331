// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes folio content tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/contentservice"
	"github.com/starford/folio/internal/lifecycle"
	"github.com/starford/folio/internal/models"
)

// Server wraps the MCP server with folio tools.
type Server struct {
	mcp *server.MCPServer
	svc *contentservice.Service
}

// New creates a new MCP server with all folio tools registered.
func New(svc *contentservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Folio",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_content",
		mcp.WithDescription("Relevance search over posts and pages. Queries shorter than two characters return nothing."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithString("locale", mcp.Description("Restrict results to this locale (empty for all)")),
	), s.searchContent)

	s.mcp.AddTool(mcp.NewTool("read_post",
		mcp.WithDescription("Read a post as Markdown with frontmatter, falling back through the configured locales."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Post slug")),
		mcp.WithString("locale", mcp.Description("Preferred locale")),
		mcp.WithBoolean("preview", mcp.Description("Include drafts and future scheduled posts")),
	), s.readPost)

	s.mcp.AddTool(mcp.NewTool("list_posts",
		mcp.WithDescription("List the published posts of a locale, newest first."),
		mcp.WithString("locale", mcp.Description("Locale to list (defaults to the site default)")),
	), s.listPosts)

	s.mcp.AddTool(mcp.NewTool("read_page",
		mcp.WithDescription("Read a static page as JSON."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Page slug")),
		mcp.WithString("locale", mcp.Description("Preferred locale")),
	), s.readPage)

	s.mcp.AddTool(mcp.NewTool("save_post",
		mcp.WithDescription("Create or replace a Markdown post. Content MUST follow the post format "+
			"contract; read it first via the get_content_contract tool or the "+ContractURI+" resource."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Post slug; overrides any slug in the header")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown with frontmatter")),
		mcp.WithString("locale", mcp.Description("Locale to save into (defaults to the site default)")),
	), s.savePost)

	s.mcp.AddTool(mcp.NewTool("get_content_contract",
		mcp.WithDescription("Returns the Markdown post format contract. "+
			"Call this before saving posts to ensure correct structure."),
	), s.getContentContract)

	s.mcp.AddResource(
		mcp.NewResource(ContractURI, "Post Format Contract",
			mcp.WithResourceDescription("Markdown post format accepted by save_post."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
	)

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

type searchHit struct {
	Kind   models.ContentType `json:"kind"`
	Locale string             `json:"locale"`
	Slug   string             `json:"slug"`
	Title  string             `json:"title"`
	Score  float64            `json:"score"`
}

func (s *Server) searchContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results := s.svc.Search(ctx, query, req.GetString("locale", ""), lifecycle.Public)
	hits := make([]searchHit, len(results))
	for i, r := range results {
		hits[i] = searchHit{
			Kind:   r.Document.Kind,
			Locale: r.Document.Locale,
			Slug:   r.Document.Slug,
			Title:  r.Document.Title,
			Score:  r.Score,
		}
	}
	out, _ := json.MarshalIndent(hits, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readPost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	vis := lifecycle.Public
	if req.GetBool("preview", false) {
		vis = lifecycle.PreviewAll
	}
	res, err := s.svc.GetPost(ctx, slug, req.GetString("locale", ""), vis)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", slug)), nil
	}
	data, err := content.EncodePost(&res.Entity, models.FormatMarkdown)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) listPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	loc := req.GetString("locale", s.svc.Site().DefaultLocale)
	posts := s.svc.ListPosts(ctx, loc, lifecycle.Public)
	if len(posts) == 0 {
		return mcp.NewToolResultText("no posts found"), nil
	}
	lines := make([]string, len(posts))
	for i, p := range posts {
		date := ""
		if !p.Entity.Date.IsZero() {
			date = p.Entity.Date.Format(time.DateOnly)
		}
		lines[i] = strings.Join([]string{p.Entity.Slug, date, p.Entity.Title}, "\t")
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) readPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.GetPage(ctx, slug, req.GetString("locale", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", slug)), nil
	}
	out, _ := json.MarshalIndent(res.Entity, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) savePost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	loc := req.GetString("locale", s.svc.Site().DefaultLocale)

	post, err := content.DecodePost([]byte(text), models.FormatMarkdown)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	post.Slug = slug
	if err := s.svc.SavePost(ctx, loc, &post, models.FormatMarkdown); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("saved: %s", content.Key(models.TypePost, loc, slug, models.FormatMarkdown))), nil
}

func (s *Server) getContentContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(PostFormatContract), nil
}

func (s *Server) readContractResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ContractURI,
			MIMEType: "text/markdown",
			Text:     PostFormatContract,
		},
	}, nil
}
