package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/contentservice"
	"github.com/starford/folio/internal/storage"
	"github.com/starford/folio/internal/testutil"
)

func testServer(t *testing.T) (*Server, storage.Store) {
	t.Helper()
	_, store := testutil.TestStore(t)
	r := content.NewResolver(store, testutil.Site(),
		content.WithClock(testutil.Clock),
		content.WithLogger(testutil.Logger()))
	svc := contentservice.New(r, store, contentservice.WithLogger(testutil.Logger()))
	return New(svc), store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no in-process "call tool" helper; invoke the handlers directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_content":
		result, err = srv.searchContent(ctx, req)
	case "read_post":
		result, err = srv.readPost(ctx, req)
	case "list_posts":
		result, err = srv.listPosts(ctx, req)
	case "read_page":
		result, err = srv.readPage(ctx, req)
	case "save_post":
		result, err = srv.savePost(ctx, req)
	case "get_content_contract":
		result, err = srv.getContentContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestSaveAndReadPost(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "save_post", map[string]any{
		"slug":    "hello",
		"content": "---\ntitle: \"Hello: MCP\"\ntags: go, mcp\n---\nBody\n",
	})
	if r.IsError {
		t.Fatalf("save failed: %s", resultText(r))
	}
	if got := resultText(r); got != "saved: content/posts/en/hello.md" {
		t.Errorf("save result = %q", got)
	}

	r = callTool(t, srv, "read_post", map[string]any{"slug": "hello", "locale": "de"})
	text := resultText(r)
	for _, want := range []string{"title: \"Hello: MCP\"", "slug: hello", "tags: go, mcp", "\n---\nBody\n"} {
		if !strings.Contains(text, want) {
			t.Errorf("read result missing %q:\n%s", want, text)
		}
	}
}

func TestSavePostValidation(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "save_post", map[string]any{"slug": "untitled", "content": "no header"})
	if !r.IsError {
		t.Error("expected a validation error for a post without title")
	}
}

func TestReadPostMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_post", map[string]any{"slug": "nope"})
	if !r.IsError {
		t.Error("expected error for missing post")
	}
}

func TestReadPostDraftNeedsPreview(t *testing.T) {
	srv, store := testServer(t)
	testutil.Seed(t, store, map[string]string{
		"content/posts/en/wip.json": `{"title":"WIP","slug":"wip","status":"draft"}`,
	})
	if r := callTool(t, srv, "read_post", map[string]any{"slug": "wip"}); !r.IsError {
		t.Error("draft should not be readable without preview")
	}
	if r := callTool(t, srv, "read_post", map[string]any{"slug": "wip", "preview": true}); r.IsError {
		t.Errorf("preview read failed: %s", resultText(r))
	}
}

func TestListPosts(t *testing.T) {
	srv, store := testServer(t)
	if got := resultText(callTool(t, srv, "list_posts", map[string]any{})); got != "no posts found" {
		t.Errorf("empty list = %q", got)
	}
	testutil.Seed(t, store, map[string]string{
		"content/posts/en/a.json": `{"title":"A","slug":"a","date":"2024-01-02T00:00:00Z"}`,
		"content/posts/en/b.json": `{"title":"B","slug":"b","date":"2024-03-04T00:00:00Z"}`,
	})
	got := resultText(callTool(t, srv, "list_posts", map[string]any{}))
	if want := "b\t2024-03-04\tB\na\t2024-01-02\tA"; got != want {
		t.Errorf("list = %q, want %q", got, want)
	}
}

func TestSearchContent(t *testing.T) {
	srv, store := testServer(t)
	testutil.Seed(t, store, map[string]string{
		"content/pages/en/about.json": `{"title":"About us","slug":"about"}`,
	})
	r := callTool(t, srv, "search_content", map[string]any{"query": "about"})
	var hits []searchHit
	if err := json.Unmarshal([]byte(resultText(r)), &hits); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(hits) != 1 || hits[0].Slug != "about" {
		t.Errorf("hits = %+v", hits)
	}
}

func TestReadPage(t *testing.T) {
	srv, store := testServer(t)
	testutil.Seed(t, store, map[string]string{
		"content/pages/de/impressum.json": `{"title":"Impressum","slug":"impressum"}`,
	})
	r := callTool(t, srv, "read_page", map[string]any{"slug": "impressum", "locale": "de"})
	if r.IsError || !strings.Contains(resultText(r), `"title": "Impressum"`) {
		t.Errorf("read_page = %q", resultText(r))
	}
}

func TestContract(t *testing.T) {
	srv, _ := testServer(t)
	text := resultText(callTool(t, srv, "get_content_contract", nil))
	if !strings.Contains(text, "Folio Post Format Contract") {
		t.Errorf("unexpected contract: %q", text)
	}
	res, err := srv.readContractResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil || len(res) != 1 {
		t.Fatalf("resource = %v, %v", res, err)
	}
	if _, ok := res[0].(mcp.TextResourceContents); !ok {
		t.Errorf("resource content type = %T", res[0])
	}
}
