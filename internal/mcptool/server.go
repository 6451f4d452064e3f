// Package mcptool exposes the tagger and the corpus search as MCP tools over
// stdio, so agent frontends can call them without going through HTTP.
package mcptool

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/DlutRDSerivice/dlut-research-service/internal/bio"
	"github.com/DlutRDSerivice/dlut-research-service/internal/query"
	"github.com/DlutRDSerivice/dlut-research-service/internal/token"
)

// Server wraps an MCP server around the lexicon tagger and the paper index.
type Server struct {
	tok       token.Tokenizer
	entities  []bio.Entity
	index     *query.Index
	mcpServer *server.MCPServer
}

// NewServer registers the tools. index may be nil when no corpus directory was
// given; search_papers then returns an error result instead of matches.
func NewServer(version string, tok token.Tokenizer, entities []bio.Entity, index *query.Index) *Server {
	s := &Server{
		tok:       tok,
		entities:  entities,
		index:     index,
		mcpServer: server.NewMCPServer("dlut-research", version),
	}
	s.registerTools()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	tagTool := mcp.NewTool("tag_text",
		mcp.WithDescription("Tag a piece of research text with BIO labels from the loaded lexicon. Returns one token<TAB>label line per token."),
		mcp.WithString("text", mcp.Required(), mcp.Description("The text to tokenize and tag")),
	)
	s.mcpServer.AddTool(tagTool, s.handleTagText)

	searchTool := mcp.NewTool("search_papers",
		mcp.WithDescription("Search the loaded corpus with a boolean field query such as \"ts=deep learning AND py=2020\". Returns matching paper titles, one per line."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Query with field=term conditions combined by AND, OR, NOT and parentheses")),
	)
	s.mcpServer.AddTool(searchTool, s.handleSearchPapers)
}

func (s *Server) handleTagText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tokens := s.tok.Tokenize(text)
	if len(tokens) == 0 {
		return mcp.NewToolResultError("text contains no tokens"), nil
	}
	labels := bio.Tag(tokens, s.entities, s.tok.Tokenize)

	var b strings.Builder
	for i, tok := range tokens {
		fmt.Fprintf(&b, "%s\t%s\n", tok, labels[i])
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleSearchPapers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.index == nil {
		return mcp.NewToolResultError("no corpus loaded"), nil
	}
	q, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	hits, err := s.index.Search(q)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(hits) == 0 {
		return mcp.NewToolResultText("(no matches)"), nil
	}

	var b strings.Builder
	for _, i := range hits {
		b.WriteString(s.index.Record(i).Title())
		b.WriteByte('\n')
	}
	return mcp.NewToolResultText(b.String()), nil
}
