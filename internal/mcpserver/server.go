// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Inkwell document tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/docservice"
)

const syntaxURI = "inkwell://syntax"

// Server wraps the MCP server with Inkwell tools.
type Server struct {
	mcp *server.MCPServer
	svc *docservice.Service
}

// New creates a new MCP server with all Inkwell tools registered.
func New(svc *docservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Inkwell",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List indexed documents, optionally only those below a folder."),
		mcp.WithString("folder", mcp.Description("Optional folder prefix (empty for all)")),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("get_document",
		mcp.WithDescription("Get a document's permalink, title, front matter, outgoing links, backlinks and embedders."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Document path without .md (e.g. folder/doc)")),
	), s.getDocument)

	s.mcp.AddTool(mcp.NewTool("preview_document",
		mcp.WithDescription("Render a document to HTML with all links, embeds and blocks resolved."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Document path without .md")),
	), s.previewDocument)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all documents that link to the specified document."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Document path without .md")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("build_site",
		mcp.WithDescription("Re-index the markdown root and rebuild every page of the site."),
	), s.buildSite)

	s.mcp.AddTool(mcp.NewTool("upload_media",
		mcp.WithDescription("Store an image, audio, video or PDF file next to the documents. "+
			"Returns the wikilink embed to paste into a document."),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or base64 data URI of the file")),
		mcp.WithString("filename", mcp.Description("Optional file name; derived from the URL when empty")),
	), s.uploadMedia)

	s.mcp.AddTool(mcp.NewTool("get_syntax_guide",
		mcp.WithDescription("Returns the markdown syntax documents are written in. "+
			"Call this before writing documents."),
	), s.getSyntaxGuide)

	s.mcp.AddResource(
		mcp.NewResource(syntaxURI, "Markdown Syntax Guide",
			mcp.WithResourceDescription("Wikilinks, embeds, highlights, admonitions and FAQ blocks."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readSyntaxResource,
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

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func lookupError(key string, err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", key))
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := ""
	if f, err := req.RequireString("folder"); err == nil {
		folder = strings.Trim(f, "/")
	}

	items, err := s.svc.ListDocuments(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var keys []string
	for _, it := range items {
		if folder != "" && !strings.HasPrefix(it.Key, folder+"/") {
			continue
		}
		keys = append(keys, it.Key)
	}
	return mcp.NewToolResultText(strings.Join(keys, "\n")), nil
}

func (s *Server) getDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.svc.GetDocument(ctx, key)
	if err != nil {
		return lookupError(key, err), nil
	}
	return jsonResult(doc), nil
}

func (s *Server) previewDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	body, err := s.svc.Preview(ctx, key)
	if err != nil {
		return lookupError(key, err), nil
	}
	return mcp.NewToolResultText(string(body)), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.svc.GetDocument(ctx, key)
	if err != nil {
		return lookupError(key, err), nil
	}
	if len(doc.Backlinks) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return mcp.NewToolResultText(strings.Join(doc.Backlinks, "\n")), nil
}

func (s *Server) buildSite(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := s.svc.BuildAll(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"built":  len(report.Built),
		"failed": report.Failed,
	}), nil
}

func (s *Server) getSyntaxGuide(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(SyntaxGuide), nil
}

func (s *Server) readSyntaxResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      syntaxURI,
			MIMEType: "text/markdown",
			Text:     SyntaxGuide,
		},
	}, nil
}
