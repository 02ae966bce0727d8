// SPDX-License-Identifier: Apache-2.0
package lsp

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"pyrite/internal/ast"
	"pyrite/internal/parser"
)

// PyriteHandler implements the LSP server handlers for the pyrite language:
// it parses documents on open and change and publishes syntax diagnostics.
type PyriteHandler struct {
	mu      sync.RWMutex
	content map[string]string
	asts    map[string]*ast.Module
}

// NewPyriteHandler creates and returns a new PyriteHandler instance
func NewPyriteHandler() *PyriteHandler {
	return &PyriteHandler{
		content: make(map[string]string),
		asts:    make(map[string]*ast.Module),
	}
}

// Initialize responds to the LSP client's initialize request and advertises the server's capabilities
func (h *PyriteHandler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Println("LSP Initialize called")

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: ptrBool(true), // notify on open/close events
				Change:    ptrSyncKind(protocol.TextDocumentSyncKindFull),
			},
			CompletionProvider: &protocol.CompletionOptions{
				ResolveProvider: ptrBool(false),
			},
		},
	}, nil
}

// Initialized is called after the client receives the server's capabilities
func (h *PyriteHandler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	log.Println("Pyrite LSP Initialized")
	return nil
}

// Shutdown handles the LSP shutdown request
func (h *PyriteHandler) Shutdown(ctx *glsp.Context) error {
	log.Println("Pyrite LSP Shutdown")
	return nil
}

// SetTrace handles trace level changes
func (h *PyriteHandler) SetTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// TextDocumentDidOpen handles file open notifications from the editor
func (h *PyriteHandler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	log.Printf("Opened file: %s\n", params.TextDocument.URI)

	diagnostics, err := h.updateAST(params.TextDocument.URI)
	if err != nil {
		return fmt.Errorf("failed to update AST: %w", err)
	}

	sendDiagnosticNotification(ctx, params.TextDocument.URI, diagnostics)
	return nil
}

// TextDocumentDidClose handles file close notifications from the editor
func (h *PyriteHandler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	log.Printf("Closed file: %s\n", params.TextDocument.URI)

	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return fmt.Errorf("failed to convert URI %s: %w", params.TextDocument.URI, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.content, path)
	delete(h.asts, path)

	return nil
}

// TextDocumentDidChange handles file change notifications from the editor
func (h *PyriteHandler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	log.Printf("Changed file: %s\n", params.TextDocument.URI)

	diagnostics, err := h.updateAST(params.TextDocument.URI)
	if err != nil {
		return fmt.Errorf("failed to update AST: %w", err)
	}

	sendDiagnosticNotification(ctx, params.TextDocument.URI, diagnostics)
	return nil
}

// TextDocumentCompletion offers the language keywords
func (h *PyriteHandler) TextDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (interface{}, error) {
	keywords := []string{"print", "if", "else", "while", "and", "or", "not", "is", "def", "return", "lambda", "break", "True", "False"}
	kind := protocol.CompletionItemKindKeyword

	items := make([]protocol.CompletionItem, len(keywords))
	for i, kw := range keywords {
		items[i] = protocol.CompletionItem{Label: kw, Kind: &kind}
	}
	return &protocol.CompletionList{
		IsIncomplete: false,
		Items:        items,
	}, nil
}

func (h *PyriteHandler) updateAST(rawURI protocol.DocumentUri) ([]protocol.Diagnostic, error) {
	path, err := uriToPath(rawURI)
	if err != nil {
		return nil, fmt.Errorf("failed to convert URI %s: %w", rawURI, err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	module, parseErr := parser.ParseSource(path, string(content))
	if parseErr != nil {
		return ConvertParseError(parseErr), nil
	}

	h.mu.Lock()
	h.content[path] = string(content)
	h.asts[path] = module
	h.mu.Unlock()

	// an empty list clears stale diagnostics on the client
	return []protocol.Diagnostic{}, nil
}

// Convert URI to platform-local file path
func uriToPath(rawURI string) (string, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return "", fmt.Errorf("invalid URI %s: %w", rawURI, err)
	}

	path := u.Path

	// On Windows, remove leading slash (e.g., /C:/...) -> C:/...
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") && len(path) > 3 && path[2] == ':' {
		path = path[1:]
	}

	return filepath.FromSlash(path), nil
}

func sendDiagnosticNotification(ctx *glsp.Context, uri protocol.URI, diagnostics []protocol.Diagnostic) {
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

func ptrBool(b bool) *bool {
	return &b
}

func ptrSyncKind(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
