// SPDX-License-Identifier: Apache-2.0
package main

import (
	"log"
	"os"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"pyrite/internal/lsp"
)

const lsName = "pyrite" // Name identifier for the language server

var (
	version = "0.0.1"        // Server version
	handler protocol.Handler // Protocol handler instance (wired up below)
)

func main() {
	// Configure logging (verbosity 1 = info level, nil = default logger)
	commonlog.Configure(1, nil)

	pyriteHandler := lsp.NewPyriteHandler()

	// Wire up the handler with specific LSP method implementations
	handler = protocol.Handler{
		Initialize:             pyriteHandler.Initialize,
		Initialized:            pyriteHandler.Initialized,
		Shutdown:               pyriteHandler.Shutdown,
		SetTrace:               pyriteHandler.SetTrace,
		TextDocumentDidOpen:    pyriteHandler.TextDocumentDidOpen,
		TextDocumentDidClose:   pyriteHandler.TextDocumentDidClose,
		TextDocumentDidChange:  pyriteHandler.TextDocumentDidChange,
		TextDocumentCompletion: pyriteHandler.TextDocumentCompletion,
	}

	s := server.NewServer(&handler, lsName, false)

	log.Println("Starting Pyrite LSP server...")

	// The server speaks LSP over standard input/output, as editors expect
	err := s.RunStdio()
	if err != nil {
		log.Println("Error starting Pyrite LSP server:", err)
		os.Exit(1)
	}
}
