// SPDX-License-Identifier: Apache-2.0
package lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"pyrite/internal/parser"
)

func TestConvertParseErrorPositions(t *testing.T) {
	_, err := parser.ParseSource("bad.py", "x = = 5\n")
	require.Error(t, err)

	diagnostics := ConvertParseError(err)
	require.Len(t, diagnostics, 1)

	d := diagnostics[0]
	require.NotNil(t, d.Severity)
	assert.NotEmpty(t, d.Message)
	assert.Equal(t, uint32(0), d.Range.Start.Line)
}

func TestHandlerTracksDocuments(t *testing.T) {
	h := NewPyriteHandler()
	require.NotNil(t, h)
	assert.Empty(t, h.content)
	assert.Empty(t, h.asts)
}

func TestCompletionOffersKeywords(t *testing.T) {
	h := NewPyriteHandler()
	result, err := h.TextDocumentCompletion(nil, nil)
	require.NoError(t, err)

	list, ok := result.(*protocol.CompletionList)
	require.True(t, ok)
	assert.False(t, list.IsIncomplete)

	labels := map[string]bool{}
	for _, item := range list.Items {
		labels[item.Label] = true
	}
	assert.True(t, labels["lambda"])
	assert.True(t, labels["while"])
}
