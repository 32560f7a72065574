package tagger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/athena/internal/core/domain"
)

func TestProcessor_Process(t *testing.T) {
	doc := &domain.SourceDocument{Name: "Policy_X.pdf"}
	chunks := []domain.ChunkRecord{
		{Text: "Prazo de pagamento: 30 dias.", Source: "Policy_X.pdf", Page: 1, Order: 0},
		{Text: "Multa por atraso: 2% ao mes.", Page: 2, Order: 1},
	}

	out, err := New().Process(context.Background(), doc, chunks)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "prazo", out[0].Role)
	assert.Equal(t, "condicoes de pagamento", out[0].Topic)
	assert.Equal(t, "risco", out[1].Role)
	assert.Equal(t, "penalidades", out[1].Topic)
	for _, c := range out {
		assert.Equal(t, "politica", c.DocType)
		assert.Equal(t, "financeiro", c.Category)
	}
}

func TestProcessor_Name(t *testing.T) {
	assert.Equal(t, "tagger", New().Name())
}

func TestProcessor_Process_NoChunks(t *testing.T) {
	out, err := New().Process(context.Background(), &domain.SourceDocument{Name: "a.pdf"}, nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}
