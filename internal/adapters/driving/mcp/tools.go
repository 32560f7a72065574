package mcp

import (
	"context"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/athena/internal/core/domain"
)

// defaultSearchK is used when the caller omits k.
const defaultSearchK = 5

// SearchInput is the input schema for the search_policies tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the question or keywords to look up in the policies"`
	K     int    `json:"k,omitempty" jsonschema:"maximum number of chunks to return (default 5)"`
}

// SearchOutput is the output schema for the search_policies tool.
type SearchOutput struct {
	Results []ChunkOutput `json:"results"`
	Count   int           `json:"count"`
}

// ChunkOutput is one reranked chunk.
type ChunkOutput struct {
	Source   string  `json:"source"`
	Page     int     `json:"page"`
	Score    float64 `json:"score"`
	Category string  `json:"category,omitempty"`
	Role     string  `json:"role,omitempty"`
	Topic    string  `json:"topic,omitempty"`
	Text     string  `json:"text"`
}

// ContextInput is the input schema for the policy_context tool.
type ContextInput struct {
	Query        string `json:"query" jsonschema:"the question the context should answer"`
	K            int    `json:"k,omitempty" jsonschema:"number of snippets in qa mode"`
	MaxChars     int    `json:"max_chars,omitempty" jsonschema:"upper bound on the context length in characters"`
	MaxPerSource int    `json:"max_per_source,omitempty" jsonschema:"maximum snippets taken from one document"`
	Mode         string `json:"mode,omitempty" jsonschema:"qa (default) or summary"`
}

// ContextOutput is the output schema for the policy_context tool.
type ContextOutput struct {
	Context          string            `json:"context"`
	Citations        []domain.Citation `json:"citations"`
	Snippets         int               `json:"snippets"`
	PreferredSources []string          `json:"preferred_sources,omitempty"`
}

// StatusInput is the (empty) input schema for the ingest_status tool.
type StatusInput struct{}

// StatusOutput is the output schema for the ingest_status tool.
type StatusOutput struct {
	SchemaVersion int              `json:"schema_version"`
	Documents     []DocumentStatus `json:"documents"`
	TotalChunks   int              `json:"total_chunks"`
}

// DocumentStatus is one tracked policy file.
type DocumentStatus struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Chunks int    `json:"chunks"`
	Error  string `json:"error,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_policies",
		Description: "Find the policy passages most relevant to a query",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "policy_context",
		Description: "Assemble cited policy context for answering a question",
	}, s.handleContext)

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest_status",
			Description: "List indexed policy documents and their ingestion status",
		}, s.handleStatus)
	}
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	k := input.K
	if k <= 0 {
		k = defaultSearchK
	}

	matches, err := s.ports.Retrieval.Search(ctx, input.Query, k)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	matches = s.ports.Retrieval.Rerank(input.Query, matches)

	output := SearchOutput{
		Results: make([]ChunkOutput, len(matches)),
		Count:   len(matches),
	}
	for i, m := range matches {
		output.Results[i] = ChunkOutput{
			Source:   m.Source,
			Page:     m.Page,
			Score:    m.Score,
			Category: m.Category,
			Role:     m.Role,
			Topic:    m.Topic,
			Text:     m.Text,
		}
	}
	return nil, output, nil
}

func (s *Server) handleContext(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ContextInput,
) (*mcp.CallToolResult, ContextOutput, error) {
	mode, err := domain.ParseMode(input.Mode)
	if err != nil {
		return nil, ContextOutput{}, err
	}

	assembled, err := s.ports.Retrieval.Assemble(ctx, input.Query, domain.AssembleOptions{
		K:            input.K,
		MaxChars:     input.MaxChars,
		MaxPerSource: input.MaxPerSource,
		Mode:         mode,
	})
	if err != nil {
		return nil, ContextOutput{}, err
	}

	citations := assembled.Citations
	if citations == nil {
		citations = []domain.Citation{}
	}
	return nil, ContextOutput{
		Context:          assembled.Text,
		Citations:        citations,
		Snippets:         assembled.Snippets,
		PreferredSources: assembled.PreferredSources,
	}, nil
}

func (s *Server) handleStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	out, err := s.status(ctx)
	return nil, out, err
}

func (s *Server) status(ctx context.Context) (StatusOutput, error) {
	state, err := s.ports.Ingest.Status(ctx)
	if err != nil {
		return StatusOutput{}, err
	}

	out := StatusOutput{
		SchemaVersion: state.SchemaVersion,
		Documents:     make([]DocumentStatus, 0, len(state.Documents)),
	}
	for name, doc := range state.Documents {
		out.Documents = append(out.Documents, DocumentStatus{
			Name:   name,
			Status: string(doc.Status),
			Chunks: doc.Chunks,
			Error:  doc.Error,
		})
		out.TotalChunks += doc.Chunks
	}
	sort.Slice(out.Documents, func(i, j int) bool {
		return out.Documents[i].Name < out.Documents[j].Name
	})
	return out, nil
}
