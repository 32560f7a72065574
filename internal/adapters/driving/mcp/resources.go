package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// uriScheme is the custom URI scheme for Athena resources.
const uriScheme = "athena://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	if s.ports.Ingest == nil {
		return
	}
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "status",
		Name:        "ingest-status",
		Description: "Indexed policy documents and their ingestion status",
		MIMEType:    "application/json",
	}, s.handleStatusResource)
}

func (s *Server) handleStatusResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	out, err := s.status(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading ingest status: %w", err)
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshalling status: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
