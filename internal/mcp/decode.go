package mcp

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// decode binds MCP request arguments to a typed struct. Unknown fields are
// ignored; type mismatches surface as INVALID_REQUEST at the call site.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var result T
	if err := req.BindArguments(&result); err != nil {
		return result, fmt.Errorf("decode arguments: %w", err)
	}
	return result, nil
}
