// Package mcpadapter is a thin MCP tool envelope over the Streaming Node
// Service and Task Planner (SPEC_FULL.md §4.7: "modelcontextprotocol/go-sdk
// + google/jsonschema-go... thin MCP tool envelope adapter over the
// streaming service"). spec.md §1 excludes "the JSON-RPC/MCP envelope that
// dispatches to tool handlers" from this repo's scope; this package is the
// minimal seam that satisfies that exclusion while still giving the
// dependency pair a concrete home, grounded on the teacher's
// internal/mcp/server.go tool-registration shape
// (mcp.NewServer/AddTool(&mcp.Tool{...}, handler)) and handlers.go's
// json.Unmarshal-into-params-then-createJSONResponse handler body style.
package mcpadapter

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nodebridge-labs/nodebridge/internal/codec"
	"github.com/nodebridge-labs/nodebridge/internal/stream"
)

// Register attaches nodebridge's tools to server.
func Register(server *mcp.Server, svc *stream.Service) {
	server.AddTool(&mcp.Tool{
		Name:        "get_node",
		Description: "Fetch a design node subtree, rendered to a DSL, streamed as a flat ordered list of frames.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"file_key":  {Type: "string"},
				"node_id":   {Type: "string"},
				"token":     {Type: "string"},
				"depth_end": {Type: "integer"},
				"format":    {Type: "string"},
				"recursive": {Type: "boolean"},
			},
			Required: []string{"file_key", "node_id", "token"},
		},
	}, handleGetNode(svc))

	server.AddTool(&mcp.Tool{
		Name:        "plan_tasks",
		Description: "Produce an ROI-ordered implementation plan for a design node subtree.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"file_key":  {Type: "string"},
				"node_id":   {Type: "string"},
				"token":     {Type: "string"},
				"depth":     {Type: "integer"},
				"max_tasks": {Type: "integer"},
				"recursive": {Type: "boolean"},
			},
			Required: []string{"file_key", "node_id", "token"},
		},
	}, handlePlanTasks(svc))
}

type getNodeParams struct {
	FileKey   string `json:"file_key"`
	NodeID    string `json:"node_id"`
	Token     string `json:"token"`
	DepthEnd  uint64 `json:"depth_end"`
	Format    string `json:"format"`
	Recursive bool   `json:"recursive"`
}

func handleGetNode(svc *stream.Service) func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var p getNodeParams
		if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
			return errorResult("get_node", err), nil
		}

		format := p.Format
		if format == "" {
			format = "jsx"
		}

		var frames []codec.FigmaNode
		err := svc.GetNodeStream(ctx, codec.GetNodeRequest{
			FileKey:   p.FileKey,
			NodeID:    p.NodeID,
			Token:     p.Token,
			DepthEnd:  p.DepthEnd,
			Format:    format,
			Recursive: p.Recursive,
		}, func(n codec.FigmaNode) error {
			frames = append(frames, n)
			return nil
		})
		if err != nil {
			return errorResult("get_node", err), nil
		}
		// A failed fetch of the requested node arrives as a lone error frame.
		if len(frames) == 1 {
			var frameErr struct {
				Error string `json:"error"`
			}
			if json.Unmarshal(frames[0].DSL, &frameErr) == nil && frameErr.Error != "" {
				return errorResult("get_node", errors.New(frameErr.Error)), nil
			}
		}
		return jsonResult(map[string]interface{}{"frames": frames})
	}
}

type planTasksParams struct {
	FileKey   string `json:"file_key"`
	NodeID    string `json:"node_id"`
	Token     string `json:"token"`
	Depth     uint64 `json:"depth"`
	MaxTasks  uint64 `json:"max_tasks"`
	Recursive bool   `json:"recursive"`
}

func handlePlanTasks(svc *stream.Service) func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var p planTasksParams
		if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
			return errorResult("plan_tasks", err), nil
		}

		resp, err := svc.PlanTasks(ctx, codec.PlanTasksRequest{
			FileKey:   p.FileKey,
			NodeID:    p.NodeID,
			Token:     p.Token,
			Depth:     p.Depth,
			MaxTasks:  p.MaxTasks,
			Recursive: p.Recursive,
		})
		if err != nil {
			return errorResult("plan_tasks", err), nil
		}
		return jsonResult(map[string]interface{}{
			"tasks":                 resp.Tasks,
			"total_estimated_tokens": resp.TotalEstimatedTokens,
			"root_node_id":          resp.RootNodeID,
			"summary":               resp.Summary,
		})
	}
}

// errorResult reports the failure inside the result body with IsError set,
// per the MCP SDK's guidance that tool errors must stay visible to the
// caller rather than become a protocol-level error the caller can't see.
func errorResult(tool string, err error) *mcp.CallToolResult {
	body, marshalErr := json.Marshal(map[string]interface{}{
		"success":   false,
		"operation": tool,
		"error":     err.Error(),
	})
	if marshalErr != nil {
		body = []byte(tool + ": " + err.Error())
	}
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: string(body)}},
	}
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return errorResult("encode", err), nil
	}
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: string(body)}}}, nil
}
