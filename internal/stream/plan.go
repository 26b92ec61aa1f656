package stream

import (
	"context"

	"github.com/nodebridge-labs/nodebridge/internal/codec"
	"github.com/nodebridge-labs/nodebridge/internal/designapi"
	"github.com/nodebridge-labs/nodebridge/internal/idnorm"
	"github.com/nodebridge-labs/nodebridge/internal/planner"
	"github.com/nodebridge-labs/nodebridge/internal/types"
)

// PlanTasks implements spec.md §4.5's PlanTasks RPC: fetch the requested
// subtree (optionally recursively, reusing GetNodeStream's bounds) and hand
// it to the planner.
func (s *Service) PlanTasks(ctx context.Context, req codec.PlanTasksRequest) (codec.PlanTasksResponse, error) {
	fileKey, nodeID, ok := idnorm.Resolve(req.FileKey, req.NodeID, "")
	if !ok {
		return codec.PlanTasksResponse{}, nil
	}

	root, err := s.fetchTree(ctx, fileKey, nodeID, req)
	if err != nil {
		return codec.PlanTasksResponse{}, err
	}

	return planner.Plan(root, planner.Config{MaxTasks: req.MaxTasks}), nil
}

// fetchTree resolves the subtree PlanTasks operates on: a single fetch at
// req.Depth normally, or a cache-backed recursive assembly mirroring
// streamRecursive's bounds when req.Recursive is set.
func (s *Service) fetchTree(ctx context.Context, fileKey, nodeID string, req codec.PlanTasksRequest) (*types.ParsedNode, error) {
	if !req.Recursive {
		raw, err := s.fetchNodeDocument(ctx, fileKey, nodeID, nil, designapi.FetchOptions{
			Token: req.Token, Depth: int(req.Depth),
		})
		if err != nil {
			return nil, err
		}
		return types.ParseNode(raw)
	}

	maxDepth := int(req.RecursiveMaxDepth)
	maxNodes := int(req.RecursiveMaxNodes)
	if maxNodes <= 0 {
		maxNodes = 1 << 20
	}

	visited := map[types.NodeID]bool{types.NodeID(nodeID): true}
	count := 0

	var assemble func(id types.NodeID, depth int) (*types.ParsedNode, error)
	assemble = func(id types.NodeID, depth int) (*types.ParsedNode, error) {
		if count >= maxNodes {
			return nil, nil
		}
		raw, err := s.fetchNodeDocument(ctx, fileKey, string(id), nil, designapi.FetchOptions{Token: req.Token})
		if err != nil {
			return nil, err
		}
		n, err := types.ParseNode(raw)
		if err != nil {
			return nil, err
		}
		count++
		if depth >= maxDepth {
			n.Children = nil
			return n, nil
		}
		var children []*types.ParsedNode
		for _, c := range n.Children {
			if visited[c.ID] || count >= maxNodes {
				continue
			}
			visited[c.ID] = true
			child, err := assemble(c.ID, depth+1)
			if err != nil {
				return nil, err
			}
			if child != nil {
				children = append(children, child)
			}
		}
		n.Children = children
		return n, nil
	}
	return assemble(types.NodeID(nodeID), 0)
}
