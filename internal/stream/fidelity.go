package stream

import (
	"context"
	"fmt"

	"github.com/nodebridge-labs/nodebridge/internal/codec"
	"github.com/nodebridge-labs/nodebridge/internal/designapi"
	"github.com/nodebridge-labs/nodebridge/internal/idnorm"
	"github.com/nodebridge-labs/nodebridge/internal/types"
)

// EmitProgress receives one FidelityProgress frame; semantics mirror Emit.
type EmitProgress func(codec.FidelityProgress) error

// coverageScore is a simple, deterministic proxy for "how much of the
// subtree has been captured so far" — the fraction of nodes in the fetched
// tree that carry geometry or text content, weighted towards depth covered.
// A real coverage/fidelity scorer is an out-of-scope collaborator
// (spec.md §1: "similarity metric libraries... assumed available as pure
// functions"); this keeps FidelityLoop's control flow exercisable without
// one.
func coverageScore(n *types.ParsedNode, depth int) float32 {
	total, covered := 0, 0
	n.Walk(func(node *types.ParsedNode, d int) bool {
		total++
		if node.Box != nil || node.TextContent != nil {
			covered++
		}
		return true
	})
	if total == 0 {
		return 0
	}
	base := float32(covered) / float32(total)
	depthBonus := float32(depth) / float32(depth+4)
	score := base*0.7 + depthBonus*0.3
	if score > 1 {
		score = 1
	}
	return score
}

// FidelityLoop implements spec.md §4.2's FidelityLoop: repeatedly fetch the
// subtree at increasing depth until a coverage score meets target_score or
// max_depth is reached.
func (s *Service) FidelityLoop(ctx context.Context, req codec.FidelityLoopRequest, emit EmitProgress) error {
	fileKey, nodeID, ok := idnorm.Resolve(req.FileKey, req.NodeID, "")
	if !ok {
		return emit(codec.FidelityProgress{Done: true, Success: false, Error: "missing required fields"})
	}

	depthStep := req.DepthStep
	if depthStep == 0 {
		depthStep = 1
	}

	attempt := uint64(0)
	for depth := req.StartDepth; ; depth += depthStep {
		attempt++
		opts := types.Options{fmt.Sprintf("depth:%d", depth)}
		raw, err := s.fetchNodeDocument(ctx, fileKey, nodeID, opts, designapi.FetchOptions{
			Token: req.Token, Depth: int(depth),
		})
		if err != nil {
			progress := codec.FidelityProgress{
				Attempt: attempt, CurrentDepth: depth, Done: true, Success: false, Error: err.Error(),
			}
			return emit(progress)
		}
		root, err := types.ParseNode(raw)
		if err != nil {
			return emit(codec.FidelityProgress{Attempt: attempt, CurrentDepth: depth, Done: true, Success: false, Error: err.Error()})
		}

		score := coverageScore(root, int(depth))
		dslBody := []byte(renderFrame(root, "fidelity"))

		atMaxDepth := depth >= req.MaxDepth
		success := score >= req.TargetScore
		done := success || atMaxDepth

		progress := codec.FidelityProgress{
			Attempt: attempt, CurrentDepth: depth, CurrentScore: score,
			Done: done, Success: success, NodeCount: uint64(countNodes(root)),
			RawSize: uint64(len(raw)), CompressedSize: uint64(len(dslBody)),
		}
		if done {
			progress.FinalDSL = dslBody
		} else {
			progress.DSL = dslBody
		}
		if err := emit(progress); err != nil {
			return nil
		}
		if done {
			return nil
		}
	}
}

func countNodes(n *types.ParsedNode) int {
	count := 0
	n.Walk(func(*types.ParsedNode, int) bool {
		count++
		return true
	})
	return count
}
