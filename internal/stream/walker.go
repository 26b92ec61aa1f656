package stream

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/nodebridge-labs/nodebridge/internal/codec"
	"github.com/nodebridge-labs/nodebridge/internal/designapi"
	"github.com/nodebridge-labs/nodebridge/internal/errs"
	"github.com/nodebridge-labs/nodebridge/internal/idnorm"
	"github.com/nodebridge-labs/nodebridge/internal/types"
)

// Emit receives one stream frame. Returning an error signals the downstream
// consumer has gone away; GetNodeStream stops enqueuing further API calls
// promptly (spec.md §5 "Stopping and cancellation").
type Emit func(codec.FigmaNode) error

// GetNodeStream implements spec.md §4.2's GetNodeStream, dispatching to the
// non-recursive or recursive walker based on req.Recursive.
func (s *Service) GetNodeStream(ctx context.Context, req codec.GetNodeRequest, emit Emit) error {
	fileKey, nodeID, ok := idnorm.Resolve(req.FileKey, req.NodeID, "")
	if !ok {
		return emit(errorFrame(req.NodeID, "missing required fields: file_key/node_id"))
	}

	if req.Recursive {
		return s.streamRecursive(ctx, fileKey, nodeID, req, emit)
	}
	return s.streamNonRecursive(ctx, fileKey, nodeID, req, emit)
}

// streamNonRecursive fetches the subtree once at depth_end, then walks it
// breadth-first, emitting one frame per node (spec.md §4.2).
func (s *Service) streamNonRecursive(ctx context.Context, fileKey, nodeID string, req codec.GetNodeRequest, emit Emit) error {
	opts := geometryOptions(req.Geometry, req.PluginData, nil)
	raw, err := s.fetchNodeDocument(ctx, fileKey, nodeID, opts, designapi.FetchOptions{
		Token: req.Token, Depth: int(req.DepthEnd), Geometry: req.Geometry, PluginData: req.PluginData,
	})
	if err != nil {
		return emit(errorFrame(nodeID, err.Error()))
	}
	root, err := types.ParseNode(raw)
	if err != nil {
		return emit(errorFrame(nodeID, err.Error()))
	}

	// BFS (not Walk's pre-order) so frames respect "Ordering: level-order
	// from the root" (spec.md §4.2).
	type queued struct {
		node   *types.ParsedNode
		parent types.NodeID
		depth  int
	}
	var ordered []queued
	fifo := []queued{{node: root, parent: "", depth: 0}}
	for len(fifo) > 0 {
		cur := fifo[0]
		fifo = fifo[1:]
		ordered = append(ordered, cur)
		for _, c := range cur.node.Children {
			fifo = append(fifo, queued{node: c, parent: cur.node.ID, depth: cur.depth + 1})
		}
	}

	total := len(ordered)
	for i, q := range ordered {
		frame := codec.FigmaNode{
			Header:     codec.NodeHeader{ID: string(q.node.ID), Name: q.node.Name},
			Depth:      uint64(q.depth),
			ParentID:   string(q.parent),
			ChildCount: uint64(len(q.node.Children)),
			DSL:        []byte(renderFrame(q.node, req.Format)),
			NodeIndex:  uint64(i),
			TotalNodes: uint64(total),
		}
		if err := emit(frame); err != nil {
			return nil
		}
	}
	return nil
}

type queueItem struct {
	id, parent types.NodeID
	depth      int
}

// streamRecursive maintains a visited set and FIFO seeded with the root,
// fetching each node individually (cache-backed) and enqueuing its children
// (spec.md §4.2). Level-order emission: each BFS level is fetched with up
// to Service.InFlightLimit concurrent API calls, then emitted in the order
// the level was enqueued, before the next level starts.
func (s *Service) streamRecursive(ctx context.Context, fileKey, nodeID string, req codec.GetNodeRequest, emit Emit) error {
	maxDepth := int(req.RecursiveMaxDepth)
	maxNodes := int(req.RecursiveMaxNodes)
	depthPerCall := int(req.RecursiveDepthPerCall)

	visited := map[types.NodeID]bool{}
	level := []queueItem{{id: types.NodeID(nodeID), parent: "", depth: 0}}
	visited[types.NodeID(nodeID)] = true

	emitted := 0

	for len(level) > 0 && emitted < maxNodes {
		type result struct {
			item queueItem
			node *types.ParsedNode
			err  error
		}
		results := make([]result, len(level))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.inFlightLimit())
		for i, item := range level {
			i, item := i, item
			g.Go(func() error {
				opts := geometryOptions(req.Geometry, req.PluginData, []string{fmt.Sprintf("depth:%d", depthPerCall)})
				raw, err := s.fetchNodeDocument(gctx, fileKey, string(item.id), opts, designapi.FetchOptions{
					Token: req.Token, Depth: depthPerCall, Geometry: req.Geometry, PluginData: req.PluginData,
				})
				if err != nil {
					results[i] = result{item: item, err: err}
					return nil // per-node failures do not abort the stream
				}
				n, perr := types.ParseNode(raw)
				if perr != nil {
					results[i] = result{item: item, err: perr}
					return nil
				}
				results[i] = result{item: item, node: n}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		var next []queueItem
		for _, r := range results {
			if emitted >= maxNodes {
				break
			}
			if r.err != nil {
				if emitErr := emit(errorFrame(string(r.item.id), r.err.Error())); emitErr != nil {
					return nil
				}
				emitted++
				continue
			}
			frame := codec.FigmaNode{
				Header:     codec.NodeHeader{ID: string(r.node.ID), Name: r.node.Name},
				Depth:      uint64(r.item.depth),
				ParentID:   string(r.item.parent),
				ChildCount: uint64(len(r.node.Children)),
				DSL:        []byte(renderFrame(r.node, req.Format)),
				NodeIndex:  uint64(emitted),
			}
			if err := emit(frame); err != nil {
				return nil
			}
			emitted++

			if r.item.depth < maxDepth {
				for _, c := range r.node.Children {
					if !visited[c.ID] {
						visited[c.ID] = true
						next = append(next, queueItem{id: c.ID, parent: r.item.id, depth: r.item.depth + 1})
					}
				}
			}
		}
		level = next
	}
	return nil
}

func geometryOptions(geometry, plugin bool, extra []string) types.Options {
	var opts types.Options
	opts = append(opts, extra...)
	if geometry {
		opts = append(opts, "geometry")
	}
	if plugin {
		opts = append(opts, "plugin_data")
	}
	return opts
}

func errorFrame(nodeID, msg string) codec.FigmaNode {
	return codec.FigmaNode{
		Header: codec.NodeHeader{ID: nodeID},
		DSL:    []byte(errs.AsDSLError(fmt.Errorf("%s", msg))),
	}
}
