package stream

import (
	"context"

	"github.com/nodebridge-labs/nodebridge/internal/codec"
	"github.com/nodebridge-labs/nodebridge/internal/designapi"
	"github.com/nodebridge-labs/nodebridge/internal/idnorm"
	"github.com/nodebridge-labs/nodebridge/internal/types"
)

// EmitChunk receives one SplitChunk frame; semantics mirror Emit.
type EmitChunk func(codec.SplitChunk) error

// GetSplitStream implements spec.md §4.2's GetSplitStream: for every node in
// the subtree, emit up to three chunks (style/layout/content) according to
// the request flags, each carrying a sequence number unique across the
// whole stream.
func (s *Service) GetSplitStream(ctx context.Context, req codec.SplitStreamRequest, emit EmitChunk) error {
	fileKey, nodeID, ok := idnorm.Resolve(req.FileKey, req.NodeID, "")
	if !ok {
		return nil
	}

	raw, err := s.fetchNodeDocument(ctx, fileKey, nodeID, nil, designapi.FetchOptions{
		Token: req.Token, Depth: int(req.Depth),
	})
	if err != nil {
		return nil
	}
	root, err := types.ParseNode(raw)
	if err != nil {
		return nil
	}

	enabledKinds := 0
	if req.IncludeStyles {
		enabledKinds++
	}
	if req.IncludeLayouts {
		enabledKinds++
	}
	if req.IncludeContents {
		enabledKinds++
	}

	var nodes []*types.ParsedNode
	root.Walk(func(n *types.ParsedNode, depth int) bool {
		nodes = append(nodes, n)
		return true
	})
	totalChunks := uint64(len(nodes) * enabledKinds)

	var seq uint64
	for _, n := range nodes {
		if req.IncludeStyles {
			chunk := codec.SplitChunk{
				Sequence: seq, TotalChunks: totalChunks, NodeID: string(n.ID),
				Kind:  codec.ChunkStyle,
				Style: styleChunkOf(n),
			}
			seq++
			if err := emit(chunk); err != nil {
				return nil
			}
		}
		if req.IncludeLayouts {
			chunk := codec.SplitChunk{
				Sequence: seq, TotalChunks: totalChunks, NodeID: string(n.ID),
				Kind:   codec.ChunkLayout,
				Layout: layoutChunkOf(n),
			}
			seq++
			if err := emit(chunk); err != nil {
				return nil
			}
		}
		if req.IncludeContents {
			chunk := codec.SplitChunk{
				Sequence: seq, TotalChunks: totalChunks, NodeID: string(n.ID),
				Kind:    codec.ChunkContent,
				Content: contentChunkOf(n),
			}
			seq++
			if err := emit(chunk); err != nil {
				return nil
			}
		}
	}
	return nil
}

func styleChunkOf(n *types.ParsedNode) *codec.StyleChunk {
	sc := &codec.StyleChunk{
		Opacity:      float32(n.Opacity),
		CornerRadius: float32(n.CornerRadius),
		StrokeWeight: float32(n.StrokeWeight),
	}
	for _, f := range n.Fills {
		if f.Color != nil {
			sc.FillColors = append(sc.FillColors, codec.ColorMsg{
				R: float32(f.Color.R), G: float32(f.Color.G), B: float32(f.Color.B), A: float32(f.Color.A),
			})
		}
	}
	for _, st := range n.Strokes {
		if st.Color != nil {
			sc.StrokeColors = append(sc.StrokeColors, codec.ColorMsg{
				R: float32(st.Color.R), G: float32(st.Color.G), B: float32(st.Color.B), A: float32(st.Color.A),
			})
		}
	}
	if n.Typography != nil {
		sc.Typography = n.Typography.FontFamily
	}
	return sc
}

func layoutChunkOf(n *types.ParsedNode) *codec.LayoutChunk {
	lc := &codec.LayoutChunk{
		LayoutMode:   string(n.LayoutMode),
		PrimaryAlign: string(n.PrimaryAlign),
		CounterAlign: string(n.CounterAlign),
		ItemSpacing:  float32(n.Gap),
		PaddingTop:   float32(n.Padding.Top),
		PaddingRight: float32(n.Padding.Right),
		PaddingBottom: float32(n.Padding.Bottom),
		PaddingLeft:  float32(n.Padding.Left),
	}
	if n.Box != nil {
		lc.X, lc.Y, lc.W, lc.H = n.Box.X, n.Box.Y, n.Box.W, n.Box.H
	}
	return lc
}

func contentChunkOf(n *types.ParsedNode) *codec.ContentChunk {
	cc := &codec.ContentChunk{NodeType: string(n.Type), Name: n.Name}
	if n.TextContent != nil {
		cc.TextContent = *n.TextContent
	}
	if fill := n.FirstImageFill(); fill != nil {
		cc.ImageRef = fill.ImageRef
	}
	return cc
}
