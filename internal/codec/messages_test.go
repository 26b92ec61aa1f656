package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetNodeRequestRoundtrip(t *testing.T) {
	req := GetNodeRequest{
		FileKey: "F1", NodeID: "1:2", Token: "tok",
		DepthStart: 0, DepthEnd: 3, Format: "fidelity",
		Geometry: true, PluginData: false, Version: "1000",
		Recursive: true, RecursiveMaxDepth: 5, RecursiveMaxNodes: 200, RecursiveDepthPerCall: 1,
	}
	decoded, err := DecodeGetNodeRequest(Encode(req))
	require.NoError(t, err)
	assert.Equal(t, req, decoded)
}

func TestFigmaNodeRoundtripWithNestedHeader(t *testing.T) {
	n := FigmaNode{
		Header:     NodeHeader{ID: "1:2", Name: "Frame"},
		Depth:      2,
		ParentID:   "1:1",
		ChildCount: 3,
		DSL:        []byte(`{"type":"frame"}`),
		NodeIndex:  5,
		TotalNodes: 42,
	}
	decoded, err := DecodeFigmaNode(Encode(n))
	require.NoError(t, err)
	assert.Equal(t, n, decoded)
}

func TestFidelityProgressRoundtripOmitsZeroOptionalFields(t *testing.T) {
	p := FidelityProgress{Attempt: 1, CurrentDepth: 2, CurrentScore: 0.75, Done: false, Success: false}
	decoded, err := DecodeFidelityProgress(Encode(p))
	require.NoError(t, err)
	assert.Equal(t, p, decoded)
}

func TestSplitStreamRequestDefaultsIncludeAll(t *testing.T) {
	req := SplitStreamRequest{FileKey: "F1", NodeID: "1:2"}
	decoded, err := DecodeSplitStreamRequest(Encode(req))
	require.NoError(t, err)
	assert.True(t, decoded.IncludeStyles)
	assert.True(t, decoded.IncludeLayouts)
	assert.True(t, decoded.IncludeContents)
}

func TestSplitChunkStyleRoundtrip(t *testing.T) {
	chunk := SplitChunk{
		Sequence: 1, TotalChunks: 3, NodeID: "1:2",
		Kind: ChunkStyle,
		Style: &StyleChunk{
			FillColors:   []ColorMsg{{R: 1, G: 0, B: 0, A: 1}},
			StrokeColors: nil,
			Typography:   "Inter/16/Regular",
			Opacity:      1,
			CornerRadius: 4,
			StrokeWeight: 0,
		},
	}
	decoded, err := DecodeSplitChunk(Encode(chunk))
	require.NoError(t, err)
	assert.Equal(t, chunk, decoded)
}

func TestSplitChunkLayoutRoundtrip(t *testing.T) {
	chunk := SplitChunk{
		Sequence: 2, TotalChunks: 3, NodeID: "1:2",
		Kind: ChunkLayout,
		Layout: &LayoutChunk{
			X: 10, Y: 20, W: 100, H: 200,
			LayoutMode: "Vertical", PrimaryAlign: "Min", CounterAlign: "Center",
			ItemSpacing: 8, PaddingTop: 4, PaddingRight: 4, PaddingBottom: 4, PaddingLeft: 4,
			ClipsContent: true,
		},
	}
	decoded, err := DecodeSplitChunk(Encode(chunk))
	require.NoError(t, err)
	assert.Equal(t, chunk, decoded)
}

func TestTaskAndPlanTasksResponseRoundtrip(t *testing.T) {
	resp := PlanTasksResponse{
		Tasks: []Task{
			{ID: "t1", NodeID: "1:1", NodeName: "Root", NodeType: "Frame", Priority: 0,
				Dependencies: nil, EstimatedTokens: 80, SemanticDSL: "frame/vertical", Hints: []string{"layout first"}},
			{ID: "t2", NodeID: "1:2", NodeName: "Label", NodeType: "Text", Priority: 2,
				Dependencies: []string{"t1"}, EstimatedTokens: 90, SemanticDSL: "text", Hints: nil},
		},
		TotalEstimatedTokens: 170,
		RootNodeID:           "1:1",
	}
	decoded, err := DecodePlanTasksResponse(Encode(resp))
	require.NoError(t, err)
	assert.Equal(t, resp, decoded)
}

func TestFileMetaResponseRoundtrip(t *testing.T) {
	m := FileMetaResponse{
		Name: "Design", LastModified: "2026-01-01T00:00:00Z", ThumbnailURL: "https://x/y.png",
		Version: "1001", Role: "editor", ComponentCount: 3, StyleCount: 2,
	}
	decoded, err := DecodeFileMetaResponse(Encode(m))
	require.NoError(t, err)
	assert.Equal(t, m, decoded)
}

func TestDecodeGetNodeRequestIgnoresUnknownFields(t *testing.T) {
	w := NewWriter()
	w.AppendString(1, "F1")
	w.AppendString(2, "1:2")
	w.AppendString(999, "future field")
	decoded, err := DecodeGetNodeRequest(w.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "F1", decoded.FileKey)
	assert.Equal(t, "1:2", decoded.NodeID)
}
