package stream

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodebridge-labs/nodebridge/internal/cache"
	"github.com/nodebridge-labs/nodebridge/internal/codec"
	"github.com/nodebridge-labs/nodebridge/internal/designapi"
	"github.com/nodebridge-labs/nodebridge/internal/errs"
)

// fakeClient serves a fixed, in-memory tree of node documents keyed by
// node id, simulating the external design API for stream tests.
type fakeClient struct {
	docs  map[string]string
	calls int
}

func (f *fakeClient) FetchNode(ctx context.Context, fileKey, nodeID string, opts designapi.FetchOptions) (json.RawMessage, error) {
	f.calls++
	doc, ok := f.docs[nodeID]
	if !ok {
		return nil, errs.New(errs.KindNotFound, "FetchNode", nil)
	}
	return json.RawMessage(doc), nil
}

func (f *fakeClient) FetchFileMeta(ctx context.Context, fileKey, token string) (json.RawMessage, error) {
	return json.RawMessage(`{"name":"test file"}`), nil
}

func newTestService(t *testing.T, docs map[string]string) (*Service, *fakeClient) {
	t.Helper()
	c, err := cache.New(cache.Config{MaxL1Entries: 100, L2MaxBytes: 1 << 20, DiskDir: t.TempDir(), DefaultTTL: time.Hour})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	client := &fakeClient{docs: docs}
	svc := New(c, client)
	return svc, client
}

// a 3-level tree: root(1:1) -> a(1:2), b(1:3); a -> c(1:4)
func sampleTreeDocs() map[string]string {
	return map[string]string{
		"1:1": `{"id":"1:1","name":"Root","type":"FRAME","children":[
			{"id":"1:2","name":"A","type":"FRAME","children":[
				{"id":"1:4","name":"C","type":"TEXT","characters":"hi"}
			]},
			{"id":"1:3","name":"B","type":"RECTANGLE"}
		]}`,
		"1:2": `{"id":"1:2","name":"A","type":"FRAME","children":[{"id":"1:4","name":"C","type":"TEXT","characters":"hi"}]}`,
		"1:3": `{"id":"1:3","name":"B","type":"RECTANGLE"}`,
		"1:4": `{"id":"1:4","name":"C","type":"TEXT","characters":"hi"}`,
	}
}

func TestGetNodeStreamNonRecursiveBFSOrder(t *testing.T) {
	svc, _ := newTestService(t, sampleTreeDocs())
	var frames []codec.FigmaNode
	err := svc.GetNodeStream(context.Background(), codec.GetNodeRequest{
		FileKey: "F1", NodeID: "1:1", Format: "fidelity",
	}, func(f codec.FigmaNode) error {
		frames = append(frames, f)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, frames, 4)
	assert.Equal(t, "1:1", frames[0].Header.ID)
	// every frame's parent_id must have appeared in an earlier frame
	seen := map[string]bool{}
	for _, f := range frames {
		if f.ParentID != "" {
			assert.True(t, seen[f.ParentID], "parent %s must precede child %s", f.ParentID, f.Header.ID)
		}
		seen[f.Header.ID] = true
	}
}

func TestGetNodeStreamRecursiveBoundByMaxNodes(t *testing.T) {
	svc, _ := newTestService(t, sampleTreeDocs())
	var frames []codec.FigmaNode
	err := svc.GetNodeStream(context.Background(), codec.GetNodeRequest{
		FileKey: "F1", NodeID: "1:1", Format: "fidelity",
		Recursive: true, RecursiveMaxDepth: 5, RecursiveMaxNodes: 2, RecursiveDepthPerCall: 1,
	}, func(f codec.FigmaNode) error {
		frames = append(frames, f)
		return nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(frames), 2)
}

func TestGetNodeStreamRecursiveBoundByMaxDepth(t *testing.T) {
	svc, _ := newTestService(t, sampleTreeDocs())
	var frames []codec.FigmaNode
	err := svc.GetNodeStream(context.Background(), codec.GetNodeRequest{
		FileKey: "F1", NodeID: "1:1", Format: "fidelity",
		Recursive: true, RecursiveMaxDepth: 0, RecursiveMaxNodes: 1000, RecursiveDepthPerCall: 1,
	}, func(f codec.FigmaNode) error {
		frames = append(frames, f)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, frames, 1, "max_depth=0 must only emit the root")
	assert.Equal(t, "1:1", frames[0].Header.ID)
}

func TestGetNodeStreamMissingFieldsEmitsTerminalFrame(t *testing.T) {
	svc, _ := newTestService(t, sampleTreeDocs())
	var frames []codec.FigmaNode
	err := svc.GetNodeStream(context.Background(), codec.GetNodeRequest{}, func(f codec.FigmaNode) error {
		frames = append(frames, f)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Contains(t, string(frames[0].DSL), "error")
}

func TestGetNodeStreamPerNodeFailureContinues(t *testing.T) {
	docs := sampleTreeDocs()
	delete(docs, "1:3") // B becomes unfetchable
	svc, _ := newTestService(t, docs)
	var frames []codec.FigmaNode
	err := svc.GetNodeStream(context.Background(), codec.GetNodeRequest{
		FileKey: "F1", NodeID: "1:1", Format: "fidelity",
		Recursive: true, RecursiveMaxDepth: 5, RecursiveMaxNodes: 100, RecursiveDepthPerCall: 1,
	}, func(f codec.FigmaNode) error {
		frames = append(frames, f)
		return nil
	})
	require.NoError(t, err)
	var sawError bool
	for _, f := range frames {
		if string(f.DSL) != "" && f.Header.ID == "1:3" {
			sawError = true
		}
	}
	assert.True(t, sawError, "a failed node fetch must still emit a frame and continue")
}

func TestGetSplitStreamEmitsThreeChunksPerNode(t *testing.T) {
	svc, _ := newTestService(t, sampleTreeDocs())
	var chunks []codec.SplitChunk
	err := svc.GetSplitStream(context.Background(), codec.SplitStreamRequest{
		FileKey: "F1", NodeID: "1:2",
		IncludeStyles: true, IncludeLayouts: true, IncludeContents: true,
	}, func(c codec.SplitChunk) error {
		chunks = append(chunks, c)
		return nil
	})
	require.NoError(t, err)
	// node 1:2 has one child (1:4): 2 nodes * 3 kinds = 6 chunks
	assert.Len(t, chunks, 6)
	assert.Equal(t, uint64(len(chunks)), chunks[0].TotalChunks)
}

func TestGetSplitStreamRespectsIncludeFlags(t *testing.T) {
	svc, _ := newTestService(t, sampleTreeDocs())
	var chunks []codec.SplitChunk
	err := svc.GetSplitStream(context.Background(), codec.SplitStreamRequest{
		FileKey: "F1", NodeID: "1:4",
		IncludeStyles: false, IncludeLayouts: false, IncludeContents: true,
	}, func(c codec.SplitChunk) error {
		chunks = append(chunks, c)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, codec.ChunkContent, chunks[0].Kind)
}

func TestGetSplitStreamContentChunkCarriesImageRefForImageFill(t *testing.T) {
	svc, _ := newTestService(t, map[string]string{
		"1:5": `{"id":"1:5","name":"Photo","type":"RECTANGLE","fills":[
			{"type":"SOLID","visible":true,"color":{"r":1,"g":1,"b":1,"a":1}},
			{"type":"IMAGE","visible":true,"imageRef":"abc123"}
		]}`,
	})
	var chunks []codec.SplitChunk
	err := svc.GetSplitStream(context.Background(), codec.SplitStreamRequest{
		FileKey: "F1", NodeID: "1:5",
		IncludeContents: true,
	}, func(c codec.SplitChunk) error {
		chunks = append(chunks, c)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.NotNil(t, chunks[0].Content)
	assert.Equal(t, "abc123", chunks[0].Content.ImageRef)
}

func TestFidelityLoopTerminatesAtMaxDepth(t *testing.T) {
	svc, _ := newTestService(t, sampleTreeDocs())
	var progresses []codec.FidelityProgress
	err := svc.FidelityLoop(context.Background(), codec.FidelityLoopRequest{
		FileKey: "F1", NodeID: "1:1", TargetScore: 2.0, // unreachable, forces max_depth stop
		StartDepth: 0, MaxDepth: 2, DepthStep: 1,
	}, func(p codec.FidelityProgress) error {
		progresses = append(progresses, p)
		return nil
	})
	require.NoError(t, err)
	require.NotEmpty(t, progresses)
	last := progresses[len(progresses)-1]
	assert.True(t, last.Done)
	assert.False(t, last.Success)
	assert.LessOrEqual(t, len(progresses), 3)
}

func TestFidelityLoopSucceedsWhenScoreMet(t *testing.T) {
	svc, _ := newTestService(t, sampleTreeDocs())
	var progresses []codec.FidelityProgress
	err := svc.FidelityLoop(context.Background(), codec.FidelityLoopRequest{
		FileKey: "F1", NodeID: "1:4", TargetScore: 0.01,
		StartDepth: 0, MaxDepth: 5, DepthStep: 1,
	}, func(p codec.FidelityProgress) error {
		progresses = append(progresses, p)
		return nil
	})
	require.NoError(t, err)
	last := progresses[len(progresses)-1]
	assert.True(t, last.Done)
	assert.True(t, last.Success)
}

func TestFidelityLoopConsumerStopEarly(t *testing.T) {
	svc, _ := newTestService(t, sampleTreeDocs())
	calls := 0
	err := svc.FidelityLoop(context.Background(), codec.FidelityLoopRequest{
		FileKey: "F1", NodeID: "1:1", TargetScore: 2.0,
		StartDepth: 0, MaxDepth: 5, DepthStep: 1,
	}, func(p codec.FidelityProgress) error {
		calls++
		return assertStopError{}
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

type assertStopError struct{}

func (assertStopError) Error() string { return "consumer stopped" }

func TestParseGetNodeRequestNormalizesID(t *testing.T) {
	w := codec.NewWriter()
	w.AppendString(1, "F1")
	w.AppendString(2, "1-2")
	req, err := ParseGetNodeRequest(w.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "1:2", req.NodeID)
}
