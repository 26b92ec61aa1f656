package mcpadapter

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodebridge-labs/nodebridge/internal/cache"
	"github.com/nodebridge-labs/nodebridge/internal/designapi"
	"github.com/nodebridge-labs/nodebridge/internal/errs"
	"github.com/nodebridge-labs/nodebridge/internal/stream"
)

// fakeClient mirrors internal/stream/stream_test.go's fixture: a fixed,
// in-memory tree of node documents keyed by node id.
type fakeClient struct {
	docs map[string]string
}

func (f *fakeClient) FetchNode(ctx context.Context, fileKey, nodeID string, opts designapi.FetchOptions) (json.RawMessage, error) {
	doc, ok := f.docs[nodeID]
	if !ok {
		return nil, errs.New(errs.KindNotFound, "FetchNode", nil)
	}
	return json.RawMessage(doc), nil
}

func (f *fakeClient) FetchFileMeta(ctx context.Context, fileKey, token string) (json.RawMessage, error) {
	return json.RawMessage(`{"name":"test file"}`), nil
}

func newTestService(t *testing.T) *stream.Service {
	t.Helper()
	c, err := cache.New(cache.Config{MaxL1Entries: 100, L2MaxBytes: 1 << 20, DiskDir: t.TempDir(), DefaultTTL: time.Hour})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	client := &fakeClient{docs: map[string]string{
		"1:1": `{"id":"1:1","name":"Root","type":"FRAME","children":[{"id":"1:2","name":"A","type":"TEXT","characters":"hi"}]}`,
		"1:2": `{"id":"1:2","name":"A","type":"TEXT","characters":"hi"}`,
	}}
	return stream.New(c, client)
}

// request builds an *mcp.CallToolRequest the way the teacher's
// internal/mcp integration tests do: marshal params, hang the bytes off
// CallToolParamsRaw.Arguments.
func request(t *testing.T, params interface{}) *mcp.CallToolRequest {
	t.Helper()
	b, err := json.Marshal(params)
	require.NoError(t, err)
	return &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{Arguments: b}}
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	var out string
	for _, c := range result.Content {
		tc, ok := c.(*mcp.TextContent)
		require.True(t, ok)
		out += tc.Text
	}
	return out
}

func TestHandleGetNodeReturnsFrames(t *testing.T) {
	svc := newTestService(t)
	handler := handleGetNode(svc)

	result, err := handler(context.Background(), request(t, getNodeParams{
		FileKey: "F1", NodeID: "1:1", Token: "tok",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var body struct {
		Frames []map[string]interface{} `json:"frames"`
	}
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &body))
	assert.Len(t, body.Frames, 2)
}

func TestHandleGetNodeReportsUpstreamErrorInResult(t *testing.T) {
	svc := newTestService(t)
	handler := handleGetNode(svc)

	result, err := handler(context.Background(), request(t, getNodeParams{
		FileKey: "F1", NodeID: "missing", Token: "tok",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	var body struct {
		Success   bool   `json:"success"`
		Operation string `json:"operation"`
		Error     string `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "get_node", body.Operation)
	assert.NotEmpty(t, body.Error)
}

func TestHandleGetNodeRejectsMalformedArguments(t *testing.T) {
	svc := newTestService(t)
	handler := handleGetNode(svc)

	req := &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{Arguments: []byte(`{not json`)}}
	result, err := handler(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandlePlanTasksReturnsPlan(t *testing.T) {
	svc := newTestService(t)
	handler := handlePlanTasks(svc)

	result, err := handler(context.Background(), request(t, planTasksParams{
		FileKey: "F1", NodeID: "1:1", Token: "tok",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var body struct {
		Tasks      []map[string]interface{} `json:"tasks"`
		RootNodeID string                   `json:"root_node_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &body))
	assert.Equal(t, "1:1", body.RootNodeID)
	assert.NotEmpty(t, body.Tasks)
}

func TestRegisterAddsBothTools(t *testing.T) {
	svc := newTestService(t)
	server := mcp.NewServer(&mcp.Implementation{Name: "nodebridge-test", Version: "0.0.0"}, nil)
	Register(server, svc)
}

func TestJSONResultMarshalFailureFallsBackToErrorResult(t *testing.T) {
	result, err := jsonResult(make(chan int))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
