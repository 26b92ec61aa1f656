// Package stream implements the Streaming Node Service (spec.md §4.2): the
// RPC surface that fetches, recursively walks, and streams design-file
// subtrees without materializing a megabyte-scale response in one frame.
package stream

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nodebridge-labs/nodebridge/internal/cache"
	"github.com/nodebridge-labs/nodebridge/internal/designapi"
	"github.com/nodebridge-labs/nodebridge/internal/dsl"
	"github.com/nodebridge-labs/nodebridge/internal/errs"
	"github.com/nodebridge-labs/nodebridge/internal/idnorm"
	"github.com/nodebridge-labs/nodebridge/internal/types"
)

// Service wires the Node Cache and the external design API client together
// behind the RPC operations of spec.md §4.2.
type Service struct {
	Cache  *cache.Cache
	Client designapi.Client
	// InFlightLimit bounds concurrent outbound API calls per stream
	// (spec.md §5: "one outstanding API call at a time by default... may be
	// raised by configuration"). Zero means 1.
	InFlightLimit int
	TTL           time.Duration
}

func New(c *cache.Cache, client designapi.Client) *Service {
	return &Service{Cache: c, Client: client, InFlightLimit: 1, TTL: time.Hour}
}

func (s *Service) inFlightLimit() int {
	if s.InFlightLimit <= 0 {
		return 1
	}
	return s.InFlightLimit
}

// fetchNodeDocument fetches a single node's raw JSON document through the
// cache, single-flighted and normalized at the boundary (spec.md §4.2
// "Request parsing... Node ids are normalized at the boundary").
func (s *Service) fetchNodeDocument(ctx context.Context, fileKey, nodeID string, opts types.Options, fetchOpts designapi.FetchOptions) (json.RawMessage, error) {
	nodeID = idnorm.Normalize(nodeID)
	s.Cache.RecordAccess(types.NodeID(nodeID))

	payload, err := s.Cache.GetOrFetch(types.FileKey(fileKey), types.NodeID(nodeID), opts, s.TTL, func() ([]byte, error) {
		return s.Client.FetchNode(ctx, fileKey, nodeID, fetchOpts)
	})
	if err != nil {
		if apiErr, ok := err.(*errs.Error); ok && apiErr.Kind == errs.KindNotFound {
			if suggestion := s.Cache.SuggestNodeID(types.NodeID(nodeID)); suggestion != "" {
				apiErr.Body = "did you mean " + suggestion + "?"
			}
		}
		return nil, err
	}
	return json.RawMessage(payload), nil
}

// GetFileMeta is a thin wrapper over the external file-metadata call
// (spec.md §4.2 GetFileMeta).
func (s *Service) GetFileMeta(ctx context.Context, fileKey, token string) (json.RawMessage, error) {
	return s.Client.FetchFileMeta(ctx, fileKey, token)
}

// renderFrame converts a node document (with children stripped per
// spec.md §4.2 "strip children before rendering DSL") into the requested
// DSL format.
func renderFrame(n *types.ParsedNode, format string) string {
	return dsl.Render(n.WithoutChildren(), dsl.Format(format))
}
