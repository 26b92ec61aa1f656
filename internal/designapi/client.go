// Package designapi is the boundary to the external HTTP design API
// (spec.md §1 "out of scope... consumed only through their interfaces").
// It owns retry/backoff, the circuit breaker, and tracing for every
// outbound call; the rest of nodebridge only ever sees the Client
// interface.
package designapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nodebridge-labs/nodebridge/internal/errs"
)

// Client fetches raw node and file-metadata JSON from the external API.
// nodebridge's cache and streaming layers depend only on this interface.
type Client interface {
	FetchNode(ctx context.Context, fileKey, nodeID string, opts FetchOptions) (json.RawMessage, error)
	FetchFileMeta(ctx context.Context, fileKey, token string) (json.RawMessage, error)
}

// FetchOptions mirrors the subset of GetNodeRequest fields that change the
// shape of the returned document (spec.md §4.2).
type FetchOptions struct {
	Token      string
	Depth      int
	Geometry   bool
	PluginData bool
}

// HTTPClient is the production Client: an HTTP JSON caller wrapped in
// retry/backoff and a circuit breaker (SPEC_FULL.md §4.2), with every call
// traced via OpenTelemetry (grounded on petal-labs/petalflow's otel/tracing.go
// tracer.Start/span.End pattern).
type HTTPClient struct {
	base       string
	httpClient *http.Client
	breaker    *Breaker
	tracer     trace.Tracer
}

// NewHTTPClient constructs a Client against baseURL (e.g. the design API's
// REST root) with a default 30s timeout (spec.md §5 "every external call
// has a timeout").
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		base:       baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		breaker:    NewBreaker(5, 30*time.Second),
		tracer:     otel.Tracer("nodebridge/designapi"),
	}
}

func (c *HTTPClient) FetchNode(ctx context.Context, fileKey, nodeID string, opts FetchOptions) (json.RawMessage, error) {
	ctx, span := c.tracer.Start(ctx, "designapi.FetchNode",
		trace.WithAttributes(
			attribute.String("nodebridge.file_key", fileKey),
			attribute.String("nodebridge.node_id", nodeID),
			attribute.Int("nodebridge.depth", opts.Depth),
		))
	defer span.End()

	url := fmt.Sprintf("%s/files/%s/nodes?ids=%s&depth=%d&geometry=%v&plugin_data=%v",
		c.base, fileKey, nodeID, opts.Depth, opts.Geometry, opts.PluginData)

	body, err := c.doWithPolicy(ctx, "FetchNode", url, opts.Token)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	return body, nil
}

func (c *HTTPClient) FetchFileMeta(ctx context.Context, fileKey, token string) (json.RawMessage, error) {
	ctx, span := c.tracer.Start(ctx, "designapi.FetchFileMeta",
		trace.WithAttributes(attribute.String("nodebridge.file_key", fileKey)))
	defer span.End()

	url := fmt.Sprintf("%s/files/%s", c.base, fileKey)
	body, err := c.doWithPolicy(ctx, "FetchFileMeta", url, token)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	return body, nil
}

// doWithPolicy performs one GET under the circuit breaker and exponential
// backoff retry policy (spec.md §7: NetworkError/RateLimited retried,
// Timeout retried once (every call here is an idempotent GET),
// AuthError/NotFound/ParseError surfaced immediately).
func (c *HTTPClient) doWithPolicy(ctx context.Context, op, url, token string) (json.RawMessage, error) {
	if !c.breaker.Allow() {
		return nil, errs.New(errs.KindNetwork, op, fmt.Errorf("circuit breaker open"))
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 4), ctx)

	var result json.RawMessage
	timedOutOnce := false
	operation := func() error {
		body, err := c.doOnce(ctx, url, token)
		if err != nil {
			apiErr, ok := err.(*errs.Error)
			switch {
			case ok && apiErr.Kind == errs.KindTimeout:
				// Every call here is an idempotent GET (spec.md §7: "Retried
				// once if idempotent, else surfaced") — one retry only,
				// regardless of the general retry budget above. The retry is
				// made here rather than by the backoff loop, which stops
				// without another attempt once ctx is done.
				if timedOutOnce {
					return backoff.Permanent(err)
				}
				timedOutOnce = true
				if body, err = c.doOnce(ctx, url, token); err == nil {
					result = body
					return nil
				}
				return backoff.Permanent(err)
			case ok && !apiErr.Retryable():
				return backoff.Permanent(err)
			}
			return err
		}
		result = body
		return nil
	}

	err := backoff.Retry(operation, policy)
	if err != nil {
		c.breaker.RecordFailure()
		return nil, err
	}
	c.breaker.RecordSuccess()
	return result, nil
}

func (c *HTTPClient) doOnce(ctx context.Context, url, token string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.New(errs.KindUnknown, "http.NewRequest", err)
	}
	if token != "" {
		req.Header.Set("X-Design-Token", token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errs.New(errs.KindTimeout, "http.Do", err)
		}
		return nil, errs.New(errs.KindNetwork, "http.Do", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.New(errs.KindNetwork, "http.ReadBody", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errs.FromHTTPStatus("http.Do", resp.StatusCode, string(data))
	}

	if !json.Valid(data) {
		return nil, errs.New(errs.KindParse, "http.DecodeBody", fmt.Errorf("response is not valid JSON"))
	}
	return json.RawMessage(data), nil
}
