package stream

import (
	"github.com/nodebridge-labs/nodebridge/internal/codec"
	"github.com/nodebridge-labs/nodebridge/internal/errs"
	"github.com/nodebridge-labs/nodebridge/internal/idnorm"
)

// ParseGetNodeRequest decodes a length-delimited GetNodeRequest frame,
// normalizing node_id at the boundary (spec.md §4.2 "Request parsing").
func ParseGetNodeRequest(buf []byte) (codec.GetNodeRequest, error) {
	req, err := codec.DecodeGetNodeRequest(buf)
	if err != nil {
		return codec.GetNodeRequest{}, errs.New(errs.KindParse, "ParseGetNodeRequest", err)
	}
	req.NodeID = idnorm.Normalize(req.NodeID)
	return req, nil
}

// ParseSplitStreamRequest decodes a SplitStreamRequest frame.
func ParseSplitStreamRequest(buf []byte) (codec.SplitStreamRequest, error) {
	req, err := codec.DecodeSplitStreamRequest(buf)
	if err != nil {
		return codec.SplitStreamRequest{}, errs.New(errs.KindParse, "ParseSplitStreamRequest", err)
	}
	req.NodeID = idnorm.Normalize(req.NodeID)
	return req, nil
}

// ParseFidelityLoopRequest decodes a FidelityLoopRequest frame.
func ParseFidelityLoopRequest(buf []byte) (codec.FidelityLoopRequest, error) {
	req, err := codec.DecodeFidelityLoopRequest(buf)
	if err != nil {
		return codec.FidelityLoopRequest{}, errs.New(errs.KindParse, "ParseFidelityLoopRequest", err)
	}
	req.NodeID = idnorm.Normalize(req.NodeID)
	return req, nil
}

// ParsePlanTasksRequest decodes a PlanTasksRequest frame.
func ParsePlanTasksRequest(buf []byte) (codec.PlanTasksRequest, error) {
	req, err := codec.DecodePlanTasksRequest(buf)
	if err != nil {
		return codec.PlanTasksRequest{}, errs.New(errs.KindParse, "ParsePlanTasksRequest", err)
	}
	req.NodeID = idnorm.Normalize(req.NodeID)
	return req, nil
}
