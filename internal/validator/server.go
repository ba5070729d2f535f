package validator

import (
	"context"
	"encoding/json"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/danielpatrickdp/correction-synth/internal/finding"
)

// Checker is any local implementation of the Compliance Validator.
type Checker interface {
	Check(ctx context.Context, text string, modules []string) ([]finding.Finding, error)
}

// Server exposes a Checker over the ComplianceValidator gRPC service.
type Server struct {
	UnimplementedComplianceValidatorServer
	Checker Checker
}

func (s *Server) Check(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	if s == nil || s.Checker == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing checker")
	}
	var req CheckRequest
	if err := json.Unmarshal(in.GetValue(), &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, "malformed check request")
	}
	findings, err := s.Checker.Check(ctx, req.Text, req.Modules)
	if err != nil {
		return nil, mapErr(err)
	}
	if findings == nil {
		findings = []finding.Finding{}
	}
	body, err := json.Marshal(CheckResponse{Findings: findings})
	if err != nil {
		return nil, status.Error(codes.Internal, "encode check response")
	}
	return wrapperspb.Bytes(body), nil
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
