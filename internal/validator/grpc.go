package validator

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const checkMethod = "/correctionsynth.validator.v1.ComplianceValidator/Check"

// ComplianceValidatorServer is the server API for the ComplianceValidator service.
//
// Messages are protobuf BytesValue wrappers carrying JSON bodies, so no
// protoc/codegen step is needed.
type ComplianceValidatorServer interface {
	Check(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
}

// UnimplementedComplianceValidatorServer can be embedded to have forward compatible implementations.
type UnimplementedComplianceValidatorServer struct{}

func (UnimplementedComplianceValidatorServer) Check(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Check not implemented")
}

// RegisterComplianceValidatorServer registers the service on a gRPC server.
func RegisterComplianceValidatorServer(s grpc.ServiceRegistrar, srv ComplianceValidatorServer) {
	s.RegisterService(&ComplianceValidator_ServiceDesc, srv)
}

// ComplianceValidatorClient is the client API for the ComplianceValidator service.
type ComplianceValidatorClient interface {
	Check(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
}

type complianceValidatorClient struct{ cc grpc.ClientConnInterface }

// NewComplianceValidatorClient wraps a connection.
func NewComplianceValidatorClient(cc grpc.ClientConnInterface) ComplianceValidatorClient {
	return &complianceValidatorClient{cc: cc}
}

func (c *complianceValidatorClient) Check(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	err := c.cc.Invoke(ctx, checkMethod, in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func _ComplianceValidator_Check_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ComplianceValidatorServer).Check(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: checkMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ComplianceValidatorServer).Check(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

// ComplianceValidator_ServiceDesc is the grpc.ServiceDesc for the ComplianceValidator service.
var ComplianceValidator_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "correctionsynth.validator.v1.ComplianceValidator",
	HandlerType: (*ComplianceValidatorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Check", Handler: _ComplianceValidator_Check_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "validator.proto",
}
