// Package v1 is the Go binding of the sensegate.v1.LookupService gRPC contract
// described in lookup.proto.
package v1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "sensegate.v1.LookupService"

const (
	LookupService_GetGloss_FullMethodName           = "/" + ServiceName + "/GetGloss"
	LookupService_GetExample_FullMethodName         = "/" + ServiceName + "/GetExample"
	LookupService_GetGlossRelatedIds_FullMethodName = "/" + ServiceName + "/GetGlossRelatedIds"
	LookupService_Describe_FullMethodName           = "/" + ServiceName + "/Describe"
	LookupService_GetMetrics_FullMethodName         = "/" + ServiceName + "/GetMetrics"
)

// LookupServiceServer is the server API for LookupService.
type LookupServiceServer interface {
	GetGloss(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	GetExample(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	GetGlossRelatedIds(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error)
	Describe(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	GetMetrics(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// UnimplementedLookupServiceServer can be embedded to have forward compatible implementations.
type UnimplementedLookupServiceServer struct{}

func (UnimplementedLookupServiceServer) GetGloss(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method GetGloss not implemented")
}

func (UnimplementedLookupServiceServer) GetExample(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method GetExample not implemented")
}

func (UnimplementedLookupServiceServer) GetGlossRelatedIds(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error) {
	return nil, status.Error(codes.Unimplemented, "method GetGlossRelatedIds not implemented")
}

func (UnimplementedLookupServiceServer) Describe(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Describe not implemented")
}

func (UnimplementedLookupServiceServer) GetMetrics(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetMetrics not implemented")
}

// RegisterLookupServiceServer registers srv on s.
func RegisterLookupServiceServer(s grpc.ServiceRegistrar, srv LookupServiceServer) {
	s.RegisterService(&LookupService_ServiceDesc, srv)
}

// unaryHandler adapts one typed server method to grpc.MethodHandler.
func unaryHandler[Req any, Resp any](fullMethod string, call func(LookupServiceServer, context.Context, *Req) (Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LookupServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(LookupServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// LookupService_ServiceDesc is the grpc.ServiceDesc for LookupService.
var LookupService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LookupServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetGloss",
			Handler:    unaryHandler(LookupService_GetGloss_FullMethodName, LookupServiceServer.GetGloss),
		},
		{
			MethodName: "GetExample",
			Handler:    unaryHandler(LookupService_GetExample_FullMethodName, LookupServiceServer.GetExample),
		},
		{
			MethodName: "GetGlossRelatedIds",
			Handler:    unaryHandler(LookupService_GetGlossRelatedIds_FullMethodName, LookupServiceServer.GetGlossRelatedIds),
		},
		{
			MethodName: "Describe",
			Handler:    unaryHandler(LookupService_Describe_FullMethodName, LookupServiceServer.Describe),
		},
		{
			MethodName: "GetMetrics",
			Handler:    unaryHandler(LookupService_GetMetrics_FullMethodName, LookupServiceServer.GetMetrics),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "api/v1/lookup.proto",
}

// LookupServiceClient is the client API for LookupService.
type LookupServiceClient interface {
	GetGloss(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	GetExample(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	GetGlossRelatedIds(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.ListValue, error)
	Describe(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetMetrics(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type lookupServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewLookupServiceClient creates a client stub on cc.
func NewLookupServiceClient(cc grpc.ClientConnInterface) LookupServiceClient {
	return &lookupServiceClient{cc}
}

func (c *lookupServiceClient) GetGloss(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, LookupService_GetGloss_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *lookupServiceClient) GetExample(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, LookupService_GetExample_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *lookupServiceClient) GetGlossRelatedIds(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, LookupService_GetGlossRelatedIds_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *lookupServiceClient) Describe(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, LookupService_Describe_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *lookupServiceClient) GetMetrics(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, LookupService_GetMetrics_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
