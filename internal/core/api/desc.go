package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Service and method names of vizconf.v1.ConfigService. Requests and
// responses are google.protobuf.Struct messages.
const (
	ServiceName       = "vizconf.v1.ConfigService"
	SelectMethod      = "/" + ServiceName + "/Select"
	AddDocumentMethod = "/" + ServiceName + "/AddDocument"
)

// ConfigServiceServer is the server API for vizconf.v1.ConfigService.
type ConfigServiceServer interface {
	// Select returns {config, rule_count} for {type, criteria}.
	Select(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// AddDocument stores and loads {rules, source}; returns {document_id, rule_count}.
	AddDocument(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterConfigServiceServer registers srv with s.
func RegisterConfigServiceServer(s grpc.ServiceRegistrar, srv ConfigServiceServer) {
	s.RegisterService(&ConfigServiceDesc, srv)
}

// ConfigServiceDesc is the grpc.ServiceDesc for vizconf.v1.ConfigService.
var ConfigServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ConfigServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Select", Handler: selectHandler},
		{MethodName: "AddDocument", Handler: addDocumentHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "vizconf/v1/config_service.proto",
}

func selectHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ConfigServiceServer).Select(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SelectMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ConfigServiceServer).Select(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func addDocumentHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ConfigServiceServer).AddDocument(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: AddDocumentMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ConfigServiceServer).AddDocument(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// ConfigServiceClient is the client API for vizconf.v1.ConfigService.
type ConfigServiceClient interface {
	Select(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	AddDocument(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type configServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewConfigServiceClient creates a client over cc.
func NewConfigServiceClient(cc grpc.ClientConnInterface) ConfigServiceClient {
	return &configServiceClient{cc: cc}
}

func (c *configServiceClient) Select(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, SelectMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *configServiceClient) AddDocument(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, AddDocumentMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
