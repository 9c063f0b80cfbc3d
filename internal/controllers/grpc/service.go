package grpc

import (
	"context"

	"github.com/chrissnell/lunarmansion/internal/engine"
	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "lunarmansion.v1.Resolver"

const resolveMethod = "/" + ServiceName + "/Resolve"

// ResolveRequest mirrors the /calculate query string
type ResolveRequest struct {
	Year     string `json:"year"`
	Month    string `json:"month"`
	Day      string `json:"day"`
	Hour     string `json:"hour,omitempty"`
	Minute   string `json:"minute,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// ResolveResponse carries a result, or an error with an optional partial result.
// Validation errors are returned as InvalidArgument status errors instead.
type ResolveResponse struct {
	Result    *engine.Result `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
	ErrorKind engine.Kind    `json:"error_kind,omitempty"`
}

// ResolverServer is the server API for the resolver service
type ResolverServer interface {
	Resolve(context.Context, *ResolveRequest) (*ResolveResponse, error)
}

// RegisterResolverServer registers srv with s
func RegisterResolverServer(s grpc.ServiceRegistrar, srv ResolverServer) {
	s.RegisterService(&resolverServiceDesc, srv)
}

var resolverServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ResolverServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Resolve",
			Handler:    resolveHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "lunarmansion/v1/resolver",
}

func resolveHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ResolveRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ResolverServer).Resolve(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: resolveMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ResolverServer).Resolve(ctx, req.(*ResolveRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// ResolverClient calls the resolver service using the JSON codec
type ResolverClient struct {
	cc grpc.ClientConnInterface
}

// NewResolverClient creates a client on cc
func NewResolverClient(cc grpc.ClientConnInterface) *ResolverClient {
	return &ResolverClient{cc: cc}
}

func (c *ResolverClient) Resolve(ctx context.Context, in *ResolveRequest, opts ...grpc.CallOption) (*ResolveResponse, error) {
	out := new(ResolveResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, resolveMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
