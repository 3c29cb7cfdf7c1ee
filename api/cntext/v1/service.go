package v1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	ServiceName = "cntext.v1.CNText"

	SignInMethod      = "/" + ServiceName + "/SignIn"
	SignOutMethod     = "/" + ServiceName + "/SignOut"
	SubmitImageMethod = "/" + ServiceName + "/SubmitImage"
	GetResultMethod   = "/" + ServiceName + "/GetResult"
)

type CNTextServer interface {
	SignIn(context.Context, *SignInRequest) (*SignInReply, error)
	SignOut(context.Context, *SignOutRequest) (*SignOutReply, error)
	SubmitImage(CNText_SubmitImageServer) error
	GetResult(context.Context, *GetResultRequest) (*GetResultReply, error)
}

// UnimplementedCNTextServer answers every method with codes.Unimplemented.
type UnimplementedCNTextServer struct{}

func (UnimplementedCNTextServer) SignIn(context.Context, *SignInRequest) (*SignInReply, error) {
	return nil, status.Error(codes.Unimplemented, "method SignIn not implemented")
}

func (UnimplementedCNTextServer) SignOut(context.Context, *SignOutRequest) (*SignOutReply, error) {
	return nil, status.Error(codes.Unimplemented, "method SignOut not implemented")
}

func (UnimplementedCNTextServer) SubmitImage(CNText_SubmitImageServer) error {
	return status.Error(codes.Unimplemented, "method SubmitImage not implemented")
}

func (UnimplementedCNTextServer) GetResult(context.Context, *GetResultRequest) (*GetResultReply, error) {
	return nil, status.Error(codes.Unimplemented, "method GetResult not implemented")
}

func RegisterCNTextServer(s grpc.ServiceRegistrar, srv CNTextServer) {
	s.RegisterService(&CNText_ServiceDesc, srv)
}

// CNText_SubmitImageServer is the server side of the SubmitImage stream.
type CNText_SubmitImageServer interface {
	Recv() (*ImageFrame, error)
	SendAndClose(*SubmitImageReply) error
	grpc.ServerStream
}

type submitImageServer struct {
	grpc.ServerStream
}

func (s *submitImageServer) Recv() (*ImageFrame, error) {
	m := new(ImageFrame)
	if err := s.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *submitImageServer) SendAndClose(m *SubmitImageReply) error {
	return s.ServerStream.SendMsg(m)
}

func unaryHandler[Req any, Reply any](call func(CNTextServer, context.Context, *Req) (*Reply, error), method string) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CNTextServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CNTextServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func submitImageHandler(srv any, stream grpc.ServerStream) error {
	return srv.(CNTextServer).SubmitImage(&submitImageServer{stream})
}

var CNText_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CNTextServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SignIn", Handler: unaryHandler(CNTextServer.SignIn, SignInMethod)},
		{MethodName: "SignOut", Handler: unaryHandler(CNTextServer.SignOut, SignOutMethod)},
		{MethodName: "GetResult", Handler: unaryHandler(CNTextServer.GetResult, GetResultMethod)},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "SubmitImage",
			Handler:       submitImageHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "cntext/v1",
}
