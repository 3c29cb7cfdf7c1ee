package v1

import (
	"context"

	"google.golang.org/grpc"
)

type CNTextClient interface {
	SignIn(ctx context.Context, in *SignInRequest, opts ...grpc.CallOption) (*SignInReply, error)
	SignOut(ctx context.Context, in *SignOutRequest, opts ...grpc.CallOption) (*SignOutReply, error)
	SubmitImage(ctx context.Context, opts ...grpc.CallOption) (CNText_SubmitImageClient, error)
	GetResult(ctx context.Context, in *GetResultRequest, opts ...grpc.CallOption) (*GetResultReply, error)
}

type cntextClient struct {
	cc grpc.ClientConnInterface
}

// NewCNTextClient returns a client speaking the JSON codec on cc.
func NewCNTextClient(cc grpc.ClientConnInterface) CNTextClient {
	return &cntextClient{cc: cc}
}

func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}

func (c *cntextClient) SignIn(ctx context.Context, in *SignInRequest, opts ...grpc.CallOption) (*SignInReply, error) {
	out := new(SignInReply)
	if err := c.cc.Invoke(ctx, SignInMethod, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *cntextClient) SignOut(ctx context.Context, in *SignOutRequest, opts ...grpc.CallOption) (*SignOutReply, error) {
	out := new(SignOutReply)
	if err := c.cc.Invoke(ctx, SignOutMethod, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *cntextClient) GetResult(ctx context.Context, in *GetResultRequest, opts ...grpc.CallOption) (*GetResultReply, error) {
	out := new(GetResultReply)
	if err := c.cc.Invoke(ctx, GetResultMethod, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *cntextClient) SubmitImage(ctx context.Context, opts ...grpc.CallOption) (CNText_SubmitImageClient, error) {
	stream, err := c.cc.NewStream(ctx, &CNText_ServiceDesc.Streams[0], SubmitImageMethod, withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	return &submitImageClient{stream}, nil
}

// CNText_SubmitImageClient is the client side of the SubmitImage stream.
type CNText_SubmitImageClient interface {
	Send(*ImageFrame) error
	CloseAndRecv() (*SubmitImageReply, error)
	grpc.ClientStream
}

type submitImageClient struct {
	grpc.ClientStream
}

func (x *submitImageClient) Send(m *ImageFrame) error {
	return x.ClientStream.SendMsg(m)
}

func (x *submitImageClient) CloseAndRecv() (*SubmitImageReply, error) {
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	m := new(SubmitImageReply)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}
