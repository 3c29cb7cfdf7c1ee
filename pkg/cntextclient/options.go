package cntextclient

import (
	"time"

	"google.golang.org/grpc"
)

type Option func(*Client, []grpc.DialOption) []grpc.DialOption

func PollInterval(d time.Duration) Option {
	return func(c *Client, opts []grpc.DialOption) []grpc.DialOption {
		c.pollInterval = d
		return opts
	}
}

func DialOptions(extra ...grpc.DialOption) Option {
	return func(_ *Client, opts []grpc.DialOption) []grpc.DialOption {
		return append(opts, extra...)
	}
}
