// Package cntextclient is a thin client of the image text translation service.
package cntextclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	cntextv1 "github.com/RXLU5x/translate-image-text-cloud/api/cntext/v1"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

const (
	// ChunkSize is the largest chunk the server accepts.
	ChunkSize = 1_000_000

	_defaultPollInterval = 2 * time.Second
)

type Client struct {
	conn *grpc.ClientConn
	api  cntextv1.CNTextClient

	pollInterval time.Duration
}

// New connects to the server at addr. The connection is plaintext.
func New(addr string, opts ...Option) (*Client, error) {
	c := &Client{pollInterval: _defaultPollInterval}

	var dialOpts []grpc.DialOption
	for _, opt := range opts {
		dialOpts = opt(c, dialOpts)
	}
	dialOpts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, dialOpts...)

	conn, err := grpc.NewClient(addr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("cntextclient - New - grpc.NewClient: %w", err)
	}

	c.conn = conn
	c.api = cntextv1.NewCNTextClient(conn)

	return c, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) SignIn(ctx context.Context, username string) (string, error) {
	reply, err := c.api.SignIn(ctx, &cntextv1.SignInRequest{Username: username})
	if err != nil {
		return "", fmt.Errorf("cntextclient - SignIn: %w", err)
	}
	return reply.SessionID, nil
}

func (c *Client) SignOut(ctx context.Context, sessionID string) error {
	_, err := c.api.SignOut(ctx, &cntextv1.SignOutRequest{SessionID: sessionID})
	if err != nil {
		return fmt.Errorf("cntextclient - SignOut: %w", err)
	}
	return nil
}

// SubmitFile streams the file at path and returns the submission id.
func (c *Client) SubmitFile(ctx context.Context, sessionID, path, translateTo string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("cntextclient - SubmitFile - os.Open: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("cntextclient - SubmitFile - f.Stat: %w", err)
	}

	return c.Submit(ctx, sessionID, filepath.Base(path), info.Size(), translateTo, f)
}

// Submit streams size bytes of r as the image name.
func (c *Client) Submit(ctx context.Context, sessionID, name string, size int64, translateTo string, r io.Reader) (string, error) {
	stream, err := c.api.SubmitImage(ctx)
	if err != nil {
		return "", fmt.Errorf("cntextclient - Submit - c.api.SubmitImage: %w", err)
	}

	err = stream.Send(&cntextv1.ImageFrame{Metadata: &cntextv1.ImageMetadata{
		SessionID:   sessionID,
		Name:        name,
		Size:        size,
		TranslateTo: translateTo,
	}})
	if err == nil {
		err = sendChunks(stream, r)
	}
	// io.EOF from Send means the server already answered; the status is
	// read from CloseAndRecv.
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("cntextclient - Submit - stream.Send: %w", err)
	}

	reply, err := stream.CloseAndRecv()
	if err != nil {
		return "", fmt.Errorf("cntextclient - Submit - stream.CloseAndRecv: %w", err)
	}

	return reply.SubmissionID, nil
}

func sendChunks(stream cntextv1.CNText_SubmitImageClient, r io.Reader) error {
	buf := make([]byte, ChunkSize)

	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			data := append([]byte(nil), buf[:n]...)
			if serr := stream.Send(&cntextv1.ImageFrame{Chunk: &cntextv1.ImageChunk{Data: data}}); serr != nil {
				return serr
			}
		}

		switch {
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			return nil
		case err != nil:
			return err
		}
	}
}

type Result struct {
	Text string
	From string
	To   string
}

func (c *Client) GetResult(ctx context.Context, sessionID, submissionID string) (Result, error) {
	reply, err := c.api.GetResult(ctx, &cntextv1.GetResultRequest{SessionID: sessionID, SubmissionID: submissionID})
	if err != nil {
		return Result{}, fmt.Errorf("cntextclient - GetResult: %w", err)
	}

	return Result{Text: reply.TranslatedText, From: reply.TranslatedFrom, To: reply.TranslatedTo}, nil
}

// WaitResult polls GetResult until the submission is completed, ctx ends or
// the server answers with anything other than "not ready". A failed
// submission is returned as its error; see IsFailed.
func (c *Client) WaitResult(ctx context.Context, sessionID, submissionID string) (Result, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		res, err := c.GetResult(ctx, sessionID, submissionID)
		if err == nil {
			return res, nil
		}

		st := status.Convert(errors.Unwrap(err))
		if st.Code() != codes.Unavailable || IsFailed(err) {
			return Result{}, err
		}

		select {
		case <-ctx.Done():
			return Result{}, fmt.Errorf("cntextclient - WaitResult: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

const _failedPrefix = "Submission encountered an error."

// IsFailed reports whether err says the submission ended in error.
func IsFailed(err error) bool {
	st, ok := status.FromError(errors.Unwrap(err))
	if !ok {
		return false
	}
	return st.Code() == codes.Unavailable && strings.HasPrefix(st.Message(), _failedPrefix)
}
