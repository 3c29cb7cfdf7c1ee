package v1_test

import (
	"bytes"
	"context"
	"errors"
	"net"
	"testing"
	"time"

	cntextv1 "github.com/RXLU5x/translate-image-text-cloud/api/cntext/v1"
	grpcv1 "github.com/RXLU5x/translate-image-text-cloud/internal/controller/grpc/v1"
	"github.com/RXLU5x/translate-image-text-cloud/internal/controller/stage"
	"github.com/RXLU5x/translate-image-text-cloud/internal/entity"
	"github.com/RXLU5x/translate-image-text-cloud/internal/infrastructure/brokertest"
	"github.com/RXLU5x/translate-image-text-cloud/internal/repo/repotest"
	"github.com/RXLU5x/translate-image-text-cloud/internal/usecase/ingestion"
	"github.com/RXLU5x/translate-image-text-cloud/internal/usecase/ocr"
	"github.com/RXLU5x/translate-image-text-cloud/internal/usecase/session"
	"github.com/RXLU5x/translate-image-text-cloud/internal/usecase/submission"
	"github.com/RXLU5x/translate-image-text-cloud/internal/usecase/translation"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/gauge"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/logger"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/types/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type preparer struct{}

func (preparer) Prepare(data []byte) ([]byte, error) { return data, nil }

type detector struct {
	text string
	err  error
}

func (d detector) DetectText(context.Context, []byte) (string, error) { return d.text, d.err }

type translator struct{}

func (translator) DetectLanguage(context.Context, string) (string, error) { return "zh-CN", nil }

func (translator) Translate(_ context.Context, text, _, _ string) (string, error) {
	if text == "猫" {
		return "cat", nil
	}
	return text, nil
}

type env struct {
	store   *repotest.Store
	objects *repotest.Objects
	broker  *brokertest.Broker
	premium *gauge.Counter
	subs    *submission.SubmissionUseCase
	client  cntextv1.CNTextClient
}

func newEnv(t *testing.T) *env {
	t.Helper()

	e := &env{
		store:   repotest.New(),
		objects: repotest.NewObjects(),
		broker:  brokertest.New(),
		premium: gauge.New(),
	}
	e.store.AddUser("alice", entity.Premium)
	e.store.AddUser("bob", entity.Free)

	l := logger.Nop()
	sessions := session.New(e.store.Users, e.store.Sessions, e.store, l)
	e.subs = submission.New(e.store.Sessions, e.store.Submissions, e.store, nil)
	ingest := ingestion.New(e.subs, e.objects, e.broker, e.premium, nil, l)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	grpcv1.NewCNTextRoutes(srv, sessions, e.subs, ingest, l)

	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	e.client = cntextv1.NewCNTextClient(conn)

	return e
}

// runStages starts the OCR and translation controllers of the premium tier.
func (e *env) runStages(t *testing.T, det detector) {
	t.Helper()

	l := logger.Nop()
	ocrUC := ocr.New(e.subs, e.objects, preparer{}, det, e.broker, entity.Premium, nil, l)
	trUC := translation.New(e.subs, translator{}, nil, l)

	controllers := []*stage.Controller{
		stage.New("ocr", e.broker.Source(entity.Premium.OCRTopic()), ocrUC, l, stage.Workers(2)),
		stage.New("translation", e.broker.Source(entity.Premium.TranslationTopic()), trUC, l, stage.Workers(2)),
	}
	for _, c := range controllers {
		require.NoError(t, c.Start(context.Background()))
	}

	t.Cleanup(func() {
		for _, c := range controllers {
			require.NoError(t, c.Shutdown(context.Background()))
		}
	})
}

func submit(ctx context.Context, c cntextv1.CNTextClient, meta *cntextv1.ImageMetadata, data []byte, chunk int) (string, error) {
	stream, err := c.SubmitImage(ctx)
	if err != nil {
		return "", err
	}

	if err := stream.Send(&cntextv1.ImageFrame{Metadata: meta}); err != nil {
		return "", err
	}
	for len(data) > 0 {
		n := min(chunk, len(data))
		if err := stream.Send(&cntextv1.ImageFrame{Chunk: &cntextv1.ImageChunk{Data: data[:n]}}); err != nil {
			break
		}
		data = data[n:]
	}

	reply, err := stream.CloseAndRecv()
	if err != nil {
		return "", err
	}

	return reply.SubmissionID, nil
}

func TestCatScenario(t *testing.T) {
	e := newEnv(t)
	e.runStages(t, detector{text: "猫"})
	ctx := context.Background()

	signIn, err := e.client.SignIn(ctx, &cntextv1.SignInRequest{Username: "alice"})
	require.NoError(t, err)
	require.NotEmpty(t, signIn.SessionID)

	img := bytes.Repeat([]byte{0x89}, 2_500_000)
	id, err := submit(ctx, e.client, &cntextv1.ImageMetadata{
		SessionID:   signIn.SessionID,
		Name:        "cat.png",
		Size:        int64(len(img)),
		TranslateTo: "en",
	}, img, 1_000_000)
	require.NoError(t, err)
	assert.Equal(t, int64(1), e.premium.Value())

	var result *cntextv1.GetResultReply
	require.Eventually(t, func() bool {
		result, err = e.client.GetResult(ctx, &cntextv1.GetResultRequest{SessionID: signIn.SessionID, SubmissionID: id})
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, &cntextv1.GetResultReply{TranslatedText: "cat", TranslatedFrom: "zh-CN", TranslatedTo: "en"}, result)
	assert.False(t, e.objects.Has(id+".png"))

	_, err = e.client.SignOut(ctx, &cntextv1.SignOutRequest{SessionID: signIn.SessionID})
	require.NoError(t, err)

	_, err = e.client.GetResult(ctx, &cntextv1.GetResultRequest{SessionID: signIn.SessionID, SubmissionID: id})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestOCRFailureSurfacesAsUnavailable(t *testing.T) {
	e := newEnv(t)
	e.runStages(t, detector{err: errs.ErrNoTextDetected})
	ctx := context.Background()

	signIn, err := e.client.SignIn(ctx, &cntextv1.SignInRequest{Username: "alice"})
	require.NoError(t, err)

	id, err := submit(ctx, e.client, &cntextv1.ImageMetadata{
		SessionID: signIn.SessionID, Name: "blank.jpg", Size: 10, TranslateTo: "pt",
	}, make([]byte, 10), 1_000_000)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, err = e.client.GetResult(ctx, &cntextv1.GetResultRequest{SessionID: signIn.SessionID, SubmissionID: id})
		st := status.Convert(err)
		return st.Code() == codes.Unavailable &&
			st.Message() == "Submission encountered an error. CNTextOCR module: no text detected"
	}, 5*time.Second, 10*time.Millisecond)
}

func TestGetResultNotReady(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	signIn, err := e.client.SignIn(ctx, &cntextv1.SignInRequest{Username: "bob"})
	require.NoError(t, err)

	id, err := submit(ctx, e.client, &cntextv1.ImageMetadata{
		SessionID: signIn.SessionID, Name: "cat.png", Size: 3, TranslateTo: "en",
	}, []byte("cat"), 1_000_000)
	require.NoError(t, err)
	assert.Zero(t, e.premium.Value())

	published := e.broker.Published()
	require.Len(t, published, 1)
	assert.Equal(t, "free-ocr", published[0].Topic)

	_, err = e.client.GetResult(ctx, &cntextv1.GetResultRequest{SessionID: signIn.SessionID, SubmissionID: id})
	st := status.Convert(err)
	assert.Equal(t, codes.Unavailable, st.Code())
	assert.Equal(t, "Submission isn't ready yet. Current state is in_progress", st.Message())
}

func TestErrorCodes(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.client.SignIn(ctx, &cntextv1.SignInRequest{Username: "mallory"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = e.client.SignIn(ctx, &cntextv1.SignInRequest{Username: "  "})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = e.client.SignOut(ctx, &cntextv1.SignOutRequest{SessionID: "nope"})
	st := status.Convert(err)
	assert.Equal(t, codes.NotFound, st.Code())
	assert.Equal(t, "There is no session whose id is nope", st.Message())

	_, err = e.client.GetResult(ctx, &cntextv1.GetResultRequest{SessionID: "nope", SubmissionID: "sub-1"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	signIn, err := e.client.SignIn(ctx, &cntextv1.SignInRequest{Username: "bob"})
	require.NoError(t, err)

	_, err = e.client.GetResult(ctx, &cntextv1.GetResultRequest{SessionID: signIn.SessionID, SubmissionID: "sub-404"})
	st = status.Convert(err)
	assert.Equal(t, codes.NotFound, st.Code())
	assert.Equal(t, "There is no submission whose id is sub-404", st.Message())

	_, err = e.client.GetResult(ctx, &cntextv1.GetResultRequest{SessionID: signIn.SessionID})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestSubmitImageValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	signIn, err := e.client.SignIn(ctx, &cntextv1.SignInRequest{Username: "bob"})
	require.NoError(t, err)

	tests := []struct {
		name string
		meta *cntextv1.ImageMetadata
		data []byte
		code codes.Code
	}{
		{"unknown session", &cntextv1.ImageMetadata{SessionID: "nope", Name: "a.png", Size: 1, TranslateTo: "en"}, []byte{1}, codes.NotFound},
		{"empty session", &cntextv1.ImageMetadata{Name: "a.png", Size: 1, TranslateTo: "en"}, []byte{1}, codes.InvalidArgument},
		{"no target", &cntextv1.ImageMetadata{SessionID: signIn.SessionID, Name: "a.png", Size: 1}, []byte{1}, codes.InvalidArgument},
		{"short", &cntextv1.ImageMetadata{SessionID: signIn.SessionID, Name: "a.png", Size: 5, TranslateTo: "en"}, []byte{1}, codes.InvalidArgument},
		{"long", &cntextv1.ImageMetadata{SessionID: signIn.SessionID, Name: "a.png", Size: 1, TranslateTo: "en"}, []byte{1, 2}, codes.InvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := submit(ctx, e.client, tt.meta, tt.data, 1_000_000)
			assert.Equal(t, tt.code, status.Code(err))
		})
	}

	assert.Empty(t, e.broker.Published())
}

func TestSubmitImageRejectsChunkFirst(t *testing.T) {
	e := newEnv(t)

	stream, err := e.client.SubmitImage(context.Background())
	require.NoError(t, err)
	require.NoError(t, stream.Send(&cntextv1.ImageFrame{Chunk: &cntextv1.ImageChunk{Data: []byte{1}}}))

	_, err = stream.CloseAndRecv()
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestUnknownErrorsAreInternal(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	signIn, err := e.client.SignIn(ctx, &cntextv1.SignInRequest{Username: "bob"})
	require.NoError(t, err)
	e.broker.FailPublish = errors.New("broker unreachable")

	_, err = submit(ctx, e.client, &cntextv1.ImageMetadata{
		SessionID: signIn.SessionID, Name: "cat.png", Size: 3, TranslateTo: "en",
	}, []byte("cat"), 1_000_000)
	st := status.Convert(err)
	assert.Equal(t, codes.Internal, st.Code())
	assert.NotContains(t, st.Message(), "broker unreachable")
}
