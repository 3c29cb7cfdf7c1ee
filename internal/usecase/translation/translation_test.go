package translation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/RXLU5x/translate-image-text-cloud/internal/entity"
	"github.com/RXLU5x/translate-image-text-cloud/internal/repo/repotest"
	"github.com/RXLU5x/translate-image-text-cloud/internal/usecase/submission"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/logger"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/types/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type translator struct {
	detected  string
	detectErr error
	err       error
	calls     int
	hang      bool
}

func (t *translator) DetectLanguage(_ context.Context, _ string) (string, error) {
	return t.detected, t.detectErr
}

func (t *translator) Translate(ctx context.Context, text, from, to string) (string, error) {
	t.calls++
	if t.hang {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if t.err != nil {
		return "", t.err
	}
	return text + " (" + from + "->" + to + ")", nil
}

type fixture struct {
	subs       *submission.SubmissionUseCase
	translator *translator
	uc         *TranslationUseCase
	id         string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctx := context.Background()
	store := repotest.New()
	store.AddUser("alice", entity.Premium)
	require.NoError(t, store.Sessions.Create(ctx, &entity.Session{ID: "s-alice", Username: "alice"}))

	f := &fixture{translator: &translator{detected: "zh-CN"}}
	f.subs = submission.New(store.Sessions, store.Submissions, store, nil)
	f.uc = New(f.subs, f.translator, nil, logger.Nop())

	sub, _, err := f.subs.Open(ctx, "s-alice")
	require.NoError(t, err)
	require.NoError(t, f.subs.MarkDetected(ctx, sub.ID, "猫"))
	f.id = sub.ID

	return f
}

func (f *fixture) message() *entity.Message {
	return &entity.Message{
		ID:      "m-1",
		Payload: []byte("猫"),
		Attributes: map[string]string{
			entity.AttrSubmissionID:   f.id,
			entity.AttrTargetLanguage: "en",
		},
	}
}

func (f *fixture) state(t *testing.T) *entity.Submission {
	t.Helper()

	sub, err := f.subs.Get(context.Background(), f.id)
	require.NoError(t, err)

	return sub
}

func TestHandleCompletesSubmission(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.uc.Handle(context.Background(), f.message()))

	sub := f.state(t)
	assert.Equal(t, entity.Completed, sub.State)
	assert.Equal(t, "猫 (zh-CN->en)", *sub.TextTranslated)
	assert.Equal(t, "zh-CN", *sub.TranslatedFrom)
	assert.Equal(t, "en", *sub.TranslatedTo)
}

func TestHandleSkipsCompletedSubmission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.uc.Handle(ctx, f.message()))
	require.NoError(t, f.uc.Handle(ctx, f.message()))

	assert.Equal(t, 1, f.translator.calls)
}

func TestHandleFailures(t *testing.T) {
	tests := []struct {
		name      string
		detectErr error
		err       error
		want      string
	}{
		{
			name:      "detection outage",
			detectErr: errors.New("quota exceeded"),
			want:      "CNTextTranslation module: quota exceeded",
		},
		{
			name: "unsupported target",
			err:  errors.New("googleapi: Error 400: Invalid Value"),
			want: "CNTextTranslation module: googleapi: Error 400: Invalid Value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.translator.detectErr = tt.detectErr
			f.translator.err = tt.err

			require.Error(t, f.uc.Handle(context.Background(), f.message()))

			sub := f.state(t)
			assert.Equal(t, entity.Failed, sub.State)
			assert.Equal(t, tt.want, *sub.Error)
			assert.Nil(t, sub.TextTranslated)
		})
	}
}

func TestHandleUnknownSubmission(t *testing.T) {
	f := newFixture(t)
	msg := f.message()
	msg.Attributes[entity.AttrSubmissionID] = "sub-404"

	err := f.uc.Handle(context.Background(), msg)
	require.ErrorIs(t, err, errs.ErrSubmissionNotFound)
	assert.Zero(t, f.translator.calls)
}

func TestHandleTimeoutIsRecorded(t *testing.T) {
	f := newFixture(t)
	f.translator.hang = true

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	require.Error(t, f.uc.Handle(ctx, f.message()))

	sub := f.state(t)
	assert.Equal(t, entity.Failed, sub.State)
	require.NotNil(t, sub.Error)
	assert.Equal(t, "CNTextTranslation module: context deadline exceeded", *sub.Error)
}

func TestHandleStoppedIsNotRecorded(t *testing.T) {
	f := newFixture(t)
	f.translator.hang = true

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	require.Error(t, f.uc.Handle(ctx, f.message()))

	assert.Equal(t, entity.Detected, f.state(t).State)
}
