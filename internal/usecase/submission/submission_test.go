package submission

import (
	"context"
	"testing"

	"github.com/RXLU5x/translate-image-text-cloud/internal/entity"
	"github.com/RXLU5x/translate-image-text-cloud/internal/repo/repotest"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/metrics"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/types/errs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type SubmissionSuite struct {
	suite.Suite

	ctx     context.Context
	store   *repotest.Store
	uc      *SubmissionUseCase
	session string
}

func TestSubmissionSuite(t *testing.T) {
	suite.Run(t, new(SubmissionSuite))
}

func (s *SubmissionSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = repotest.New()
	s.store.AddUser("alice", entity.Premium)
	s.store.AddUser("bob", entity.Free)

	s.session = "session-alice"
	s.Require().NoError(s.store.Sessions.Create(s.ctx, &entity.Session{ID: s.session, Username: "alice"}))

	s.uc = New(s.store.Sessions, s.store.Submissions, s.store, metrics.New(prometheus.NewRegistry()))
}

func (s *SubmissionSuite) open() *entity.Submission {
	sub, level, err := s.uc.Open(s.ctx, s.session)
	s.Require().NoError(err)
	s.Require().Equal(entity.Premium, level)

	return sub
}

func (s *SubmissionSuite) TestOpenResolvesTier() {
	require.NoError(s.T(), s.store.Sessions.Create(s.ctx, &entity.Session{ID: "session-bob", Username: "bob"}))

	sub, level, err := s.uc.Open(s.ctx, "session-bob")
	s.Require().NoError(err)
	s.Equal(entity.Free, level)
	s.Equal(entity.InProgress, sub.State)
	s.Equal("session-bob", sub.SessionID)
}

func (s *SubmissionSuite) TestOpenRejectsUnknownSession() {
	_, _, err := s.uc.Open(s.ctx, "")
	s.ErrorIs(err, errs.ErrSessionInvalid)

	_, _, err = s.uc.Open(s.ctx, "nope")
	s.ErrorIs(err, errs.ErrSessionNotFound)
	s.Zero(s.store.SubmissionCount())
}

func (s *SubmissionSuite) TestResultOutcomes() {
	sub := s.open()

	got, err := s.uc.Result(s.ctx, s.session, sub.ID)
	s.ErrorIs(err, errs.ErrSubmissionNotReady)
	s.Equal(entity.InProgress, got.State)

	s.Require().NoError(s.uc.MarkDetected(s.ctx, sub.ID, "猫"))

	got, err = s.uc.Result(s.ctx, s.session, sub.ID)
	s.ErrorIs(err, errs.ErrSubmissionNotReady)
	s.Equal(entity.Detected, got.State)

	s.Require().NoError(s.uc.MarkCompleted(s.ctx, sub.ID, entity.Translation{Text: "cat", From: "zh-CN", To: "en"}))

	got, err = s.uc.Result(s.ctx, s.session, sub.ID)
	s.Require().NoError(err)
	s.Equal("cat", *got.TextTranslated)
	s.Equal("zh-CN", *got.TranslatedFrom)
	s.Equal("en", *got.TranslatedTo)
	s.Equal("猫", *got.Text)

	failed := s.open()
	s.Require().NoError(s.uc.MarkFailed(s.ctx, failed.ID, "CNTextOCR module: no text detected"))

	got, err = s.uc.Result(s.ctx, s.session, failed.ID)
	s.ErrorIs(err, errs.ErrSubmissionFailed)
	s.Equal("CNTextOCR module: no text detected", *got.Error)
}

func (s *SubmissionSuite) TestResultLookupErrors() {
	sub := s.open()

	_, err := s.uc.Result(s.ctx, "", sub.ID)
	s.ErrorIs(err, errs.ErrSessionInvalid)

	_, err = s.uc.Result(s.ctx, s.session, "")
	s.ErrorIs(err, errs.ErrSubmissionInvalid)

	_, err = s.uc.Result(s.ctx, "gone", sub.ID)
	s.ErrorIs(err, errs.ErrSessionNotFound)

	_, err = s.uc.Result(s.ctx, s.session, "sub-404")
	s.ErrorIs(err, errs.ErrSubmissionNotFound)

	s.Require().NoError(s.store.Sessions.Create(s.ctx, &entity.Session{ID: "other", Username: "bob"}))
	_, err = s.uc.Result(s.ctx, "other", sub.ID)
	s.ErrorIs(err, errs.ErrSubmissionNotFound)
}

func (s *SubmissionSuite) TestTransitionsAreMonotonic() {
	sub := s.open()

	s.ErrorIs(s.uc.MarkCompleted(s.ctx, sub.ID, entity.Translation{}), errs.ErrInvalidTransition)

	s.Require().NoError(s.uc.MarkDetected(s.ctx, sub.ID, "一"))
	// redelivery overwrites
	s.Require().NoError(s.uc.MarkDetected(s.ctx, sub.ID, "二"))

	got, err := s.uc.Get(s.ctx, sub.ID)
	s.Require().NoError(err)
	s.Equal("二", *got.Text)

	s.Require().NoError(s.uc.MarkCompleted(s.ctx, sub.ID, entity.Translation{Text: "two", From: "zh", To: "en"}))
	s.Require().NoError(s.uc.MarkCompleted(s.ctx, sub.ID, entity.Translation{Text: "two", From: "zh", To: "en"}))

	s.ErrorIs(s.uc.MarkDetected(s.ctx, sub.ID, "三"), errs.ErrInvalidTransition)
	s.ErrorIs(s.uc.MarkFailed(s.ctx, sub.ID, "late"), errs.ErrInvalidTransition)

	got, err = s.uc.Get(s.ctx, sub.ID)
	s.Require().NoError(err)
	s.Equal(entity.Completed, got.State)
	s.Equal("二", *got.Text)
	s.Nil(got.Error)
}

func (s *SubmissionSuite) TestFailedIsTerminal() {
	sub := s.open()

	s.Require().NoError(s.uc.MarkFailed(s.ctx, sub.ID, "CNTextOCR module: boom"))
	s.ErrorIs(s.uc.MarkDetected(s.ctx, sub.ID, "x"), errs.ErrInvalidTransition)
	s.ErrorIs(s.uc.MarkCompleted(s.ctx, sub.ID, entity.Translation{}), errs.ErrInvalidTransition)

	s.ErrorIs(s.uc.MarkDetected(s.ctx, "missing", "x"), errs.ErrSubmissionNotFound)
}

func (s *SubmissionSuite) TestFailedKeepsFirstError() {
	sub := s.open()

	s.Require().NoError(s.uc.MarkFailed(s.ctx, sub.ID, "CNTextOCR module: no text detected"))
	s.Require().NoError(s.uc.MarkFailed(s.ctx, sub.ID, "CNTextTranslation module: quota exceeded"))

	got, err := s.uc.Get(s.ctx, sub.ID)
	s.Require().NoError(err)
	s.Equal(entity.Failed, got.State)
	s.Require().NotNil(got.Error)
	s.Equal("CNTextOCR module: no text detected", *got.Error)
}

func (s *SubmissionSuite) TestDeleteAll() {
	for i := 0; i < CleanupBatchSize*2+1; i++ {
		s.open()
	}

	n, err := s.uc.DeleteAll(s.ctx)
	s.Require().NoError(err)
	s.Equal(CleanupBatchSize*2+1, n)
	s.Zero(s.store.SubmissionCount())
}
