package ingestion

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/RXLU5x/translate-image-text-cloud/internal/entity"
	"github.com/RXLU5x/translate-image-text-cloud/internal/infrastructure"
	"github.com/RXLU5x/translate-image-text-cloud/internal/repo"
	"github.com/RXLU5x/translate-image-text-cloud/internal/usecase"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/gauge"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/logger"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/metrics"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/types/errs"
)

const (
	// MaxChunkSize bounds a single chunk frame.
	MaxChunkSize = 1_000_000
	// StreamThreshold is the declared size above which chunks are streamed
	// to the object store instead of buffered.
	StreamThreshold = 1_000_000
)

type State int

const (
	AwaitingMetadata State = iota
	ReceivingChunks
	Completed
	Aborted
)

func (s State) String() string {
	switch s {
	case AwaitingMetadata:
		return "awaiting metadata"
	case ReceivingChunks:
		return "receiving chunks"
	case Completed:
		return "completed"
	case Aborted:
		return "aborted"
	}
	return "unknown"
}

type IngestionUseCase struct {
	submissions usecase.SubmissionUseCase
	objects     repo.ObjectRepo
	publisher   infrastructure.Publisher
	premium     *gauge.Counter

	metrics *metrics.Metrics
	logger  logger.Interface
}

func New(
	submissions usecase.SubmissionUseCase,
	objects repo.ObjectRepo,
	publisher infrastructure.Publisher,
	premium *gauge.Counter,
	m *metrics.Metrics,
	l logger.Interface,
) *IngestionUseCase {
	return &IngestionUseCase{
		submissions: submissions,
		objects:     objects,
		publisher:   publisher,
		premium:     premium,
		metrics:     m,
		logger:      l,
	}
}

// Begin starts the upload of one streaming call.
func (uc *IngestionUseCase) Begin() usecase.Upload {
	return &Upload{uc: uc}
}

// Upload is the state machine of one upload:
// AwaitingMetadata -> ReceivingChunks -> Completed | Aborted.
type Upload struct {
	uc    *IngestionUseCase
	state State

	meta       entity.MetadataFrame
	submission *entity.Submission
	level      entity.ServiceLevel
	key        string

	written int64
	buf     []byte
	writer  repo.ObjectWriter
}

func (u *Upload) State() State {
	return u.state
}

// SubmissionID is empty until the metadata frame has been accepted.
func (u *Upload) SubmissionID() string {
	if u.submission == nil {
		return ""
	}
	return u.submission.ID
}

func (u *Upload) Accept(ctx context.Context, frame entity.Frame) error {
	var err error

	switch f := frame.(type) {
	case entity.MetadataFrame:
		err = u.acceptMetadata(ctx, f)
	case entity.ChunkFrame:
		err = u.acceptChunk(ctx, f)
	default:
		err = fmt.Errorf("%T: %w", frame, errs.ErrUnexpectedFrame)
	}

	if err != nil {
		u.Abort(ctx)

		return fmt.Errorf("Upload - Accept: %w", err)
	}

	return nil
}

func (u *Upload) acceptMetadata(ctx context.Context, m entity.MetadataFrame) error {
	if u.state != AwaitingMetadata {
		return fmt.Errorf("metadata while %s: %w", u.state, errs.ErrUnexpectedFrame)
	}

	if err := validateMetadata(m); err != nil {
		return err
	}

	submission, level, err := u.uc.submissions.Open(ctx, m.SessionID)
	if err != nil {
		return fmt.Errorf("u.uc.submissions.Open: %w", err)
	}

	if level == entity.Premium {
		u.uc.premium.Inc()
	}

	u.meta = m
	u.submission = submission
	u.level = level
	u.key = submission.ID + strings.ToLower(filepath.Ext(m.Filename))
	u.state = ReceivingChunks

	if !u.streamed() {
		u.buf = make([]byte, 0, m.Size)
	}

	return nil
}

func validateMetadata(m entity.MetadataFrame) error {
	switch {
	case m.SessionID == "":
		return errs.ErrSessionInvalid
	case strings.TrimSpace(m.Filename) == "":
		return fmt.Errorf("filename is empty: %w", errs.ErrMetadataInvalid)
	case strings.TrimSpace(m.TranslateTo) == "":
		return fmt.Errorf("target language is empty: %w", errs.ErrMetadataInvalid)
	case m.Size <= 0:
		return fmt.Errorf("size %d: %w", m.Size, errs.ErrMetadataInvalid)
	}

	return nil
}

func (u *Upload) streamed() bool {
	return u.meta.Size > StreamThreshold
}

func (u *Upload) acceptChunk(ctx context.Context, c entity.ChunkFrame) error {
	if u.state != ReceivingChunks {
		return fmt.Errorf("chunk while %s: %w", u.state, errs.ErrUnexpectedFrame)
	}

	n := int64(len(c.Data))
	if n > MaxChunkSize {
		return fmt.Errorf("chunk of %d bytes: %w", n, errs.ErrChunkInvalid)
	}

	if u.written+n > u.meta.Size {
		return fmt.Errorf("%d bytes over declared %d: %w", u.written+n-u.meta.Size, u.meta.Size, errs.ErrSizeMismatch)
	}

	// Empty chunks carry nothing and must not open a writer, since one
	// opened after the object is closed would overwrite it.
	if n == 0 {
		return nil
	}

	if !u.streamed() {
		u.buf = append(u.buf, c.Data...)
		u.written += n

		return nil
	}

	if u.writer == nil {
		w, err := u.uc.objects.OpenWriter(ctx, u.key)
		if err != nil {
			return fmt.Errorf("u.uc.objects.OpenWriter: %w", err)
		}
		u.writer = w
	}

	if err := u.writer.Write(ctx, c.Data); err != nil {
		return fmt.Errorf("u.writer.Write: %w", err)
	}
	u.written += n

	if u.written == u.meta.Size {
		w := u.writer
		u.writer = nil

		if err := w.Close(ctx); err != nil {
			return fmt.Errorf("w.Close: %w", err)
		}
	}

	return nil
}

// Complete checks the byte count, stores buffered images, hands the
// submission to the OCR stage of its tier and returns the submission id.
func (u *Upload) Complete(ctx context.Context) (string, error) {
	if u.state != ReceivingChunks {
		err := fmt.Errorf("complete while %s: %w", u.state, errs.ErrUnexpectedFrame)
		u.Abort(ctx)

		return "", fmt.Errorf("Upload - Complete: %w", err)
	}

	id, err := u.complete(ctx)
	if err != nil {
		u.Abort(ctx)

		return "", fmt.Errorf("Upload - Complete - %s: %w", u.SubmissionID(), err)
	}

	u.state = Completed
	u.uc.metrics.Ingested(u.written)
	u.uc.logger.Info("submission %s accepted: %s, %d bytes, %s tier", id, u.key, u.written, u.level)

	return id, nil
}

func (u *Upload) complete(ctx context.Context) (string, error) {
	if u.written != u.meta.Size {
		return "", fmt.Errorf("got %d of %d bytes: %w", u.written, u.meta.Size, errs.ErrSizeMismatch)
	}

	if !u.streamed() {
		if err := u.uc.objects.Put(ctx, u.key, u.buf); err != nil {
			return "", fmt.Errorf("u.uc.objects.Put: %w", err)
		}
		u.buf = nil
	}

	attributes := map[string]string{
		entity.AttrSubmissionID:   u.submission.ID,
		entity.AttrTargetLanguage: u.meta.TranslateTo,
	}

	err := u.uc.publisher.Publish(ctx, u.level.OCRTopic(), []byte(u.key), attributes)
	if err != nil {
		if derr := u.uc.objects.Delete(ctx, u.key); derr != nil {
			u.uc.logger.Error(derr, "Upload - complete - u.uc.objects.Delete")
		}

		return "", fmt.Errorf("u.uc.publisher.Publish: %w", err)
	}

	return u.submission.ID, nil
}

// Abort discards the upload. An open streamed write is aborted; the
// submission, if any, stays in_progress.
func (u *Upload) Abort(ctx context.Context) {
	if u.state == Completed || u.state == Aborted {
		return
	}

	u.state = Aborted
	u.buf = nil

	if u.writer != nil {
		if err := u.writer.Abort(ctx); err != nil {
			u.uc.logger.Error(err, "Upload - Abort - u.writer.Abort")
		}
		u.writer = nil
	}

	if id := u.SubmissionID(); id != "" {
		u.uc.logger.Warn("upload of submission %s aborted after %d bytes", id, u.written)
	}
}
