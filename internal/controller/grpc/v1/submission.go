package v1

import (
	"context"
	"errors"
	"fmt"
	"io"

	cntextv1 "github.com/RXLU5x/translate-image-text-cloud/api/cntext/v1"
	"github.com/RXLU5x/translate-image-text-cloud/internal/entity"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/types/errs"
)

func (r *V1) SubmitImage(stream cntextv1.CNText_SubmitImageServer) error {
	ctx := stream.Context()
	upload := r.ingestion.Begin()

	for {
		in, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// The caller went away; the submission stays in progress.
			upload.Abort(context.WithoutCancel(ctx))

			return err
		}

		frame, err := toFrame(in)
		if err == nil {
			err = upload.Accept(ctx, frame)
		}
		if err != nil {
			upload.Abort(context.WithoutCancel(ctx))

			return r.toStatus(err, "SubmitImage", "")
		}
	}

	id, err := upload.Complete(ctx)
	if err != nil {
		return r.toStatus(err, "SubmitImage", "")
	}

	return stream.SendAndClose(&cntextv1.SubmitImageReply{SubmissionID: id})
}

func toFrame(in *cntextv1.ImageFrame) (entity.Frame, error) {
	switch {
	case in.Metadata != nil && in.Chunk == nil:
		return entity.MetadataFrame{
			SessionID:   in.Metadata.SessionID,
			Filename:    in.Metadata.Name,
			Size:        in.Metadata.Size,
			TranslateTo: in.Metadata.TranslateTo,
		}, nil
	case in.Chunk != nil && in.Metadata == nil:
		return entity.ChunkFrame{Data: in.Chunk.Data}, nil
	}

	return nil, fmt.Errorf("frame must carry either metadata or a chunk: %w", errs.ErrUnexpectedFrame)
}

func (r *V1) GetResult(ctx context.Context, in *cntextv1.GetResultRequest) (*cntextv1.GetResultReply, error) {
	sub, err := r.submissions.Result(ctx, in.SessionID, in.SubmissionID)
	if err != nil {
		return nil, r.toStatus(err, "GetResult", resultMessage(in, sub, err))
	}

	return &cntextv1.GetResultReply{
		TranslatedText: deref(sub.TextTranslated),
		TranslatedFrom: deref(sub.TranslatedFrom),
		TranslatedTo:   deref(sub.TranslatedTo),
	}, nil
}

func resultMessage(in *cntextv1.GetResultRequest, sub *entity.Submission, err error) string {
	switch {
	case errors.Is(err, errs.ErrSessionNotFound):
		return fmt.Sprintf("There is no session whose id is %s", in.SessionID)
	case errors.Is(err, errs.ErrSubmissionNotFound):
		return fmt.Sprintf("There is no submission whose id is %s", in.SubmissionID)
	case errors.Is(err, errs.ErrSubmissionFailed) && sub != nil:
		return "Submission encountered an error. " + deref(sub.Error)
	case errors.Is(err, errs.ErrSubmissionNotReady) && sub != nil:
		return "Submission isn't ready yet. Current state is " + sub.State.String()
	}

	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
