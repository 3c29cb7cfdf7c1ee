package persistent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/RXLU5x/translate-image-text-cloud/internal/repo"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/s3client"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/types/errs"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3 rejects multipart parts smaller than this, except the last one.
const _minPartSize = 5 * 1024 * 1024

type ObjectRepo struct {
	*s3client.S3Client
	bucket string
}

func NewObjectRepo(s3c *s3client.S3Client, bucket string) *ObjectRepo {
	return &ObjectRepo{s3c, bucket}
}

func (r *ObjectRepo) Put(ctx context.Context, key string, data []byte) error {
	_, err := r.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("ObjectRepo - Put - r.Client.PutObject: %w", err)
	}

	return nil
}

func (r *ObjectRepo) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := r.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("ObjectRepo - Get: %w", errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("ObjectRepo - Get - r.Client.GetObject: %w", err)
	}
	defer result.Body.Close()

	b, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("ObjectRepo - Get - io.ReadAll: %w", err)
	}

	return b, nil
}

func (r *ObjectRepo) Delete(ctx context.Context, key string) error {
	_, err := r.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("ObjectRepo - Delete - r.Client.DeleteObject: %w", err)
	}

	return nil
}

// OpenWriter starts a multipart upload for key.
func (r *ObjectRepo) OpenWriter(ctx context.Context, key string) (repo.ObjectWriter, error) {
	out, err := r.Client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("ObjectRepo - OpenWriter - r.Client.CreateMultipartUpload: %w", err)
	}

	return &multipartWriter{
		client:   r.Client,
		bucket:   r.bucket,
		key:      key,
		uploadID: out.UploadId,
	}, nil
}

// multipartWriter buffers written bytes into parts of at least _minPartSize.
type multipartWriter struct {
	client   *s3.Client
	bucket   string
	key      string
	uploadID *string

	buf   bytes.Buffer
	parts []types.CompletedPart
}

func (w *multipartWriter) Write(ctx context.Context, p []byte) error {
	w.buf.Write(p)

	if w.buf.Len() < _minPartSize {
		return nil
	}

	if err := w.flush(ctx); err != nil {
		return fmt.Errorf("multipartWriter - Write - w.flush: %w", err)
	}

	return nil
}

func (w *multipartWriter) flush(ctx context.Context) error {
	number := int32(len(w.parts) + 1) //nolint:gosec // part numbers stay below 10000
	data := w.buf.Bytes()

	out, err := w.client.UploadPart(ctx, &s3.UploadPartInput{
		Bucket:        aws.String(w.bucket),
		Key:           aws.String(w.key),
		UploadId:      w.uploadID,
		PartNumber:    aws.Int32(number),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("multipartWriter - flush - w.client.UploadPart: %w", err)
	}

	w.parts = append(w.parts, types.CompletedPart{
		ETag:       out.ETag,
		PartNumber: aws.Int32(number),
	})
	w.buf.Reset()

	return nil
}

func (w *multipartWriter) Close(ctx context.Context) error {
	if w.buf.Len() > 0 || len(w.parts) == 0 {
		if err := w.flush(ctx); err != nil {
			return fmt.Errorf("multipartWriter - Close - w.flush: %w", err)
		}
	}

	_, err := w.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(w.bucket),
		Key:             aws.String(w.key),
		UploadId:        w.uploadID,
		MultipartUpload: &types.CompletedMultipartUpload{Parts: w.parts},
	})
	if err != nil {
		return fmt.Errorf("multipartWriter - Close - w.client.CompleteMultipartUpload: %w", err)
	}

	return nil
}

func (w *multipartWriter) Abort(ctx context.Context) error {
	w.buf.Reset()

	_, err := w.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(w.bucket),
		Key:      aws.String(w.key),
		UploadId: w.uploadID,
	})
	if err != nil {
		return fmt.Errorf("multipartWriter - Abort - w.client.AbortMultipartUpload: %w", err)
	}

	return nil
}
