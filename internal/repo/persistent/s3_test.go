package persistent

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/RXLU5x/translate-image-text-cloud/pkg/s3client"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/types/errs"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"
)

// fakeS3 understands the handful of path-style S3 calls ObjectRepo makes.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	uploads map[string]map[int][]byte
	aborted []string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{
		objects: make(map[string][]byte),
		uploads: make(map[string]map[int][]byte),
	}
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// /<bucket>/<key>
	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)
	if len(parts) != 2 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	key := parts[1]
	q := r.URL.Query()
	body, _ := io.ReadAll(r.Body)

	switch {
	case r.Method == http.MethodPost && q.Has("uploads"):
		id := fmt.Sprintf("upload-%d", len(f.uploads)+1)
		f.uploads[id] = make(map[int][]byte)
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><InitiateMultipartUploadResult><Bucket>%s</Bucket><Key>%s</Key><UploadId>%s</UploadId></InitiateMultipartUploadResult>`, parts[0], key, id)
	case r.Method == http.MethodPut && q.Has("partNumber"):
		n, _ := strconv.Atoi(q.Get("partNumber"))
		f.uploads[q.Get("uploadId")][n] = body
		w.Header().Set("ETag", fmt.Sprintf(`"etag-%d"`, n))
	case r.Method == http.MethodPost && q.Has("uploadId"):
		upload := f.uploads[q.Get("uploadId")]
		numbers := make([]int, 0, len(upload))
		for n := range upload {
			numbers = append(numbers, n)
		}
		sort.Ints(numbers)
		var obj []byte
		for _, n := range numbers {
			obj = append(obj, upload[n]...)
		}
		f.objects[key] = obj
		delete(f.uploads, q.Get("uploadId"))
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><CompleteMultipartUploadResult><Bucket>%s</Bucket><Key>%s</Key><ETag>"done"</ETag></CompleteMultipartUploadResult>`, parts[0], key)
	case r.Method == http.MethodDelete && q.Has("uploadId"):
		delete(f.uploads, q.Get("uploadId"))
		f.aborted = append(f.aborted, key)
		w.WriteHeader(http.StatusNoContent)
	case r.Method == http.MethodPut:
		f.objects[key] = body
	case r.Method == http.MethodGet:
		obj, ok := f.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
			return
		}
		_, _ = w.Write(obj)
	case r.Method == http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestObjectRepo(t *testing.T) (*ObjectRepo, *fakeS3) {
	t.Helper()

	fake := newFakeS3()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client := s3.New(s3.Options{
		Region:       "us-east-1",
		BaseEndpoint: aws.String(srv.URL),
		UsePathStyle: true,
		Credentials:  credentials.NewStaticCredentialsProvider("key", "secret", ""),
	})

	return NewObjectRepo(s3client.Wrap(client), "images"), fake
}

func TestObjectRepoPutGetDelete(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestObjectRepo(t)

	require.NoError(t, r.Put(ctx, "abc.png", []byte("png bytes")))

	got, err := r.Get(ctx, "abc.png")
	require.NoError(t, err)
	require.Equal(t, []byte("png bytes"), got)

	require.NoError(t, r.Delete(ctx, "abc.png"))

	_, err = r.Get(ctx, "abc.png")
	require.ErrorIs(t, err, errs.ErrRecordNotFound)
}

func TestObjectRepoWriterSplitsParts(t *testing.T) {
	ctx := context.Background()
	r, fake := newTestObjectRepo(t)

	w, err := r.OpenWriter(ctx, "big.jpg")
	require.NoError(t, err)

	want := make([]byte, 0, 12_000_000)
	for i := 0; i < 12; i++ {
		chunk := bytes.Repeat([]byte{byte('a' + i)}, 1_000_000)
		want = append(want, chunk...)
		require.NoError(t, w.Write(ctx, chunk))
	}
	require.NoError(t, w.Close(ctx))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.True(t, bytes.Equal(want, fake.objects["big.jpg"]))
	require.Empty(t, fake.uploads)
}

func TestObjectRepoWriterAbort(t *testing.T) {
	ctx := context.Background()
	r, fake := newTestObjectRepo(t)

	w, err := r.OpenWriter(ctx, "gone.jpg")
	require.NoError(t, err)
	require.NoError(t, w.Write(ctx, []byte("partial")))
	require.NoError(t, w.Abort(ctx))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Equal(t, []string{"gone.jpg"}, fake.aborted)
	require.NotContains(t, fake.objects, "gone.jpg")
}
