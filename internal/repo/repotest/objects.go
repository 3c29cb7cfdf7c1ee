package repotest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/RXLU5x/translate-image-text-cloud/internal/repo"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/types/errs"
)

var errWriterDone = errors.New("writer already finished")

// Objects is an in-memory object store that records how each object was written.
type Objects struct {
	mu      sync.Mutex
	objects map[string][]byte

	Puts    int
	Writers int
	Aborts  int
	Deleted []string

	// FailWrite makes every streamed write fail.
	FailWrite error
}

var _ repo.ObjectRepo = (*Objects)(nil)

func NewObjects() *Objects {
	return &Objects{objects: make(map[string][]byte)}
}

func (o *Objects) Put(_ context.Context, key string, data []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.Puts++
	o.objects[key] = append([]byte(nil), data...)

	return nil
}

func (o *Objects) Get(_ context.Context, key string) ([]byte, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	data, ok := o.objects[key]
	if !ok {
		return nil, fmt.Errorf("Objects - Get: %w", errs.ErrRecordNotFound)
	}

	return append([]byte(nil), data...), nil
}

func (o *Objects) Delete(_ context.Context, key string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	delete(o.objects, key)
	o.Deleted = append(o.Deleted, key)

	return nil
}

func (o *Objects) Has(key string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	_, ok := o.objects[key]

	return ok
}

func (o *Objects) Stats() (puts, writers, aborts int) {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.Puts, o.Writers, o.Aborts
}

func (o *Objects) OpenWriter(_ context.Context, key string) (repo.ObjectWriter, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.Writers++

	return &writer{o: o, key: key}, nil
}

type writer struct {
	o    *Objects
	key  string
	buf  []byte
	done bool
}

func (w *writer) Write(_ context.Context, p []byte) error {
	if w.done {
		return errWriterDone
	}

	w.o.mu.Lock()
	failure := w.o.FailWrite
	w.o.mu.Unlock()

	if failure != nil {
		return failure
	}

	w.buf = append(w.buf, p...)

	return nil
}

func (w *writer) Close(_ context.Context) error {
	if w.done {
		return errWriterDone
	}
	w.done = true

	w.o.mu.Lock()
	defer w.o.mu.Unlock()

	w.o.objects[w.key] = w.buf

	return nil
}

func (w *writer) Abort(_ context.Context) error {
	if w.done {
		return errWriterDone
	}
	w.done = true

	w.o.mu.Lock()
	defer w.o.mu.Unlock()

	w.o.Aborts++

	return nil
}
