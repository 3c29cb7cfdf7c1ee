// Package repotest holds in-memory repositories for use case and controller tests.
package repotest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/RXLU5x/translate-image-text-cloud/internal/entity"
	"github.com/RXLU5x/translate-image-text-cloud/internal/repo"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/types/errs"
)

type txKey struct{}

// Store keeps users, sessions and submissions in maps. Transactions are
// serialized and rolled back by restoring a snapshot.
type Store struct {
	txMu sync.Mutex

	mu          sync.Mutex
	users       map[string]entity.User
	sessions    map[string]entity.Session
	submissions map[string]entity.Submission
	nextID      int

	Users       *Users
	Sessions    *Sessions
	Submissions *Submissions
}

var _ repo.Transactor = (*Store)(nil)

func New() *Store {
	s := &Store{
		users:       make(map[string]entity.User),
		sessions:    make(map[string]entity.Session),
		submissions: make(map[string]entity.Submission),
	}
	s.Users = &Users{s}
	s.Sessions = &Sessions{s}
	s.Submissions = &Submissions{s}

	return s
}

func (s *Store) AddUser(username string, level entity.ServiceLevel) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[username] = entity.User{Username: username, ServiceLevel: level}
}

// WithinTransaction refuses a done context the way pgx refuses to begin one.
func (s *Store) WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("Store - WithinTransaction: %w", err)
	}

	if ctx.Value(txKey{}) != nil {
		return f(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	sessions := cloneMap(s.sessions)
	submissions := cloneMap(s.submissions)
	s.mu.Unlock()

	err := f(context.WithValue(ctx, txKey{}, true))
	if err != nil {
		s.mu.Lock()
		s.sessions = sessions
		s.submissions = submissions
		s.mu.Unlock()
	}

	return err
}

// SessionCount and SubmissionCount report how many records are stored.
func (s *Store) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}

func (s *Store) SubmissionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.submissions)
}

func cloneMap[V any](m map[string]V) map[string]V {
	c := make(map[string]V, len(m))
	for k, v := range m {
		c[k] = v
	}

	return c
}

type Users struct{ s *Store }

func (u *Users) GetByUsername(_ context.Context, username string) (*entity.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	user, ok := u.s.users[username]
	if !ok {
		return nil, fmt.Errorf("Users - GetByUsername: %w", errs.ErrRecordNotFound)
	}

	return &user, nil
}

type Sessions struct{ s *Store }

func (r *Sessions) Create(_ context.Context, session *entity.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.sessions[session.ID] = *session

	return nil
}

func (r *Sessions) GetByID(_ context.Context, id string) (*entity.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	session, ok := r.s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("Sessions - GetByID: %w", errs.ErrRecordNotFound)
	}

	return &session, nil
}

func (r *Sessions) GetServiceLevel(_ context.Context, id string) (entity.ServiceLevel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	session, ok := r.s.sessions[id]
	if !ok {
		return "", fmt.Errorf("Sessions - GetServiceLevel: %w", errs.ErrRecordNotFound)
	}

	user, ok := r.s.users[session.Username]
	if !ok {
		return "", fmt.Errorf("Sessions - GetServiceLevel: %w", errs.ErrRecordNotFound)
	}

	return user.ServiceLevel, nil
}

func (r *Sessions) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.sessions[id]; !ok {
		return fmt.Errorf("Sessions - Delete: %w", errs.ErrRecordNotFound)
	}

	delete(r.s.sessions, id)

	return nil
}

func (r *Sessions) DeleteBatch(_ context.Context, limit int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return deleteSome(r.s.sessions, limit), nil
}

type Submissions struct{ s *Store }

func (r *Submissions) Create(_ context.Context, sessionID string) (*entity.Submission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextID++
	now := time.Now()
	submission := entity.Submission{
		ID:        fmt.Sprintf("sub-%d", r.s.nextID),
		SessionID: sessionID,
		State:     entity.InProgress,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.s.submissions[submission.ID] = submission

	return &submission, nil
}

func (r *Submissions) GetByID(_ context.Context, id string) (*entity.Submission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	submission, ok := r.s.submissions[id]
	if !ok {
		return nil, fmt.Errorf("Submissions - GetByID: %w", errs.ErrRecordNotFound)
	}

	return &submission, nil
}

func (r *Submissions) GetForUpdate(ctx context.Context, id string) (*entity.Submission, error) {
	return r.GetByID(ctx, id)
}

func (r *Submissions) Update(_ context.Context, submission *entity.Submission) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.submissions[submission.ID]; !ok {
		return fmt.Errorf("Submissions - Update: %w", errs.ErrRecordNotFound)
	}

	submission.UpdatedAt = time.Now()
	r.s.submissions[submission.ID] = *submission

	return nil
}

func (r *Submissions) DeleteBatch(_ context.Context, limit int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return deleteSome(r.s.submissions, limit), nil
}

func deleteSome[V any](m map[string]V, limit int) int {
	n := 0
	for k := range m {
		if n == limit {
			break
		}
		delete(m, k)
		n++
	}

	return n
}
