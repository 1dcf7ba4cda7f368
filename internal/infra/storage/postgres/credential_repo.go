package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vietddude/relay/internal/infra/credential"
	"github.com/vietddude/relay/internal/infra/rpc/provider"
	"github.com/vietddude/relay/internal/infra/rpc/retry"
)

// lookupPolicy keeps credential lookups short; they sit in front of every authenticated call.
var lookupPolicy = retry.Policy{
	MaxAttempts: 3,
	BaseDelay:   200 * time.Millisecond,
	Multiplier:  2.0,
	MaxDelay:    2 * time.Second,
}

const (
	selectTokenQuery = `SELECT token FROM credentials
		WHERE subject = $1 AND (expires_at IS NULL OR expires_at > now())`

	upsertTokenQuery = `INSERT INTO credentials (subject, token, expires_at, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (subject) DO UPDATE
		SET token = EXCLUDED.token, expires_at = EXCLUDED.expires_at, updated_at = now()`

	deleteTokenQuery = `DELETE FROM credentials WHERE subject = $1`
)

// CredentialRepo stores bearer tokens per subject.
type CredentialRepo struct {
	db *DB
}

// NewCredentialRepo creates a new PostgreSQL credential repository.
func NewCredentialRepo(db *DB) *CredentialRepo {
	return &CredentialRepo{db: db}
}

// Get returns the unexpired token for subject, or credential.ErrNoCredential.
func (r *CredentialRepo) Get(ctx context.Context, subject string) (string, error) {
	var token string
	err := r.db.GetContext(ctx, &token, selectTokenQuery, subject)
	if errors.Is(err, sql.ErrNoRows) {
		return "", credential.ErrNoCredential
	}
	if err != nil {
		return "", fmt.Errorf("failed to get credential: %w", err)
	}
	return token, nil
}

// Save stores token for subject. A zero expiresAt never expires.
func (r *CredentialRepo) Save(ctx context.Context, subject, token string, expiresAt time.Time) error {
	var exp sql.NullTime
	if !expiresAt.IsZero() {
		exp = sql.NullTime{Time: expiresAt, Valid: true}
	}
	if _, err := r.db.ExecContext(ctx, upsertTokenQuery, subject, token, exp); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

// Delete removes subject's token.
func (r *CredentialRepo) Delete(ctx context.Context, subject string) error {
	if _, err := r.db.ExecContext(ctx, deleteTokenQuery, subject); err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}

// lookupFunc is the signature of CredentialRepo.Get.
type lookupFunc func(ctx context.Context, subject string) (string, error)

// CredentialStore implements credential.Store for one subject, running the
// lookup through an executor so transient database failures are retried.
type CredentialStore struct {
	lookup   lookupFunc
	subject  string
	executor *retry.Executor
}

// NewCredentialStore creates a store reading subject's token from repo.
func NewCredentialStore(repo *CredentialRepo, subject string, opts ...retry.Option) *CredentialStore {
	return newCredentialStore(repo.Get, subject, opts...)
}

func newCredentialStore(lookup lookupFunc, subject string, opts ...retry.Option) *CredentialStore {
	s := &CredentialStore{lookup: lookup, subject: subject}
	s.executor = retry.NewExecutor(provider.FuncTransport(s.invoke), opts...)
	return s
}

func (s *CredentialStore) invoke(ctx context.Context, spec provider.RequestSpec, _ string) (provider.Payload, error) {
	token, err := s.lookup(ctx, s.subject)
	if err != nil {
		return nil, err
	}
	return provider.Payload(token), nil
}

// Token returns the subject's token.
func (s *CredentialStore) Token(ctx context.Context) (string, error) {
	spec := provider.RequestSpec{
		Target:     "credentials/" + s.subject,
		Method:     "SELECT",
		Timeout:    5 * time.Second,
		Idempotent: true,
	}
	payload, err := s.executor.Execute(ctx, spec, lookupPolicy, Classifier)
	if err != nil {
		if errors.Is(err, credential.ErrNoCredential) {
			return "", credential.ErrNoCredential
		}
		return "", err
	}
	return payload.String(), nil
}
