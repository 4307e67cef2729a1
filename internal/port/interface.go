package port

import (
	"context"
	"passwordCrackerEngine/internal/core/domain"
)

// Oracle answers whether a candidate unlocks the target. Implementations must
// be safe for concurrent use; every worker shares one instance.
type Oracle interface {
	Attempt(candidate domain.Candidate) (bool, error)
}

// TargetOpener opens the object under attack once per run.
type TargetOpener interface {
	Open(ctx context.Context) (Oracle, error)
	Describe() string
}

type Observer interface {
	Notify(event domain.Event)
}

type Repository interface {
	SaveSession(ctx context.Context, session *domain.Session) error
	UpdateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	ListSessions(ctx context.Context, filter SessionFilter) ([]domain.Session, error)
	DeleteSession(ctx context.Context, id string) error
	SaveMetrics(ctx context.Context, sessionID string, metrics *domain.ResourceMetrics) error
	Close() error
}

type HashService interface {
	Identify(hash string) domain.HashType
	Verify(password []byte, hash string, hashType domain.HashType) bool
	Generate(password []byte, hashType domain.HashType) (string, error)
}

type SessionFilter struct {
	Status domain.JobStatus
	Limit  int
	Offset int
}
