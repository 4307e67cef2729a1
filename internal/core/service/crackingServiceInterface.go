package service

import (
	"context"
	"passwordCrackerEngine/internal/core/domain"
	"passwordCrackerEngine/internal/port"
)

type CrackingServiceInterface interface {
	StartSession(ctx context.Context, req StartRequest) (*domain.Session, domain.Outcome, error)
	ResumeSession(ctx context.Context, id string, workers int) (*domain.Session, domain.Outcome, error)
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	ListSessions(ctx context.Context, filter port.SessionFilter) ([]domain.Session, error)
	DeleteSession(ctx context.Context, id string) error
	StopSession(id string) error
	Progress(id string) (domain.Progress, error)
	ActiveSessions() []string
}

var _ CrackingServiceInterface = (*CrackingService)(nil)
