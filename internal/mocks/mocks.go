// Package mocks holds testify mocks for the ports.
package mocks

import (
	"context"
	"passwordCrackerEngine/internal/core/domain"
	"passwordCrackerEngine/internal/port"

	"github.com/stretchr/testify/mock"
)

type MockOracle struct {
	mock.Mock
}

func NewMockOracle() *MockOracle {
	return &MockOracle{}
}

func (m *MockOracle) Attempt(candidate domain.Candidate) (bool, error) {
	args := m.Called(candidate)
	return args.Bool(0), args.Error(1)
}

// Password makes the oracle accept exactly password and reject the rest.
func (m *MockOracle) Password(password string) *MockOracle {
	m.On("Attempt", Candidate(password)).Return(true, nil)
	m.On("Attempt", mock.Anything).Return(false, nil)
	return m
}

// Candidate matches a domain.Candidate argument by its string value.
func Candidate(s string) interface{} {
	return mock.MatchedBy(func(c domain.Candidate) bool {
		return string(c) == s
	})
}

type MockTarget struct {
	mock.Mock
}

func NewMockTarget() *MockTarget {
	return &MockTarget{}
}

func (m *MockTarget) Open(ctx context.Context) (port.Oracle, error) {
	args := m.Called(ctx)
	oracle, _ := args.Get(0).(port.Oracle)
	return oracle, args.Error(1)
}

func (m *MockTarget) Describe() string {
	return "mock target"
}

type MockRepository struct {
	mock.Mock
}

func NewMockRepository() *MockRepository {
	return &MockRepository{}
}

func (m *MockRepository) SaveSession(ctx context.Context, session *domain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockRepository) UpdateSession(ctx context.Context, session *domain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockRepository) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	args := m.Called(ctx, id)
	session, _ := args.Get(0).(*domain.Session)
	return session, args.Error(1)
}

func (m *MockRepository) ListSessions(ctx context.Context, filter port.SessionFilter) ([]domain.Session, error) {
	args := m.Called(ctx, filter)
	sessions, _ := args.Get(0).([]domain.Session)
	return sessions, args.Error(1)
}

func (m *MockRepository) DeleteSession(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) SaveMetrics(ctx context.Context, sessionID string, metrics *domain.ResourceMetrics) error {
	args := m.Called(ctx, sessionID, metrics)
	return args.Error(0)
}

func (m *MockRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockHashService struct {
	mock.Mock
}

func NewMockHashService() *MockHashService {
	return &MockHashService{}
}

func (m *MockHashService) Identify(hash string) domain.HashType {
	args := m.Called(hash)
	return args.Get(0).(domain.HashType)
}

func (m *MockHashService) Verify(password []byte, hash string, hashType domain.HashType) bool {
	args := m.Called(password, hash, hashType)
	return args.Bool(0)
}

func (m *MockHashService) Generate(password []byte, hashType domain.HashType) (string, error) {
	args := m.Called(password, hashType)
	return args.String(0), args.Error(1)
}
