package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"passwordCrackerEngine/internal/core/domain"
	"passwordCrackerEngine/internal/port"
	"sort"

	"github.com/dgraph-io/badger/v4"
)

const (
	sessionPrefix = "session/"
	metricsPrefix = "metrics/"
)

type BadgerConfig struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps everything in memory. Used by tests.
	InMemory bool

	// SyncWrites fsyncs every commit.
	SyncWrites bool

	// Logger receives badger's own log lines. Nil silences them.
	Logger *slog.Logger
}

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// badgerRepository stores sessions as JSON under session/<id> and metric
// samples under metrics/<id>/<unix nanos>.
type badgerRepository struct {
	db *badger.DB
}

func NewBadgerRepository(cfg BadgerConfig) (port.Repository, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &badgerRepository{db: db}, nil
}

func (r *badgerRepository) SaveSession(ctx context.Context, session *domain.Session) error {
	return r.update(ctx, func(txn *badger.Txn) error {
		return putJSON(txn, sessionKey(session.ID), session)
	})
}

func (r *badgerRepository) UpdateSession(ctx context.Context, session *domain.Session) error {
	return r.update(ctx, func(txn *badger.Txn) error {
		stored, err := getSession(txn, session.ID)
		if err != nil {
			return err
		}
		// Identity fields are fixed at creation.
		updated := *session
		updated.TargetPath = stored.TargetPath
		updated.Spec = stored.Spec
		updated.CreatedAt = stored.CreatedAt
		return putJSON(txn, sessionKey(session.ID), &updated)
	})
}

func (r *badgerRepository) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	var session *domain.Session
	err := r.view(ctx, func(txn *badger.Txn) error {
		var err error
		session, err = getSession(txn, id)
		return err
	})
	return session, err
}

func (r *badgerRepository) ListSessions(ctx context.Context, filter port.SessionFilter) ([]domain.Session, error) {
	var sessions []domain.Session
	err := r.view(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(sessionPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var session domain.Session
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &session)
			}); err != nil {
				return err
			}
			if filter.Status != "" && session.Status != filter.Status {
				continue
			}
			sessions = append(sessions, session)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		if sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(sessions) {
			return nil, nil
		}
		sessions = sessions[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(sessions) {
		sessions = sessions[:filter.Limit]
	}
	return sessions, nil
}

func (r *badgerRepository) DeleteSession(ctx context.Context, id string) error {
	return r.update(ctx, func(txn *badger.Txn) error {
		if _, err := getSession(txn, id); err != nil {
			return err
		}
		if err := txn.Delete(sessionKey(id)); err != nil {
			return err
		}

		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(metricsPrefix + id + "/")
		var keys [][]byte
		it := txn.NewIterator(opts)
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *badgerRepository) SaveMetrics(ctx context.Context, sessionID string, metrics *domain.ResourceMetrics) error {
	key := []byte(fmt.Sprintf("%s%s/%020d", metricsPrefix, sessionID, metrics.LastUpdated.UnixNano()))
	return r.update(ctx, func(txn *badger.Txn) error {
		return putJSON(txn, key, metrics)
	})
}

func (r *badgerRepository) Close() error {
	return r.db.Close()
}

func (r *badgerRepository) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}
	return r.db.Update(fn)
}

func (r *badgerRepository) view(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}
	return r.db.View(fn)
}

func sessionKey(id string) []byte {
	return []byte(sessionPrefix + id)
}

func getSession(txn *badger.Txn, id string) (*domain.Session, error) {
	item, err := txn.Get(sessionKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	var session domain.Session
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &session)
	}); err != nil {
		return nil, err
	}
	return &session, nil
}

func putJSON(txn *badger.Txn, key []byte, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(key, data)
}
