// Package internaldb manages account identities and system-level KV using
// BadgerHold.
package internaldb

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/xuanruli/apex-trade/internal/common"
	"github.com/xuanruli/apex-trade/internal/models"
)

const kvPrefix = "kv" + "\x00"

// Store implements interfaces.InternalStore using BadgerHold.
type Store struct {
	db     *badgerhold.Store
	logger *common.Logger
}

// NewStore opens the internal store at the given directory path.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create internal path %s: %w", path, err)
	}
	opts := badgerhold.DefaultOptions
	opts.Dir = path
	opts.ValueDir = path
	opts.Logger = nil
	db, err := badgerhold.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open internal store at %s: %w", path, err)
	}
	logger.Debug().Str("path", path).Msg("Internal store opened")
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) GetUser(_ context.Context, accountID string) (*models.InternalUser, error) {
	var user models.InternalUser
	if err := s.db.Get(accountID, &user); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("%w: account %s", models.ErrNotFound, accountID)
		}
		return nil, fmt.Errorf("failed to get account %s: %w", accountID, err)
	}
	return &user, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*models.InternalUser, error) {
	var users []models.InternalUser
	if err := s.db.Find(&users, badgerhold.Where("Username").Eq(username)); err != nil {
		return nil, fmt.Errorf("failed to find account by username: %w", err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("%w: username %s", models.ErrNotFound, username)
	}
	return &users[0], nil
}

func (s *Store) SaveUser(_ context.Context, user *models.InternalUser) error {
	now := time.Now()
	user.ModifiedAt = now
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if err := s.db.Upsert(user.AccountID, user); err != nil {
		return fmt.Errorf("failed to save account %s: %w", user.AccountID, err)
	}
	s.logger.Debug().Str("account", user.AccountID).Msg("Account saved")
	return nil
}

func (s *Store) DeleteUser(_ context.Context, accountID string) error {
	if err := s.db.Delete(accountID, models.InternalUser{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete account %s: %w", accountID, err)
	}
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]*models.InternalUser, error) {
	var users []models.InternalUser
	if err := s.db.Find(&users, nil); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].Username < users[j].Username
	})
	result := make([]*models.InternalUser, len(users))
	for i := range users {
		result[i] = &users[i]
	}
	return result, nil
}

func (s *Store) GetSystemKV(_ context.Context, key string) (string, error) {
	var kv models.SystemKV
	if err := s.db.Get(kvPrefix+key, &kv); err != nil {
		if err == badgerhold.ErrNotFound {
			return "", fmt.Errorf("%w: system key %s", models.ErrNotFound, key)
		}
		return "", fmt.Errorf("failed to get system key %s: %w", key, err)
	}
	return kv.Value, nil
}

func (s *Store) SetSystemKV(_ context.Context, key, value string) error {
	kv := models.SystemKV{Key: key, Value: value, DateTime: time.Now()}
	if err := s.db.Upsert(kvPrefix+key, &kv); err != nil {
		return fmt.Errorf("failed to set system key %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
