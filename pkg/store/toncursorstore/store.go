package toncursorstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fystack/toncenter-indexer/pkg/common/constant"
	"github.com/fystack/toncenter-indexer/pkg/infra"
	"github.com/fystack/toncenter-indexer/pkg/ton"
)

// AccountCursor tracks the polling position for a single TON account.
type AccountCursor struct {
	Address   ton.Address   `json:"address"`
	LastLT    uint64        `json:"last_lt"`   // lt of the last processed tx
	LastHash  ton.HashBytes `json:"last_hash"` // hash of the last processed tx
	UpdatedAt time.Time     `json:"updated_at"`
}

// Covers reports whether the transaction at lt was already processed.
func (c *AccountCursor) Covers(lt uint64) bool {
	return c != nil && lt <= c.LastLT
}

type Store interface {
	// Get returns nil, nil when no cursor is stored.
	Get(ctx context.Context, addr ton.Address) (*AccountCursor, error)
	Save(ctx context.Context, cursor *AccountCursor) error
	Delete(ctx context.Context, addr ton.Address) error
	List(ctx context.Context) ([]ton.Address, error)
}

type kvStore struct {
	kv  infra.KVStore
	now func() time.Time
}

func New(kv infra.KVStore) Store {
	return &kvStore{kv: kv, now: time.Now}
}

func cursorKey(addr ton.Address) string {
	return constant.TonCursorKeyPrefix + addr.Raw()
}

func (s *kvStore) Get(_ context.Context, addr ton.Address) (*AccountCursor, error) {
	var cursor AccountCursor
	found, err := s.kv.GetAny(cursorKey(addr), &cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to get cursor for %s: %w", addr.Raw(), err)
	}
	if !found {
		return nil, nil
	}
	return &cursor, nil
}

func (s *kvStore) Save(_ context.Context, cursor *AccountCursor) error {
	if cursor == nil || cursor.Address.IsZero() {
		return fmt.Errorf("cursor without address")
	}
	cursor.UpdatedAt = s.now().UTC()
	if err := s.kv.SetAny(cursorKey(cursor.Address), cursor); err != nil {
		return fmt.Errorf("failed to save cursor for %s: %w", cursor.Address.Raw(), err)
	}
	return nil
}

func (s *kvStore) Delete(_ context.Context, addr ton.Address) error {
	if err := s.kv.Delete(cursorKey(addr)); err != nil {
		return fmt.Errorf("failed to delete cursor for %s: %w", addr.Raw(), err)
	}
	return nil
}

// List returns the accounts that have a stored cursor. Keys that do not
// parse as addresses are skipped.
func (s *kvStore) List(_ context.Context) ([]ton.Address, error) {
	pairs, err := s.kv.List(constant.TonCursorKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list cursors: %w", err)
	}

	addrs := make([]ton.Address, 0, len(pairs))
	for _, pair := range pairs {
		addr, err := ton.ParseAddress(strings.TrimPrefix(pair.Key, constant.TonCursorKeyPrefix))
		if err != nil {
			continue
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}
