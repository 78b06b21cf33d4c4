package kvstore

import (
	"errors"

	"github.com/dgraph-io/badger/v4"

	"github.com/fystack/toncenter-indexer/pkg/common/enum"
	"github.com/fystack/toncenter-indexer/pkg/infra"
)

type BadgerStore struct {
	db    *badger.DB
	ns    namespace
	codec infra.Codec
}

// NewBadgerStore opens (or creates) a Badger database at path. An empty path
// opens an in-memory database.
func NewBadgerStore(path string, prefix string, codec infra.Codec) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	if codec == nil {
		codec = infra.JSON
	}
	return &BadgerStore{db: db, ns: namespace(prefix), codec: codec}, nil
}

func (b *BadgerStore) GetName() string {
	return string(enum.KVStoreTypeBadger)
}

func (b *BadgerStore) Get(key string) ([]byte, error) {
	k, err := b.ns.key(key)
	if err != nil {
		return nil, err
	}

	var val []byte
	err = b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(k))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrKeyNotFound
			}
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	return val, err
}

func (b *BadgerStore) Set(key string, value []byte) error {
	k, err := b.ns.key(key)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(k), value)
	})
}

func (b *BadgerStore) SetAny(key string, value any) error {
	if err := checkKeyAndValue(key, value); err != nil {
		return err
	}
	data, err := b.codec.Marshal(value)
	if err != nil {
		return err
	}
	return b.Set(key, data)
}

func (b *BadgerStore) GetAny(key string, value any) (bool, error) {
	if err := checkKeyAndValue(key, value); err != nil {
		return false, err
	}
	data, err := b.Get(key)
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, b.codec.Unmarshal(data, value)
}

// List returns all pairs under prefix in key order. Keys are returned without
// the store prefix.
func (b *BadgerStore) List(prefix string) ([]*infra.KVPair, error) {
	p, err := b.ns.prefix(prefix)
	if err != nil {
		return nil, err
	}

	result := make([]*infra.KVPair, 0)
	err = b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek([]byte(p)); it.ValidForPrefix([]byte(p)); it.Next() {
			item := it.Item()
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			result = append(result, &infra.KVPair{
				Key:   b.ns.strip(string(item.KeyCopy(nil))),
				Value: v,
			})
		}
		return nil
	})
	return result, err
}

func (b *BadgerStore) Delete(key string) error {
	k, err := b.ns.key(key)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(k))
	})
}

func (b *BadgerStore) Close() error {
	return b.db.Close()
}
