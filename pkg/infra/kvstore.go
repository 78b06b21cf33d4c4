package infra

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fystack/toncenter-indexer/pkg/common/enum"
)

var (
	ErrKeyNotFound = errors.New("key not found")
	ErrKeyEmpty    = errors.New("key is empty")
)

type KVPair struct {
	Key   string
	Value []byte
}

// KVStore is the persistence seam for watcher state. Badger and Consul
// implementations live in pkg/kvstore.
type KVStore interface {
	GetName() string
	Set(k string, v []byte) error
	// Get returns ErrKeyNotFound when k is absent.
	Get(k string) ([]byte, error)
	// SetAny encodes v with the store's codec.
	SetAny(k string, v any) error
	// GetAny decodes into v and reports whether k existed.
	GetAny(k string, v any) (found bool, err error)
	List(prefix string) ([]*KVPair, error)
	Delete(k string) error
	Close() error
}

// Codec encodes/decodes Go values to/from slices of bytes.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

var (
	JSON = JSONCodec{}
	Gob  = GobCodec{}
)

// CodecFor maps a configured codec name to its implementation.
func CodecFor(t enum.CodecType) (Codec, error) {
	switch t {
	case "", enum.CodecJSON:
		return JSON, nil
	case enum.CodecGob:
		return Gob, nil
	}
	return nil, fmt.Errorf("unsupported codec: %s", t)
}

type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

type GobCodec struct{}

func (GobCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (GobCodec) Unmarshal(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
