package kvstore

import (
	"errors"
	"strings"

	"github.com/fystack/toncenter-indexer/pkg/infra"
)

var (
	ErrKeyNotFound = infra.ErrKeyNotFound
	ErrKeyEmpty    = infra.ErrKeyEmpty
	ErrPrefixEmpty = errors.New("prefix is empty")
	ErrNilValue    = errors.New("the passed value is nil, which is not allowed")
)

// namespace scopes keys under an optional folder, the way Consul folders do.
type namespace string

func (n namespace) key(k string) (string, error) {
	if k == "" {
		return "", ErrKeyEmpty
	}
	if n == "" {
		return k, nil
	}
	return string(n) + "/" + k, nil
}

func (n namespace) prefix(p string) (string, error) {
	if p == "" {
		return "", ErrPrefixEmpty
	}
	if n == "" {
		return p, nil
	}
	return string(n) + "/" + p, nil
}

// strip turns a stored key back into the caller's key.
func (n namespace) strip(k string) string {
	if n == "" {
		return k
	}
	return strings.TrimPrefix(k, string(n)+"/")
}

func checkKeyAndValue(k string, v any) error {
	if k == "" {
		return ErrKeyEmpty
	}
	if v == nil {
		return ErrNilValue
	}
	return nil
}
