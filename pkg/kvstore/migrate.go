package kvstore

import (
	"bytes"
	"fmt"

	"github.com/fystack/toncenter-indexer/pkg/infra"
)

type MigrateOptions struct {
	Prefixes []string
	// Verify reads every key back from the destination after writing it.
	Verify bool
	DryRun bool
	// Progress, when set, is called after every copied key.
	Progress func(done, total int)
}

type MigrateResult struct {
	Keys   []string
	Copied int
}

// Migrate copies every pair under opts.Prefixes from src to dst. Values are
// copied as stored, so both stores must use the same codec.
func Migrate(src, dst infra.KVStore, opts MigrateOptions) (MigrateResult, error) {
	var res MigrateResult
	if len(opts.Prefixes) == 0 {
		return res, fmt.Errorf("at least one prefix is required")
	}

	var pairs []*infra.KVPair
	for _, prefix := range opts.Prefixes {
		found, err := src.List(prefix)
		if err != nil {
			return res, fmt.Errorf("listing keys with prefix %q: %w", prefix, err)
		}
		pairs = append(pairs, found...)
	}
	for _, kv := range pairs {
		res.Keys = append(res.Keys, kv.Key)
	}
	if opts.DryRun {
		return res, nil
	}

	for i, kv := range pairs {
		if err := dst.Set(kv.Key, kv.Value); err != nil {
			return res, fmt.Errorf("setting key %q: %w", kv.Key, err)
		}
		res.Copied++

		if opts.Verify {
			got, err := dst.Get(kv.Key)
			if err != nil {
				return res, fmt.Errorf("verifying key %q: %w", kv.Key, err)
			}
			if !bytes.Equal(got, kv.Value) {
				return res, fmt.Errorf("verification failed for key %q: expected %q, got %q", kv.Key, kv.Value, got)
			}
		}
		if opts.Progress != nil {
			opts.Progress(i+1, len(pairs))
		}
	}
	return res, nil
}
