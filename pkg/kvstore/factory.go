package kvstore

import (
	"fmt"

	"github.com/hashicorp/consul/api"

	"github.com/fystack/toncenter-indexer/pkg/common/config"
	"github.com/fystack/toncenter-indexer/pkg/common/enum"
	"github.com/fystack/toncenter-indexer/pkg/infra"
)

// NewFromConfig constructs an infra.KVStore based on kvstore configuration.
func NewFromConfig(cfg config.KVStoreConfig) (infra.KVStore, error) {
	codec, err := infra.CodecFor(cfg.Codec)
	if err != nil {
		return nil, err
	}

	switch cfg.Type {
	case enum.KVStoreTypeBadger:
		dir := cfg.Badger.Directory
		if cfg.Badger.InMemory {
			dir = ""
		}
		return NewBadgerStore(dir, cfg.Badger.Prefix, codec)
	case enum.KVStoreTypeConsul:
		return NewConsulClient(ConsulOptions{
			Scheme:  cfg.Consul.Scheme,
			Address: cfg.Consul.Address,
			Folder:  cfg.Consul.Folder,
			Codec:   codec,
			Token:   cfg.Consul.Token,
			HttpAuth: &api.HttpBasicAuth{
				Username: cfg.Consul.HttpAuth.Username,
				Password: cfg.Consul.HttpAuth.Password,
			},
		})
	case enum.KVStoreTypeRedis:
		return NewRedisStore(RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
			Codec:    codec,
		})
	default:
		return nil, fmt.Errorf("unsupported kvstore type: %s", cfg.Type)
	}
}
