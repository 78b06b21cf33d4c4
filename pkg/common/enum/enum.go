package enum

type Environment string
type KVStoreType string
type CodecType string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

const (
	KVStoreTypeBadger KVStoreType = "badger"
	KVStoreTypeConsul KVStoreType = "consul"
	KVStoreTypeRedis  KVStoreType = "redis"
)

const (
	CodecJSON CodecType = "json"
	CodecGob  CodecType = "gob"
)
