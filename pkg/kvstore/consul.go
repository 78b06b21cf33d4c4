package kvstore

// Adapted from github.com/philippgille/gokv/consul with raw byte access,
// prefix listing and folder scoping.

import (
	"fmt"
	"time"

	"github.com/hashicorp/consul/api"

	"github.com/fystack/toncenter-indexer/pkg/common/enum"
	"github.com/fystack/toncenter-indexer/pkg/infra"
)

// ConsulClient implements infra.KVStore on the Consul KV API.
type ConsulClient struct {
	kv    *api.KV
	ns    namespace
	codec infra.Codec
}

// ConsulOptions configures NewConsulClient.
type ConsulOptions struct {
	// Scheme defaults to "http".
	Scheme string
	// Address including port, defaults to "127.0.0.1:8500".
	Address string
	// Folder under which keys are stored. Optional.
	Folder   string
	Codec    infra.Codec
	Token    string
	HttpAuth *api.HttpBasicAuth
}

var DefaultConsulOptions = ConsulOptions{
	Scheme:  "http",
	Address: "127.0.0.1:8500",
	Codec:   infra.JSON,
}

// NewConsulClient connects to Consul and checks that a leader is elected.
func NewConsulClient(options ConsulOptions) (*ConsulClient, error) {
	if options.Scheme == "" {
		options.Scheme = DefaultConsulOptions.Scheme
	}
	if options.Address == "" {
		options.Address = DefaultConsulOptions.Address
	}
	if options.Codec == nil {
		options.Codec = DefaultConsulOptions.Codec
	}

	config := api.DefaultConfig()
	config.Scheme = options.Scheme
	config.Address = options.Address
	config.WaitTime = 10 * time.Second
	if options.Token != "" {
		config.Token = options.Token
	}
	if options.HttpAuth != nil && options.HttpAuth.Username != "" {
		config.HttpAuth = options.HttpAuth
	}

	client, err := api.NewClient(config)
	if err != nil {
		return nil, err
	}
	if _, err := client.Status().Leader(); err != nil {
		return nil, fmt.Errorf("failed to connect to Consul: %w", err)
	}

	return &ConsulClient{
		kv:    client.KV(),
		ns:    namespace(options.Folder),
		codec: options.Codec,
	}, nil
}

func (c *ConsulClient) GetName() string {
	return string(enum.KVStoreTypeConsul)
}

func (c *ConsulClient) Set(k string, v []byte) error {
	key, err := c.ns.key(k)
	if err != nil {
		return err
	}
	_, err = c.kv.Put(&api.KVPair{Key: key, Value: v}, nil)
	return err
}

func (c *ConsulClient) Get(k string) ([]byte, error) {
	key, err := c.ns.key(k)
	if err != nil {
		return nil, err
	}
	pair, _, err := c.kv.Get(key, nil)
	if err != nil {
		return nil, err
	}
	if pair == nil {
		return nil, ErrKeyNotFound
	}
	return pair.Value, nil
}

func (c *ConsulClient) SetAny(k string, v any) error {
	if err := checkKeyAndValue(k, v); err != nil {
		return err
	}
	data, err := c.codec.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(k, data)
}

// GetAny reports (false, nil) when k is absent.
func (c *ConsulClient) GetAny(k string, v any) (bool, error) {
	if err := checkKeyAndValue(k, v); err != nil {
		return false, err
	}
	data, err := c.Get(k)
	if err == ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, c.codec.Unmarshal(data, v)
}

func (c *ConsulClient) List(prefix string) ([]*infra.KVPair, error) {
	p, err := c.ns.prefix(prefix)
	if err != nil {
		return nil, err
	}
	pairs, _, err := c.kv.List(p, nil)
	if err != nil {
		return nil, err
	}

	result := make([]*infra.KVPair, len(pairs))
	for i, pair := range pairs {
		result[i] = &infra.KVPair{Key: c.ns.strip(pair.Key), Value: pair.Value}
	}
	return result, nil
}

// Delete of a missing key is not an error.
func (c *ConsulClient) Delete(k string) error {
	key, err := c.ns.key(k)
	if err != nil {
		return err
	}
	_, err = c.kv.Delete(key, nil)
	return err
}

// Close has no effect; the Consul client holds no resources.
func (c *ConsulClient) Close() error {
	return nil
}
