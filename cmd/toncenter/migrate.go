package main

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/fystack/toncenter-indexer/pkg/common/config"
	"github.com/fystack/toncenter-indexer/pkg/common/constant"
	"github.com/fystack/toncenter-indexer/pkg/common/logger"
	"github.com/fystack/toncenter-indexer/pkg/kvstore"
)

type KVMigrateCmd struct {
	Plan   string `help:"YAML file with source, destination and prefixes." required:"" name:"plan" type:"existingfile"`
	DryRun bool   `help:"List the keys without writing." name:"dry-run"`
}

type migrationPlan struct {
	Source      config.KVStoreConfig `yaml:"source"`
	Destination config.KVStoreConfig `yaml:"destination"`
	Prefixes    []string             `yaml:"prefixes"`
	Verify      bool                 `yaml:"verify"`
}

func loadPlan(path string) (*migrationPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan %q: %w", path, err)
	}
	var plan migrationPlan
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &plan); err != nil {
		return nil, fmt.Errorf("parsing plan: %w", err)
	}
	if len(plan.Prefixes) == 0 {
		plan.Prefixes = []string{constant.TonCursorKeyPrefix, constant.TonTrackedKey}
	}
	if plan.Source.Codec != plan.Destination.Codec {
		return nil, fmt.Errorf("source codec %q differs from destination codec %q", plan.Source.Codec, plan.Destination.Codec)
	}
	return &plan, nil
}

func (c *KVMigrateCmd) Run(cli *CLI) error {
	if _, err := cli.setup(); err != nil {
		return err
	}
	plan, err := loadPlan(c.Plan)
	if err != nil {
		return err
	}

	src, err := kvstore.NewFromConfig(plan.Source)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer src.Close()
	dst, err := kvstore.NewFromConfig(plan.Destination)
	if err != nil {
		return fmt.Errorf("open destination: %w", err)
	}
	defer dst.Close()

	logger.Info("Migrating keys", "from", src.GetName(), "to", dst.GetName(), "prefixes", plan.Prefixes, "dry_run", c.DryRun)
	start := time.Now()
	res, err := kvstore.Migrate(src, dst, kvstore.MigrateOptions{
		Prefixes: plan.Prefixes,
		Verify:   plan.Verify,
		DryRun:   c.DryRun,
		Progress: func(done, total int) {
			if done%100 == 0 || done == total {
				logger.Info("Migration progress", "done", done, "total", total)
			}
		},
	})
	if err != nil {
		return err
	}

	if c.DryRun {
		for _, k := range res.Keys {
			fmt.Println(k)
		}
	}
	logger.Info("Migration finished", "keys", len(res.Keys), "copied", res.Copied, "duration", time.Since(start).Round(time.Millisecond))
	return nil
}
