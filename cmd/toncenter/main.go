package main

import (
	"github.com/alecthomas/kong"
)

// --- CLI definitions --- //

type CLI struct {
	Config   string `help:"Path to config file. Built-in defaults are used when it does not exist." default:"configs/config.yaml" name:"config" type:"path"`
	Endpoint string `help:"TonCenter endpoint, overrides the config." name:"endpoint"`
	APIKey   string `help:"TonCenter API key, overrides the config." name:"api-key" env:"TONCENTER_API_KEY"`
	Debug    bool   `help:"Enable debug logs." name:"debug"`

	Transactions TransactionsCmd `cmd:"" help:"Fetch transactions of an account."`
	Masterchain  MasterchainCmd  `cmd:"" help:"Show the first and last masterchain blocks."`
	Shards       ShardsCmd       `cmd:"" help:"Show the shard blocks of a masterchain block."`
	Account      AccountCmd      `cmd:"" help:"Show account and wallet state."`
	Watch        WatchCmd        `cmd:"" help:"Poll tracked accounts and publish new transactions."`
	Track        TrackCmd        `cmd:"" help:"Manage accounts tracked at runtime."`
	NATSPrinter  NATSPrinterCmd  `cmd:"" name:"nats-printer" help:"Print published transaction events."`
	KVMigrate    KVMigrateCmd    `cmd:"" name:"kv-migrate" help:"Copy watcher state between KV stores."`
}

type TransactionsCmd struct {
	Address string `help:"Account address, user-friendly or raw." required:"" name:"address"`
	Limit   int    `help:"Maximum number of transactions." default:"15" name:"limit"`
	Offset  int    `help:"Number of transactions to skip." name:"offset"`
	Sort    string `help:"Sort order by lt." default:"desc" enum:"asc,desc" name:"sort"`
	StartLT uint64 `help:"Lower lt bound (inclusive)." name:"start-lt"`
	EndLT   uint64 `help:"Upper lt bound (inclusive)." name:"end-lt"`
	JSON    bool   `help:"Print transactions as JSON events." name:"json"`
}

type MasterchainCmd struct{}

type ShardsCmd struct {
	Seqno int32 `arg:"" optional:"" help:"Masterchain seqno. Defaults to the last one."`
	State bool  `help:"Show the shard state as of the block instead of the blocks it commits." name:"state"`
}

type AccountCmd struct {
	Address []string `help:"Account addresses." required:"" name:"address"`
}

type WatchCmd struct {
	FromLatest bool `help:"Start accounts without a cursor at their newest transaction." name:"latest"`
	Once       bool `help:"Run a single poll cycle and exit." name:"once"`
}

type TrackCmd struct {
	Add    TrackAddCmd    `cmd:"" help:"Start tracking an address."`
	Remove TrackRemoveCmd `cmd:"" help:"Stop tracking an address and drop its cursor."`
	List   TrackListCmd   `cmd:"" help:"List tracked addresses and their cursors."`
}

type TrackAddCmd struct {
	Address string `arg:"" help:"Account address."`
}

type TrackRemoveCmd struct {
	Address string `arg:"" help:"Account address."`
}

type TrackListCmd struct{}

type NATSPrinterCmd struct{}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("toncenter"),
		kong.Description("TonCenter v3 transaction client and account watcher."),
		kong.UsageOnError(),
	)
	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
