// Command nvec fills a traced buffer with 1..count, verifies the
// doubling growth and that every block was released, and optionally
// ships the allocation trace to a pebble store and Kafka.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/pflag"

	"memkit/service"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "nvec: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var (
		configPath string
		verbose    bool
		cfg        service.Config
	)

	flagSet := pflag.NewFlagSet("nvec", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to a YAML config file")
	flagSet.IntVar(&cfg.Count, "count", 0, "number of values to push (default 1000)")
	flagSet.IntVar(&cfg.SharedHandles, "shared-handles", 0, "Rc clones sharing the counter (default 8)")
	flagSet.StringVar(&cfg.Allocator, "allocator", "", `block allocator: "go" or "pool"`)
	flagSet.StringVar(&cfg.StoreDir, "store-dir", "", "persist the allocation trace in this pebble directory")
	flagSet.StringSliceVar(&cfg.Kafka.Brokers, "brokers", nil, "Kafka brokers to relay the stored trace to")
	flagSet.StringVar(&cfg.Kafka.Topic, "topic", "", "Kafka topic (default memkit.trace)")
	flagSet.StringVar(&cfg.Kafka.Client, "kafka-client", "", `Kafka client: "kafka-go" or "sarama"`)
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	if configPath != "" {
		fileCfg, err := service.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = merge(fileCfg, cfg, flagSet)
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	svc, err := service.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rep, err := svc.Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("run complete",
		"len", rep.Len,
		"cap", rep.Cap,
		"growths", rep.Growths,
		"allocs", rep.Allocs,
		"frees", rep.Frees,
		"events", rep.Events,
		"stored", rep.Stored,
		"relayed", rep.Relayed,
		"counter", rep.Counter,
	)
	return nil
}

// merge overlays explicitly set flags on the file config.
func merge(file, flags service.Config, set *pflag.FlagSet) service.Config {
	out := file
	if set.Changed("count") {
		out.Count = flags.Count
	}
	if set.Changed("shared-handles") {
		out.SharedHandles = flags.SharedHandles
	}
	if set.Changed("allocator") {
		out.Allocator = flags.Allocator
	}
	if set.Changed("store-dir") {
		out.StoreDir = flags.StoreDir
	}
	if set.Changed("brokers") {
		out.Kafka.Brokers = flags.Kafka.Brokers
	}
	if set.Changed("topic") {
		out.Kafka.Topic = flags.Kafka.Topic
	}
	if set.Changed("kafka-client") {
		out.Kafka.Client = flags.Kafka.Client
	}
	return out
}
