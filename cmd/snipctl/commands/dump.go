package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/scott-cotton/cli"
)

type dumpConfig struct {
	*cli.Command
	ctx context.Context

	DSN      string `cli:"name=dsn desc='DSN of the key/value store'"`
	Keyspace string `cli:"name=keyspace desc='name of the keyspace that holds the snippets'"`
	Y        bool   `cli:"name=y aliases=yaml desc='dump as yaml instead of json'"`
}

// DumpCommand returns the dump subcommand.
func DumpCommand(ctx context.Context) *cli.Command {
	cfg := &dumpConfig{ctx: ctx}
	opts, _ := cli.StructOpts(cfg)
	return cli.NewCommandAt(&cfg.Command, "dump").
		WithSynopsis("dump [-y] - Dump all snippets").
		WithOpts(opts...).
		WithRun(cfg.run)
}

func (cfg *dumpConfig) run(cc *cli.Context, args []string) error {
	args, err := cfg.Parse(cc, args)
	if err != nil {
		return err
	}

	if len(args) != 0 {
		return fmt.Errorf("%w: usage: snipctl dump [-y]", cli.ErrUsage)
	}

	t, err := openTarget(cfg.ctx, cfg.DSN, cfg.Keyspace)
	if err != nil {
		return err
	}
	defer t.Close()

	ks, err := t.keyspace(cfg.ctx)
	if err != nil {
		return err
	}
	defer ks.Close()

	snippets := []snippet{}
	if err := rangeSnippets(
		cfg.ctx,
		ks,
		func(s snippet) error {
			snippets = append(snippets, s)
			return nil
		},
	); err != nil {
		return err
	}

	var data []byte
	if cfg.Y {
		data, err = yaml.Marshal(snippets)
	} else {
		data, err = json.MarshalIndent(snippets, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("encoding snippets: %w", err)
	}

	_, err = cc.Out.Write(data)
	return err
}
