package commands

import (
	"context"
	"fmt"

	"github.com/scott-cotton/cli"
	"github.com/soletrym/snipstore"
)

type newConfig struct {
	*cli.Command
	ctx context.Context

	DSN      string `cli:"name=dsn desc='DSN of the key/value store'"`
	Keyspace string `cli:"name=keyspace desc='name of the keyspace that holds the snippets'"`
}

// NewCommand returns the new subcommand.
func NewCommand(ctx context.Context) *cli.Command {
	cfg := &newConfig{ctx: ctx}
	opts, _ := cli.StructOpts(cfg)
	return cli.NewCommandAt(&cfg.Command, "new").
		WithSynopsis("new [file] - Store a snippet under a generated id").
		WithOpts(opts...).
		WithRun(cfg.run)
}

func (cfg *newConfig) run(cc *cli.Context, args []string) error {
	args, err := cfg.Parse(cc, args)
	if err != nil {
		return err
	}

	if len(args) > 1 {
		return fmt.Errorf("%w: usage: snipctl new [file]", cli.ErrUsage)
	}

	var file string
	if len(args) == 1 {
		file = args[0]
	}

	body, err := readInput(cc.In, file)
	if err != nil {
		return err
	}

	t, err := openTarget(cfg.ctx, cfg.DSN, cfg.Keyspace)
	if err != nil {
		return err
	}
	defer t.Close()

	id := snipstore.NewID()

	if err := t.store.Put(cfg.ctx, id, body); err != nil {
		return fmt.Errorf("failed to store snippet: %w", err)
	}

	fmt.Fprintln(cc.Out, id)
	return nil
}
