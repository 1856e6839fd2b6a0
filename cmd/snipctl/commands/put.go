package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/scott-cotton/cli"
	"github.com/soletrym/snipstore"
)

type putConfig struct {
	*cli.Command
	ctx context.Context

	DSN      string `cli:"name=dsn desc='DSN of the key/value store'"`
	Keyspace string `cli:"name=keyspace desc='name of the keyspace that holds the snippets'"`
	Diff     bool   `cli:"name=diff aliases=d desc='print a diff against the previous body'"`
}

// PutCommand returns the put subcommand.
func PutCommand(ctx context.Context) *cli.Command {
	cfg := &putConfig{ctx: ctx}
	opts, _ := cli.StructOpts(cfg)
	return cli.NewCommandAt(&cfg.Command, "put").
		WithSynopsis("put [-diff] <id> [file] - Store a snippet").
		WithDescription("Stores the contents of file, or of stdin if no file is given, under <id>, replacing any existing snippet.").
		WithOpts(opts...).
		WithRun(cfg.run)
}

func (cfg *putConfig) run(cc *cli.Context, args []string) error {
	args, err := cfg.Parse(cc, args)
	if err != nil {
		return err
	}

	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("%w: usage: snipctl put [-diff] <id> [file]", cli.ErrUsage)
	}

	id := args[0]

	var file string
	if len(args) == 2 {
		file = args[1]
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

	if cfg.Diff {
		prev, err := t.store.Get(cfg.ctx, id)
		if err != nil && !errors.Is(err, snipstore.ErrNotFound) {
			return err
		}

		writeDiff(cc.Out, prev, body, useColor(cc.Out))
	}

	if err := t.store.Put(cfg.ctx, id, body); err != nil {
		return fmt.Errorf("failed to store snippet: %w", err)
	}

	return nil
}
