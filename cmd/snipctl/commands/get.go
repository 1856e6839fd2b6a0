package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/scott-cotton/cli"
	"github.com/soletrym/snipstore"
	"github.com/soletrym/snipstore/viewer"
)

type getConfig struct {
	*cli.Command
	ctx context.Context

	DSN      string `cli:"name=dsn desc='DSN of the key/value store'"`
	Keyspace string `cli:"name=keyspace desc='name of the keyspace that holds the snippets'"`
}

// GetCommand returns the get subcommand.
func GetCommand(ctx context.Context) *cli.Command {
	cfg := &getConfig{ctx: ctx}
	opts, _ := cli.StructOpts(cfg)
	return cli.NewCommandAt(&cfg.Command, "get").
		WithSynopsis("get <id> - Print a snippet").
		WithOpts(opts...).
		WithRun(cfg.run)
}

func (cfg *getConfig) run(cc *cli.Context, args []string) error {
	args, err := cfg.Parse(cc, args)
	if err != nil {
		return err
	}

	if len(args) != 1 {
		return fmt.Errorf("%w: usage: snipctl get <id>", cli.ErrUsage)
	}

	t, err := openTarget(cfg.ctx, cfg.DSN, cfg.Keyspace)
	if err != nil {
		return err
	}
	defer t.Close()

	body, err := t.store.Get(cfg.ctx, args[0])
	if errors.Is(err, snipstore.ErrNotFound) {
		fmt.Fprintln(os.Stderr, viewer.NotFoundMessage)
		return cli.ExitCodeErr(1)
	} else if err != nil {
		return err
	}

	_, err = io.WriteString(cc.Out, body)
	return err
}
