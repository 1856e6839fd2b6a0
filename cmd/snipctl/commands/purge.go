package commands

import (
	"context"
	"fmt"

	"github.com/scott-cotton/cli"
)

type purgeConfig struct {
	*cli.Command
	ctx context.Context

	DSN      string `cli:"name=dsn desc='DSN of the key/value store'"`
	Keyspace string `cli:"name=keyspace desc='name of the keyspace that holds the snippets'"`
}

// PurgeCommand returns the purge subcommand.
func PurgeCommand(ctx context.Context) *cli.Command {
	cfg := &purgeConfig{ctx: ctx}
	opts, _ := cli.StructOpts(cfg)
	return cli.NewCommandAt(&cfg.Command, "purge").
		WithSynopsis("purge <id>... - Remove snippets from the medium").
		WithDescription("Removes snippets directly from the key/value store. Removing a snippet that does not exist is not an error.").
		WithOpts(opts...).
		WithRun(cfg.run)
}

func (cfg *purgeConfig) run(cc *cli.Context, args []string) error {
	args, err := cfg.Parse(cc, args)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		return fmt.Errorf("%w: usage: snipctl purge <id>...", cli.ErrUsage)
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

	for _, id := range args {
		if err := ks.Delete(cfg.ctx, []byte(id)); err != nil {
			return fmt.Errorf("failed to purge %q: %w", id, err)
		}
		fmt.Fprintf(cc.Out, "purged %s\n", id)
	}

	return nil
}
