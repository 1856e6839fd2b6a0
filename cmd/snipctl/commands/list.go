package commands

import (
	"context"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/scott-cotton/cli"
)

type listConfig struct {
	*cli.Command
	ctx context.Context

	DSN      string `cli:"name=dsn desc='DSN of the key/value store'"`
	Keyspace string `cli:"name=keyspace desc='name of the keyspace that holds the snippets'"`
	Where    string `cli:"name=where aliases=w desc='only list snippets matching this expression over id, body and size'"`
}

// ListCommand returns the list subcommand.
func ListCommand(ctx context.Context) *cli.Command {
	cfg := &listConfig{ctx: ctx}
	opts, _ := cli.StructOpts(cfg)
	return cli.NewCommandAt(&cfg.Command, "list").
		WithSynopsis("list [-where expr] - List snippet ids").
		WithOpts(opts...).
		WithRun(cfg.run)
}

func (cfg *listConfig) run(cc *cli.Context, args []string) error {
	args, err := cfg.Parse(cc, args)
	if err != nil {
		return err
	}

	if len(args) != 0 {
		return fmt.Errorf("%w: usage: snipctl list [-where expr]", cli.ErrUsage)
	}

	match, err := compileFilter(cfg.Where)
	if err != nil {
		return fmt.Errorf("%w: invalid -where expression: %w", cli.ErrUsage, err)
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

	return rangeSnippets(
		cfg.ctx,
		ks,
		func(s snippet) error {
			ok, err := match(s)
			if err != nil {
				return fmt.Errorf("evaluating -where expression for %q: %w", s.ID, err)
			}

			if ok {
				fmt.Fprintln(cc.Out, s.ID)
			}

			return nil
		},
	)
}

// compileFilter returns a predicate that evaluates the expression source
// against a snippet. An empty expression matches every snippet.
func compileFilter(source string) (func(snippet) (bool, error), error) {
	if source == "" {
		return func(snippet) (bool, error) { return true, nil }, nil
	}

	prg, err := expr.Compile(
		source,
		expr.Env(filterEnv(snippet{})),
		expr.AsBool(),
	)
	if err != nil {
		return nil, err
	}

	return func(s snippet) (bool, error) {
		return runFilter(prg, s)
	}, nil
}

func runFilter(prg *vm.Program, s snippet) (bool, error) {
	res, err := expr.Run(prg, filterEnv(s))
	if err != nil {
		return false, err
	}
	return res.(bool), nil
}

func filterEnv(s snippet) map[string]any {
	return map[string]any{
		"id":   s.ID,
		"body": s.Body,
		"size": len(s.Body),
	}
}
