// Package commands implements the snipctl subcommands.
package commands

import (
	"context"

	"github.com/scott-cotton/cli"
)

const usageText = `snipctl - operate on a snippet store directly

Usage:
  snipctl put [-diff] <id> [file]   Store a snippet from file or stdin
  snipctl get <id>                  Print a snippet
  snipctl new [file]                Store a snippet under a generated id
  snipctl list [-where expr]        List snippet ids
  snipctl dump [-y]                 Dump all snippets as JSON or YAML
  snipctl purge <id>                Remove a snippet from the medium

Every command accepts -dsn and -keyspace. The DSN defaults to
$SNIPSTORE_KV_DSN, the keyspace to $SNIPSTORE_KEYSPACE.

Examples:
  snipctl put abc123 notes.txt
  echo "Hello world" | snipctl put -dsn file:///var/lib/snipstore abc123
  snipctl list -where 'size > 1024'
  snipctl dump -y`

// Root returns the root command for snipctl.
func Root(ctx context.Context) *cli.Command {
	return cli.NewCommand("snipctl").
		WithSynopsis("snipctl - operate on a snippet store directly").
		WithDescription(usageText).
		WithSubs(
			PutCommand(ctx),
			GetCommand(ctx),
			NewCommand(ctx),
			ListCommand(ctx),
			DumpCommand(ctx),
			PurgeCommand(ctx),
		)
}
