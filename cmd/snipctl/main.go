package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dogmatiq/ferrite"
	"github.com/scott-cotton/cli"
	"github.com/soletrym/snipstore"
	"github.com/soletrym/snipstore/cmd/snipctl/commands"
)

func main() {
	ferrite.Init(ferrite.WithRegistry(snipstore.FerriteRegistry))

	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.MainContext(ctx, commands.Root(ctx))
}
