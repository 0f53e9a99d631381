package main

import (
	"context"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"

	"github.com/macropower/rulecat/internal/cli"
	"github.com/macropower/rulecat/pkg/version"
)

func main() {
	ctx := context.Background()

	err := fang.Execute(ctx, cli.NewRootCmd(),
		fang.WithVersion(version.String()),
		fang.WithColorSchemeFunc(cli.ColorSchemeFunc),
		fang.WithErrorHandler(cli.ErrorHandler),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	)
	if err != nil {
		os.Exit(1)
	}
}
