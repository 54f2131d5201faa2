package main

import (
	"os"

	"github.com/adajed/searchview/internal/cli"
	"github.com/adajed/searchview/internal/logx"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		logger := logx.NewLogger()
		logger.Error().Err(err).Msg("searchview")
		os.Exit(cli.GetExitCode(err))
	}
}
