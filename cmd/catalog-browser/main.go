package main

import (
	"fmt"
	"os"

	"github.com/Slach/catalog-browser/pkg/cli"
	"github.com/Slach/catalog-browser/pkg/logging"
	"github.com/Slach/catalog-browser/pkg/types"
)

var version = "dev"

func main() {
	logging.InitConsoleStdErrLog()
	cliInstance := &types.CLI{}
	rootCmd := cli.NewRootCommand(cliInstance, version)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
