// Command querykit validates entity schemas, compiles and runs YAML query
// files against SQLite, and replays scenario files with golden traces.
package main

import (
	"os"

	"github.com/roach88/querykit/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
