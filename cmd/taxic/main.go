// Command taxic compiles Taxi schema sources.
package main

import (
	"fmt"
	"os"

	"github.com/taxilang/taxilang-sub000/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
