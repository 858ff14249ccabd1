// Command vecdb-cli is a thin cobra wrapper over vecdbd's REST API,
// for scripting collection and vector operations from a shell.
//
// Exit codes:
//
//	0  success
//	2  the requested collection or vector was not found, or already exists
//	3  the request was rejected as invalid (bad dimension, bad JSON, ...)
//	4  the server was unreachable or returned an unexpected error
package main

import (
	"fmt"
	"os"

	"github.com/rdmurugan/d-vecDB/cmd/vecdb-cli/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "vecdb-cli:", err)
		os.Exit(cli.ExitCodeFor(err))
	}
}
