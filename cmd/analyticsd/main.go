// Command analyticsd is the ottowrite entrypoint: API server, analytics
// workers, and job/bundle management.
package main

import (
	"fmt"
	"os"

	"github.com/tempandmajor/ottowrite-sub007/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
