// Command flarectl runs the risk engine and trend analyzer over local JSON
// files, without a database or network access.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
