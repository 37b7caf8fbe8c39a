// Command ghk is the household expense command line: it issues development
// tokens, prints summaries and exports expenses straight from the database.
package main

import (
	"os"

	"gharkharcha/internal/logger"
)

func main() {
	defer logger.Sync()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
