// Command ledgerctl inspects and maintains stored ledgers without going
// through the API.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, openPostgres, openRedis).Execute(); err != nil {
		os.Exit(1)
	}
}
