// Command erplite is a terminal client for the ERP backend: it logs in,
// keeps the session on disk or in Redis, and lists or edits business records
// subject to the same permission rules as the web front end.
package main

import (
	"fmt"
	"os"
)

var version = "dev"

func main() {
	if err := newCLI().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}
