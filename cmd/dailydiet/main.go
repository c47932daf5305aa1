// Command dailydiet runs the diet-tracking API and its maintenance tasks.
//
//	dailydiet serve            start the HTTP server
//	dailydiet migrate up       apply pending migrations
//	dailydiet migrate down     roll back every migration
//	dailydiet migrate version  print the schema version
//
// Settings come from the environment (or a .env file); see internal/config.
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
