// Command dcc-migrate opens a message database read-write, which creates
// a fresh store or brings an existing one to the current schema version,
// and optionally verifies file integrity afterwards.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/bpiddubnyi/deltachat-core/internal/log"
	"github.com/bpiddubnyi/deltachat-core/internal/metrics"
	"github.com/bpiddubnyi/deltachat-core/internal/peerstate"
	sqlitev "github.com/bpiddubnyi/deltachat-core/internal/persistence/sqlite"
	"github.com/bpiddubnyi/deltachat-core/internal/store"
)

func main() {
	var (
		dbPath = flag.String("db", "", "Path to the message database")
		verify = flag.String("verify", "off", "Integrity check after migration: off|quick|full")
	)
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -db is required")
		os.Exit(1)
	}

	log.Configure(log.Config{Service: "dcc-migrate"})
	ctx := context.Background()

	s := store.New(store.Options{
		Observer:   metrics.LockObserver{},
		Peerstates: peerstate.Migrator{},
	})
	if err := s.Open(ctx, *dbPath, store.ReadWrite); err != nil {
		fmt.Fprintf(os.Stderr, "Error: open %s: %v\n", *dbPath, err)
		os.Exit(1)
	}

	version := s.ConfigInt(ctx, "dbversion", -1)
	s.Close()
	fmt.Printf("%s: schema version %d\n", *dbPath, version)

	if *verify != "off" {
		issues, err := sqlitev.VerifyIntegrity(*dbPath, *verify)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: integrity check: %v\n", err)
			os.Exit(1)
		}
		if issues != nil {
			fmt.Fprintf(os.Stderr, "Integrity check FAILED:\n")
			for _, issue := range issues {
				fmt.Fprintf(os.Stderr, "  %s\n", issue)
			}
			os.Exit(2)
		}
		fmt.Println("Integrity check passed.")
	}
}
