package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/chazu/noc/store"
	"github.com/chazu/noc/vm/dist"
)

// storeCommand processes the `noc store` subcommand.
// Usage:
//
//	noc store put <unit.nocb>...         Add units to the store
//	noc store get <hash> <out.nocb>      Write a stored unit to a file
//	noc store list                       List stored units
//	noc store rm <hash>                  Remove a unit
func (c *cli) storeCommand(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(c.stderr, "Usage: noc store [put|get|list|rm] ...")
		fmt.Fprintln(c.stderr, "  put <unit.nocb>...       Add units to the store")
		fmt.Fprintln(c.stderr, "  get <hash> <out.nocb>    Write a stored unit to a file")
		fmt.Fprintln(c.stderr, "  list                     List stored units")
		fmt.Fprintln(c.stderr, "  rm <hash>                Remove a unit")
		return 2
	}

	var err error
	switch args[0] {
	case "put":
		if len(args) < 2 {
			fmt.Fprintln(c.stderr, "Usage: noc store put <unit.nocb>...")
			return 2
		}
		err = c.withStore(func(s *store.Store) error {
			for _, path := range args[1:] {
				_, data, err := readUnitFile(path)
				if err != nil {
					return err
				}
				h, err := s.PutEncoded(filepath.Base(path), data)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.stdout, "%s  %s\n", h, path)
			}
			return nil
		})
	case "get":
		if len(args) != 3 {
			fmt.Fprintln(c.stderr, "Usage: noc store get <hash> <out.nocb>")
			return 2
		}
		err = c.withStore(func(s *store.Store) error {
			h, err := dist.ParseHash(args[1])
			if err != nil {
				return err
			}
			data, err := s.GetEncoded(h)
			if err != nil {
				return err
			}
			if _, err := dist.VerifyUnit(data, h); err != nil {
				return err
			}
			return os.WriteFile(args[2], data, 0o644)
		})
	case "list":
		err = c.withStore(func(s *store.Store) error {
			entries, err := s.List()
			if err != nil {
				return err
			}
			if c.verbose {
				fmt.Fprintf(c.stderr, "%d units in %s\n", len(entries), s.Path())
			}
			for _, e := range entries {
				fmt.Fprintln(c.stdout, e)
			}
			return nil
		})
	case "rm":
		if len(args) != 2 {
			fmt.Fprintln(c.stderr, "Usage: noc store rm <hash>")
			return 2
		}
		err = c.withStore(func(s *store.Store) error {
			h, err := dist.ParseHash(args[1])
			if err != nil {
				return err
			}
			return s.Delete(h)
		})
	default:
		fmt.Fprintf(c.stderr, "Unknown store subcommand: %s\n", args[0])
		return 2
	}
	if err != nil {
		return c.fail(err)
	}
	return 0
}
