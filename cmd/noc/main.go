// Noc CLI - runs and inspects encoded Noc bytecode units
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/noc/manifest"
	"github.com/chazu/noc/store"
	"github.com/chazu/noc/vm"
	"github.com/chazu/noc/vm/dist"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// cli carries the resolved settings for one invocation.
type cli struct {
	stdout, stderr io.Writer
	color          bool
	verbose        bool
	manifest       *manifest.Manifest
	log            commonlog.Logger
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("noc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("v", false, "Verbose output")
	disasm := fs.Bool("d", false, "Disassemble the unit instead of running it")
	trace := fs.Bool("trace", false, "Log every executed instruction")
	profile := fs.Bool("profile", false, "Print dispatch counts after the run")
	hashHex := fs.String("hash", "", "Run the stored unit with this hash")
	storeIt := fs.Bool("store", false, "Add the unit to the store before running it")
	configDir := fs.String("config", "", "Directory holding noc.toml (default: search upward from .)")
	storePath := fs.String("db", "", "Unit store path (overrides [store].path)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: noc [options] [unit.nocb]\n")
		fmt.Fprintf(stderr, "       noc store [put|get|list|rm] ...\n\n")
		fmt.Fprintf(stderr, "Runs an encoded Noc unit and prints the final stack, bottom first.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  noc main.nocb            # Run a unit\n")
		fmt.Fprintf(stderr, "  noc -d main.nocb         # Show its listing\n")
		fmt.Fprintf(stderr, "  noc -store main.nocb     # Store it, then run it\n")
		fmt.Fprintf(stderr, "  noc -hash 3fa9...        # Run a stored unit\n")
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	c := &cli{
		stdout:  stdout,
		stderr:  stderr,
		color:   isTerminal(stderr),
		verbose: *verbose,
	}

	m, err := loadManifest(*configDir)
	if err != nil {
		return c.fail(err)
	}
	c.manifest = m
	if *storePath != "" {
		if m.Store.Path, err = filepath.Abs(*storePath); err != nil {
			return c.fail(err)
		}
	}

	verbosity := m.Log.Verbosity
	if *verbose && verbosity < 1 {
		verbosity = 1
	}
	if *trace && verbosity < 2 {
		verbosity = 2
	}
	if logPath := m.LogPath(); logPath != "" {
		commonlog.Configure(verbosity, &logPath)
	} else {
		commonlog.Configure(verbosity, nil)
	}
	c.log = commonlog.GetLogger("noc.cli")

	rest := fs.Args()
	if len(rest) > 0 && rest[0] == "store" {
		return c.storeCommand(rest[1:])
	}

	u, data, err := c.loadUnit(rest, *hashHex)
	if err != nil {
		return c.fail(err)
	}
	if c.verbose {
		fmt.Fprintf(stderr, "Loaded unit %s (%s, %d instructions, %d constants, %d symbols)\n",
			dist.HashBytes(data).Short(), humanize.Bytes(uint64(len(data))),
			len(u.Code), len(u.Constants), len(u.Symbols))
	}

	if *storeIt {
		if err := c.withStore(func(s *store.Store) error {
			name := "unit"
			if len(rest) > 0 {
				name = filepath.Base(rest[0])
			}
			h, err := s.PutEncoded(name, data)
			if err != nil {
				return err
			}
			c.log.Infof("stored %s in %s", name, s.Path())
			fmt.Fprintln(stdout, h)
			return nil
		}); err != nil {
			return c.fail(err)
		}
	}

	if *disasm {
		fmt.Fprint(stdout, u.DisassembleWithName(m.Project.Name))
		return 0
	}

	cfg := m.VMConfig()
	if *trace {
		cfg.Trace = true
	}
	return c.execute(u, cfg, *profile)
}

// loadManifest finds noc.toml in dir, or upward from the working
// directory when dir is empty. A missing file yields the defaults.
func loadManifest(dir string) (*manifest.Manifest, error) {
	if dir != "" {
		return manifest.Load(dir)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	m, err := manifest.FindAndLoad(wd)
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = manifest.Default(wd)
	}
	return m, nil
}

// loadUnit reads the unit named on the command line, the stored unit for
// hashHex, or the manifest entry, in that order.
func (c *cli) loadUnit(args []string, hashHex string) (*vm.Unit, []byte, error) {
	switch {
	case len(args) > 1:
		return nil, nil, fmt.Errorf("expected one unit file, got %d", len(args))
	case len(args) == 1:
		return readUnitFile(args[0])
	case hashHex != "":
		h, err := dist.ParseHash(hashHex)
		if err != nil {
			return nil, nil, err
		}
		var (
			u    *vm.Unit
			data []byte
		)
		err = c.withStore(func(s *store.Store) error {
			var err error
			if data, err = s.GetEncoded(h); err != nil {
				return err
			}
			u, err = dist.VerifyUnit(data, h)
			return err
		})
		return u, data, err
	case c.manifest.EntryPath() != "":
		c.log.Debugf("running project entry %s", c.manifest.EntryPath())
		return readUnitFile(c.manifest.EntryPath())
	default:
		return nil, nil, errors.New("no unit given (pass a file, -hash, or set [project].entry)")
	}
}

func readUnitFile(path string) (*vm.Unit, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	u, err := dist.UnmarshalUnit(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return u, data, nil
}

func (c *cli) execute(u *vm.Unit, cfg vm.Config, profile bool) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	mach := vm.NewMachine(cfg)
	mach.SetOutput(c.stdout)
	var prof *vm.Profiler
	if profile {
		prof = vm.NewProfiler(mach)
		prof.OnHot = func(fp *vm.FunctionProfile) {
			c.log.Debugf("function @%d is hot", fp.Entry)
		}
		prof.Attach()
	}
	err := mach.ExecuteContext(ctx, u)
	if prof != nil {
		prof.Report(c.stderr, u)
	}
	if c.verbose {
		fmt.Fprintf(c.stderr, "Run %s finished with %d values on the stack\n", mach.RunID(), mach.Stack.Len())
	}
	if err != nil {
		var vmErr *vm.Error
		if errors.As(err, &vmErr) && vmErr.PC >= 0 {
			err = fmt.Errorf("%w\n  at %04d  %s", err, vmErr.PC, u.DisassembleInstruction(vmErr.PC))
		}
		return c.fail(err)
	}
	for _, v := range mach.Stack.Values() {
		fmt.Fprintln(c.stdout, v.Repr())
	}
	return 0
}

func (c *cli) withStore(fn func(*store.Store) error) error {
	s, err := store.Open(c.manifest.StorePath())
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func (c *cli) fail(err error) int {
	if c.color {
		fmt.Fprintf(c.stderr, "\x1b[31mError:\x1b[0m %v\n", err)
	} else {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
	}
	return 1
}

// isTerminal reports whether w is a terminal, so error output can be
// coloured.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
