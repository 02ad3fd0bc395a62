// Package manifest handles noc.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/chazu/noc/vm"
)

// FileName is the project configuration file looked up by Load.
const FileName = "noc.toml"

// DefaultStorePath is the unit store location, relative to the project.
const DefaultStorePath = ".noc/units.db"

// Manifest represents a noc.toml project configuration.
type Manifest struct {
	Project Project     `toml:"project"`
	VM      VMSection   `toml:"vm"`
	Log     LogSection  `toml:"log"`
	Store   StoreConfig `toml:"store"`

	// Dir is the directory containing the noc.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name  string `toml:"name"`
	Entry string `toml:"entry"` // encoded unit run when no file is given
}

// VMSection sets machine limits. Zero values mean the machine default.
type VMSection struct {
	StackSize  int  `toml:"stack-size"`
	MaxStack   int  `toml:"max-stack"`
	MaxDepth   int  `toml:"max-depth"`
	MaxPayload int  `toml:"max-payload"`
	Trace      bool `toml:"trace"`
}

// LogSection configures commonlog.
type LogSection struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// StoreConfig configures the unit store.
type StoreConfig struct {
	Path string `toml:"path"`
}

// Default returns the manifest used when no noc.toml exists.
func Default(dir string) *Manifest {
	m := &Manifest{Dir: dir}
	m.applyDefaults()
	return m
}

// Load parses a noc.toml file from the given directory. Unknown keys are
// an error so typos in limits do not pass silently.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.applyDefaults()
	return &m, nil
}

// FindAndLoad walks up from startDir to find a noc.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

func (m *Manifest) validate() error {
	for _, f := range []struct {
		key string
		val int
	}{
		{"vm.stack-size", m.VM.StackSize},
		{"vm.max-stack", m.VM.MaxStack},
		{"vm.max-depth", m.VM.MaxDepth},
		{"vm.max-payload", m.VM.MaxPayload},
	} {
		if f.val < 0 {
			return fmt.Errorf("%s must not be negative (got %d)", f.key, f.val)
		}
	}
	if m.VM.MaxStack > 0 && m.VM.StackSize > m.VM.MaxStack {
		return fmt.Errorf("vm.stack-size %d exceeds vm.max-stack %d", m.VM.StackSize, m.VM.MaxStack)
	}
	return nil
}

func (m *Manifest) applyDefaults() {
	if m.Store.Path == "" {
		m.Store.Path = DefaultStorePath
	}
}

// VMConfig returns the machine limits, filling defaults for missing keys.
func (m *Manifest) VMConfig() vm.Config {
	cfg := vm.DefaultConfig()
	if m.VM.StackSize > 0 {
		cfg.StackSize = m.VM.StackSize
	}
	if m.VM.MaxStack > 0 {
		cfg.MaxStack = m.VM.MaxStack
	}
	if m.VM.MaxDepth > 0 {
		cfg.MaxDepth = m.VM.MaxDepth
	}
	cfg.MaxPayload = m.VM.MaxPayload
	cfg.Trace = m.VM.Trace
	return cfg
}

// EntryPath returns the absolute path of the entry unit, or "" if unset.
func (m *Manifest) EntryPath() string {
	if m.Project.Entry == "" {
		return ""
	}
	return m.resolve(m.Project.Entry)
}

// StorePath returns the absolute path of the unit store database.
func (m *Manifest) StorePath() string {
	return m.resolve(m.Store.Path)
}

// LogPath returns the absolute log file path, or "" for stderr.
func (m *Manifest) LogPath() string {
	if m.Log.File == "" {
		return ""
	}
	return m.resolve(m.Log.File)
}

func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}
