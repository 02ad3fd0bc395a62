package vm

// DefaultMaxDepth bounds nested Run/Unquote re-entry.
const DefaultMaxDepth = 4096

// Config holds the limits a Machine runs under.
type Config struct {
	StackSize  int  // Initial operand stack capacity
	MaxStack   int  // Hard operand stack limit (StackOverflow beyond it)
	MaxDepth   int  // Re-entry depth limit for functions and quotes
	MaxPayload int  // Largest string (bytes) or quote (elements) a handler may build; 0 = unlimited
	Trace      bool // Log every instruction at debug level
}

// DefaultConfig returns the limits used when no configuration is given.
func DefaultConfig() Config {
	return Config{
		StackSize: DefaultStackSize,
		MaxStack:  MaxStackSize,
		MaxDepth:  DefaultMaxDepth,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.StackSize <= 0 {
		c.StackSize = d.StackSize
	}
	if c.MaxStack <= 0 {
		c.MaxStack = d.MaxStack
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = d.MaxDepth
	}
	if c.MaxPayload < 0 {
		c.MaxPayload = 0
	}
	return c
}
