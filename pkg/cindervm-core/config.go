package cindervm

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cindervm/cindervm-core/internal/cindervm-core/heap"
	"github.com/cindervm/cindervm-core/internal/cindervm-core/interp"
)

// Config carries every tuning knob of the VM instance: how eagerly the
// collector runs, how deep calls may nest, and how strict numeric
// conversions are.
type Config struct {
	// InitialHeapObjects is the number of allocations the heap absorbs
	// before starting its first collection cycle.
	InitialHeapObjects int `yaml:"initial_heap_objects"`

	// MarkWorkPerAlloc bounds how many gray objects one allocation's
	// worth of mark work will drain.
	MarkWorkPerAlloc int `yaml:"mark_work_per_alloc"`

	// SweepWorkPerAlloc bounds how many pending ids one allocation's
	// worth of sweep work will visit.
	SweepWorkPerAlloc int `yaml:"sweep_work_per_alloc"`

	// MaxFrameDepth is the call-depth cap before Invoke fails with
	// ErrStackOverflow.
	MaxFrameDepth int `yaml:"max_frame_depth"`

	// StrictNumericConversions makes OpConvert fail with ErrTypeMismatch
	// on narrowing overflow instead of silently truncating.
	StrictNumericConversions bool `yaml:"strict_numeric_conversions"`
}

// DefaultConfig returns the VM's out-of-the-box tuning: a 4096-object
// initial heap budget, light incremental mark/sweep steps, a 256-frame
// call depth cap, and permissive numeric conversions.
func DefaultConfig() *Config {
	hc := heap.DefaultHeapConfig()
	ic := interp.DefaultConfig()
	return &Config{
		InitialHeapObjects:       hc.InitialHeapObjects,
		MarkWorkPerAlloc:         hc.MarkWorkPerAlloc,
		SweepWorkPerAlloc:        hc.SweepWorkPerAlloc,
		MaxFrameDepth:            ic.MaxFrameDepth,
		StrictNumericConversions: ic.StrictNumericConversions,
	}
}

// LoadConfig reads a YAML configuration document from path, starting
// from DefaultConfig so an omitted field keeps its default rather than
// zeroing out.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cindervm: reading config %q: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("cindervm: parsing config %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports whether every field holds a usable value.
func (c *Config) Validate() error {
	if c.InitialHeapObjects <= 0 {
		return fmt.Errorf("cindervm: InitialHeapObjects must be positive, got %d", c.InitialHeapObjects)
	}
	if c.MarkWorkPerAlloc <= 0 {
		return fmt.Errorf("cindervm: MarkWorkPerAlloc must be positive, got %d", c.MarkWorkPerAlloc)
	}
	if c.SweepWorkPerAlloc <= 0 {
		return fmt.Errorf("cindervm: SweepWorkPerAlloc must be positive, got %d", c.SweepWorkPerAlloc)
	}
	if c.MaxFrameDepth <= 0 {
		return fmt.Errorf("cindervm: MaxFrameDepth must be positive, got %d", c.MaxFrameDepth)
	}
	return nil
}

// Clone returns a deep copy (trivial here, since Config is all scalars).
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// WithInitialHeapObjects sets InitialHeapObjects and returns c.
func (c *Config) WithInitialHeapObjects(n int) *Config {
	c.InitialHeapObjects = n
	return c
}

// WithMarkWorkPerAlloc sets MarkWorkPerAlloc and returns c.
func (c *Config) WithMarkWorkPerAlloc(n int) *Config {
	c.MarkWorkPerAlloc = n
	return c
}

// WithSweepWorkPerAlloc sets SweepWorkPerAlloc and returns c.
func (c *Config) WithSweepWorkPerAlloc(n int) *Config {
	c.SweepWorkPerAlloc = n
	return c
}

// WithMaxFrameDepth sets MaxFrameDepth and returns c.
func (c *Config) WithMaxFrameDepth(n int) *Config {
	c.MaxFrameDepth = n
	return c
}

// WithStrictNumericConversions sets StrictNumericConversions and returns c.
func (c *Config) WithStrictNumericConversions(strict bool) *Config {
	c.StrictNumericConversions = strict
	return c
}

func (c *Config) heapConfig() heap.Config {
	return heap.Config{
		InitialHeapObjects: c.InitialHeapObjects,
		MarkWorkPerAlloc:   c.MarkWorkPerAlloc,
		SweepWorkPerAlloc:  c.SweepWorkPerAlloc,
	}
}

func (c *Config) interpConfig() interp.Config {
	return interp.Config{
		MaxFrameDepth:            c.MaxFrameDepth,
		StrictNumericConversions: c.StrictNumericConversions,
	}
}
