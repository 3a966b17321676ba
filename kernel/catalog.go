package kernel

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Catalog maps kernel names to kernels.
type Catalog struct {
	kernels map[string]Kernel
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{kernels: make(map[string]Kernel)}
}

// DefaultCatalog returns a catalog holding every built-in kernel.
func DefaultCatalog() *Catalog {
	c := NewCatalog()
	for _, k := range []Kernel{
		Identity(), Box3(), Box(2), Box(3), Box9(), Gaussian3(), Gaussian5(), LoG7(),
	} {
		c.Register(k)
	}

	return c
}

// Register adds or replaces a kernel.
func (c *Catalog) Register(k Kernel) {
	c.kernels[k.Name()] = k
}

// Lookup finds a kernel by name.
func (c *Catalog) Lookup(name string) (Kernel, error) {
	k, ok := c.kernels[name]
	if !ok {
		return Kernel{}, fmt.Errorf("unknown kernel %q (known: %v)", name, c.Names())
	}

	return k, nil
}

// Names returns the sorted kernel names.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.kernels))
	for name := range c.kernels {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

type kernelFile struct {
	Kernels []kernelEntry `yaml:"kernels"`
}

type kernelEntry struct {
	Name   string  `yaml:"name"`
	Radius int     `yaml:"radius"`
	Scale  uint16  `yaml:"scale"`
	Taps   []int16 `yaml:"taps"`
}

// Load reads kernel definitions in YAML and registers them.
//
//	kernels:
//	  - name: sharpen
//	    radius: 1
//	    scale: 1
//	    taps: [0, -1, 0, -1, 5, -1, 0, -1, 0]
func (c *Catalog) Load(r io.Reader) error {
	var f kernelFile

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode kernel file: %w", err)
	}

	for _, e := range f.Kernels {
		if e.Name == "" {
			return fmt.Errorf("kernel entry without a name")
		}

		k, err := New(e.Name, e.Radius, e.Taps, e.Scale)
		if err != nil {
			return err
		}

		c.Register(k)
	}

	return nil
}

// LoadFile is like Load but reads from the named file.
func (c *Catalog) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open kernel file: %w", err)
	}
	defer f.Close()

	return c.Load(f)
}
