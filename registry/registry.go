package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/picowire/picowire/schema"
)

// Registry stores compiled schemas under user-chosen message names. We
// look these up when we need to marshal or unmarshal a named message.
// A registry may be shared between goroutines.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*schema.Schema
}

func NewRegistry() *Registry {
	return &Registry{}
}

// RegisterFormat compiles a format string and stores it under name.
// Positional schemas registered this way encode and decode ordered
// sequences.
func (r *Registry) RegisterFormat(name, fmtstr string) error {
	sch, err := schema.ParseFormat(fmtstr)
	if err != nil {
		return fmt.Errorf("failed to compile schema %q: %w", name, err)
	}
	r.put(name, sch)
	return nil
}

// RegisterFields compiles a key-value field list and stores it under
// name. Schemas registered this way encode and decode name-keyed maps.
func (r *Registry) RegisterFields(name string, fields []schema.KVField) error {
	sch, err := schema.ParseFields(fields)
	if err != nil {
		return fmt.Errorf("failed to compile schema %q: %w", name, err)
	}
	r.put(name, sch)
	return nil
}

// GetSchema returns the compiled schema registered under name.
func (r *Registry) GetSchema(name string) (*schema.Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sch, ok := r.schemas[name]
	if !ok {
		return nil, fmt.Errorf("message %q not found in registry", name)
	}
	return sch, nil
}

// Messages returns the sorted names of all registered schemas.
func (r *Registry) Messages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadSchemaFile reads a JSON file mapping message names to format
// strings and registers every entry.
func (r *Registry) LoadSchemaFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}

	var defs map[string]string
	if err := json.Unmarshal(data, &defs); err != nil {
		return fmt.Errorf("failed to parse schema file %s: %w", path, err)
	}

	for name, fmtstr := range defs {
		if err := r.RegisterFormat(name, fmtstr); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) put(name string, sch *schema.Schema) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.schemas == nil {
		r.schemas = make(map[string]*schema.Schema)
	}
	r.schemas[name] = sch
}
