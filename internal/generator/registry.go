package generator

import (
	"sort"

	"github.com/tomfevang/go-populate-my-db/internal/errs"
)

// Entry describes a registered generator for catalog listings.
type Entry struct {
	Name string
	Doc  string
	New  func(cfg *Config) (Generator, error)
}

var registry = map[string]Entry{}

func register(name, doc string, ctor func(cfg *Config) (Generator, error)) {
	registry[name] = Entry{Name: name, Doc: doc, New: ctor}
}

// New builds the generator named by cfg.Generator.
func New(cfg *Config) (Generator, error) {
	e, ok := registry[cfg.Generator]
	if !ok {
		return nil, errs.Validationf("Item '%s', field '%s': Generator '%s' does not exist.",
			cfg.Item, cfg.Field, cfg.Generator)
	}
	return e.New(cfg)
}

// Exists reports whether name is a registered generator.
func Exists(name string) bool {
	_, ok := registry[name]
	return ok
}

// Catalog returns every registered generator sorted by name.
func Catalog() []Entry {
	out := make([]Entry, 0, len(registry))
	for _, e := range registry {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
