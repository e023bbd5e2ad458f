package catalog

import (
	"context"
	"fmt"
)

// Store persists catalog edits between runs.
type Store interface {
	LoadCatalog(ctx context.Context) ([]Definition, error)
	SaveCatalog(ctx context.Context, defs []Definition) error
}

// Load builds a catalog from s. An empty store yields the defaults; definitions
// added to the defaults since the store was written are appended.
func Load(ctx context.Context, s Store) (*Catalog, error) {
	saved, err := s.LoadCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if len(saved) == 0 {
		return New(nil), nil
	}
	c := New(saved)
	for _, d := range Defaults() {
		if _, ok := c.Lookup(d.ID); !ok {
			c.items = append(c.items, d)
		}
	}
	return c, nil
}

// Save writes every definition of c to s.
func Save(ctx context.Context, s Store, c *Catalog) error {
	if err := s.SaveCatalog(ctx, c.All()); err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	return nil
}
