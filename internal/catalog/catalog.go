// Package catalog loads the static item catalog. The catalog is data,
// not behavior: the acquisition core receives the item list and the
// domain keyword list and never writes either back.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/wlfogle/mediafetch/internal/domain"
)

// Catalog is the injected list of items plus the domain keyword list
// the discovery relevance filter uses.
type Catalog struct {
	Keywords []string      `json:"keywords"`
	Items    []domain.Item `json:"items"`
}

// Load reads and validates a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var cat Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	if err := cat.validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	return &cat, nil
}

func (c *Catalog) validate() error {
	if len(c.Items) == 0 {
		return fmt.Errorf("catalog lists no items")
	}

	for i := range c.Items {
		item := &c.Items[i]
		if item.Title == "" {
			return fmt.Errorf("item %d has no title", i)
		}
		for j := range item.Sources {
			source := &item.Sources[j]
			if source.URL == "" {
				return fmt.Errorf("item %q source %d has no URL", item.Title, j)
			}
			if source.Kind == "" {
				source.Kind = domain.DetectKind(source.URL)
			}
			if !domain.ValidateKind(source.Kind) {
				return fmt.Errorf("item %q source %d has unknown kind %q", item.Title, j, source.Kind)
			}
			source.Health = domain.HealthUnknown
		}
	}
	return nil
}
