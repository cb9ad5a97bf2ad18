// ABOUTME: Pack type grouping related tools for bulk registration.
// ABOUTME: Each pack constructor wires its tools to backing services.

package builtins

import (
	"fmt"

	"github.com/shopstream/shopmcp/internal/tools"
)

// Pack is a named group of tools registered together.
type Pack struct {
	ID    string
	Tools []*tools.Tool
}

// Register adds every tool of the pack to the registry.
func (p *Pack) Register(reg *tools.Registry) error {
	for _, t := range p.Tools {
		if err := reg.Register(t); err != nil {
			return fmt.Errorf("pack %s: %w", p.ID, err)
		}
	}
	return nil
}

// RegisterAll registers each pack in order.
func RegisterAll(reg *tools.Registry, packs ...*Pack) error {
	for _, p := range packs {
		if err := p.Register(reg); err != nil {
			return err
		}
	}
	return nil
}
