package main

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"cybercrime-portal/pkg/catalog"
	"cybercrime-portal/pkg/events"
	"cybercrime-portal/pkg/integrity"
)

//go:embed routing.yaml
var defaultRouting []byte

// Unit is an investigative team that receives cases of some categories.
type Unit struct {
	ID         string                  `yaml:"id"`
	Name       string                  `yaml:"name"`
	Department string                  `yaml:"department"`
	Categories []catalog.CrimeCategory `yaml:"categories"`
}

// RoutingTable maps crime categories to units.
type RoutingTable struct {
	Version            string             `yaml:"version"`
	DefaultUnit        string             `yaml:"default_unit"`
	EscalatePriorities []catalog.Priority `yaml:"escalate_priorities"`
	Units              []Unit             `yaml:"units"`

	// SHA256 of the source file, logged so dispatch decisions can be tied
	// to the table that made them.
	SHA256 string `yaml:"-"`

	byCategory map[catalog.CrimeCategory]*Unit
	byID       map[string]*Unit
}

// Dispatch is the routing decision for one case.
type Dispatch struct {
	CaseID   string
	Unit     Unit
	Escalate bool
}

// LoadRoutingTable reads path, or the embedded table when path is empty.
func LoadRoutingTable(path string) (*RoutingTable, error) {
	raw := defaultRouting
	if path != "" {
		var err error
		raw, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read routing table: %w", err)
		}
	}
	return ParseRoutingTable(raw)
}

// ParseRoutingTable decodes and validates a YAML routing table.
func ParseRoutingTable(raw []byte) (*RoutingTable, error) {
	var t RoutingTable
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("parse routing table: %w", err)
	}
	if err := t.index(); err != nil {
		return nil, err
	}
	t.SHA256 = integrity.Bytes(raw)
	return &t, nil
}

func (t *RoutingTable) index() error {
	if strings.TrimSpace(t.Version) == "" {
		return errors.New("routing table: version is required")
	}
	if len(t.Units) == 0 {
		return errors.New("routing table: units is empty")
	}

	t.byID = make(map[string]*Unit, len(t.Units))
	t.byCategory = make(map[catalog.CrimeCategory]*Unit)
	for i := range t.Units {
		u := &t.Units[i]
		u.ID = strings.TrimSpace(u.ID)
		if u.ID == "" {
			return errors.New("routing table: unit id is required")
		}
		if _, ok := t.byID[u.ID]; ok {
			return fmt.Errorf("routing table: duplicate unit id: %s", u.ID)
		}
		if strings.TrimSpace(u.Name) == "" {
			return fmt.Errorf("routing table: unit name is required: %s", u.ID)
		}
		t.byID[u.ID] = u

		for _, c := range u.Categories {
			if !c.Valid() {
				return fmt.Errorf("routing table: unknown category %q in unit %s", c, u.ID)
			}
			if prev, ok := t.byCategory[c]; ok {
				return fmt.Errorf("routing table: category %s routed to both %s and %s", c, prev.ID, u.ID)
			}
			t.byCategory[c] = u
		}
	}

	if _, ok := t.byID[t.DefaultUnit]; !ok {
		return fmt.Errorf("routing table: default unit %q is not defined", t.DefaultUnit)
	}
	for _, p := range t.EscalatePriorities {
		if !p.Valid() {
			return fmt.Errorf("routing table: unknown escalation priority %q", p)
		}
	}
	return nil
}

// Route picks the unit for a newly created case. Categories without a unit
// fall back to the default unit.
func (t *RoutingTable) Route(ev events.CaseEvent) Dispatch {
	u, ok := t.byCategory[ev.Category]
	if !ok {
		u = t.byID[t.DefaultUnit]
	}

	escalate := false
	for _, p := range t.EscalatePriorities {
		if p == ev.Priority {
			escalate = true
			break
		}
	}
	return Dispatch{CaseID: ev.CaseID, Unit: *u, Escalate: escalate}
}
