// Package actions loads the static action table that maps each dialog state to its
// validator and transition targets.
package actions

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/aretw0/ngena/pkg/domain"
	"gopkg.in/yaml.v3"
)

//go:embed table.yaml
var defaultTable []byte

// Row is one immutable action table entry.
type Row struct {
	Validator     string        `yaml:"validator" json:"validator"`
	ValidResponse string        `yaml:"valid_response" json:"valid_response"`
	NextIfValid   domain.Target `yaml:"next_if_valid" json:"next_if_valid"`
	NextIfInvalid domain.Target `yaml:"next_if_invalid" json:"next_if_invalid"`
}

// Next returns the transition target for a validation outcome.
func (r Row) Next(valid bool) domain.Target {
	if valid {
		return r.NextIfValid
	}
	return r.NextIfInvalid
}

// Fallback is the reply sent on the valid branch when the validator returns none.
func (r Row) Fallback() *domain.Reply {
	return domain.TextReply(r.ValidResponse)
}

// Table maps states to rows.
type Table map[domain.State]Row

// Default returns the table compiled into the binary.
func Default() (Table, error) {
	return Parse(defaultTable)
}

// LoadFile reads a table from a YAML file.
func LoadFile(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read action table: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML table and checks its internal consistency.
func Parse(data []byte) (Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse action table: %w", err)
	}
	if err := t.check(); err != nil {
		return nil, err
	}
	return t, nil
}

// Lookup returns the row of state.
func (t Table) Lookup(state domain.State) (Row, bool) {
	row, ok := t[state]
	return row, ok
}

// States returns the table keys in lexical order.
func (t Table) States() []domain.State {
	out := make([]domain.State, 0, len(t))
	for s := range t {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}

// Validators returns the distinct validator names referenced by the table.
func (t Table) Validators() []string {
	var out []string
	for _, row := range t {
		if !slices.Contains(out, row.Validator) {
			out = append(out, row.Validator)
		}
	}
	slices.Sort(out)
	return out
}

// Validate checks that every referenced validator is known to the registry.
func (t Table) Validate(registered func(name string) bool) error {
	var errs []error
	for _, s := range t.States() {
		name := t[s].Validator
		if !registered(name) {
			errs = append(errs, fmt.Errorf("state %q: %w %q", s, domain.ErrUnknownValidator, name))
		}
	}
	return errors.Join(errs...)
}

func (t Table) check() error {
	var errs []error
	for _, s := range domain.OverrideStates {
		if _, ok := t[s]; !ok {
			errs = append(errs, fmt.Errorf("override state %q: %w", s, domain.ErrUnknownState))
		}
	}
	for _, s := range t.States() {
		row := t[s]
		if row.Validator == "" {
			errs = append(errs, fmt.Errorf("state %q: missing validator", s))
		}
		for _, target := range []domain.Target{row.NextIfValid, row.NextIfInvalid} {
			if target.IsZero() {
				errs = append(errs, fmt.Errorf("state %q: missing transition target", s))
				continue
			}
			for _, next := range members(target) {
				if _, ok := t[next]; !ok {
					errs = append(errs, fmt.Errorf("state %q: target %q: %w", s, next, domain.ErrUnknownState))
				}
			}
		}
	}
	return errors.Join(errs...)
}

func members(t domain.Target) []domain.State {
	if t.IsList() {
		return t.Options
	}
	return []domain.State{t.Name}
}
