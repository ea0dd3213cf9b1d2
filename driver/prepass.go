package driver

import "github.com/nchfmt/nch/errs"

// Prepass is a read-only walk, run before the real encode, that records
// the ordered field-name list observed for every (struct name, variant)
// pair and fails fast if the same pair is ever seen with two different
// field lists. A host that skips fields conditionally under one struct
// name is a bug this pass exists to catch before any bytes are written.
type Prepass struct {
	layouts map[string][]string
}

// NewPrepass returns an empty Prepass.
func NewPrepass() *Prepass {
	return &Prepass{layouts: make(map[string][]string)}
}

// Observe records name's (or name+variant's) field list, or verifies it
// against a previously recorded one.
func (p *Prepass) Observe(name, variant string, fieldNames []string) error {
	key := layoutKey(name, variant)

	if existing, ok := p.layouts[key]; ok {
		if !sameNames(existing, fieldNames) {
			return errs.DuplicateLayout(name, variant)
		}

		return nil
	}

	stored := make([]string, len(fieldNames))
	copy(stored, fieldNames)
	p.layouts[key] = stored

	return nil
}

// LayoutFor returns the field list previously observed for (name,
// variant), if any.
func (p *Prepass) LayoutFor(name, variant string) ([]string, bool) {
	names, ok := p.layouts[layoutKey(name, variant)]
	return names, ok
}

func layoutKey(name, variant string) string {
	if variant == "" {
		return name
	}

	return name + "\x00" + variant
}

func sameNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
