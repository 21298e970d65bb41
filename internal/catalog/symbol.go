package catalog

import "strings"

// Slot describes one input or output of a symbol.
type Slot struct {
	ID      string `toml:"id" validate:"required"`
	Name    string `toml:"name"`
	Type    string `toml:"type" validate:"required"`
	Multi   bool   `toml:"multi"`
	Default string `toml:"default"`
}

// Symbol is an operator type that can be instantiated into a composition.
type Symbol struct {
	ID          string   `toml:"id" validate:"required"`
	Name        string   `toml:"name" validate:"required"`
	Namespace   string   `toml:"namespace"`
	Description string   `toml:"description"`
	Tags        []string `toml:"tags"`
	Inputs      []Slot   `toml:"inputs" validate:"dive"`
	Outputs     []Slot   `toml:"outputs" validate:"dive"`

	// ValueFor marks the symbol as the value node used when an inlined
	// parameter of this type is extracted into its own operator.
	ValueFor string `toml:"value_for"`
}

// FullName returns namespace.name, or just the name without a namespace.
func (s Symbol) FullName() string {
	if s.Namespace == "" {
		return s.Name
	}
	return s.Namespace + "." + s.Name
}

// Input returns an input slot by id along with its row index.
func (s Symbol) Input(id string) (Slot, int, bool) {
	for i, slot := range s.Inputs {
		if slot.ID == id {
			return slot, i, true
		}
	}
	return Slot{}, -1, false
}

// Output returns an output slot by id.
func (s Symbol) Output(id string) (Slot, bool) {
	for _, slot := range s.Outputs {
		if slot.ID == id {
			return slot, true
		}
	}
	return Slot{}, false
}

// FirstInput returns the first input slot compatible with typ.
func (s Symbol) FirstInput(typ string) (Slot, bool) {
	for _, slot := range s.Inputs {
		if Compatible(slot, typ) {
			return slot, true
		}
	}
	return Slot{}, false
}

// FirstOutput returns the first output slot compatible with typ.
func (s Symbol) FirstOutput(typ string) (Slot, bool) {
	for _, slot := range s.Outputs {
		if Compatible(slot, typ) {
			return slot, true
		}
	}
	return Slot{}, false
}

// Compatible reports whether a slot accepts values of type filter. An
// empty filter accepts everything. A multi-input slot of element type T
// satisfies both "T" and "[]T".
func Compatible(slot Slot, filter string) bool {
	if filter == "" {
		return true
	}
	want := strings.ToLower(filter)
	have := strings.ToLower(slot.Type)
	if have == want {
		return true
	}
	if slot.Multi {
		return have == strings.TrimPrefix(want, "[]")
	}
	return false
}
