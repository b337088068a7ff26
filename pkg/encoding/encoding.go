// Package encoding holds the frozen categorical code tables the trained
// classifier was fitted against. The order of every label list defines its
// numeric codes, so reordering a table silently breaks inference against the
// existing artifacts.
package encoding

import (
	"github.com/pkg/errors"
)

// ErrUnknownCategory is returned when a label is outside a table's domain.
var ErrUnknownCategory = errors.New("unknown category")

// Table maps the ordered labels of one categorical field to integer codes
// starting at base.
type Table struct {
	field  string
	base   int
	labels []string
}

var (
	// Job codes 0-3.
	Job = newTable("Job", 0,
		"unskilled-nonresident",
		"unskilled-resident",
		"skilled",
		"highly-skilled",
	)

	// Sex codes 0-1.
	Sex = newTable("Sex", 0,
		"male",
		"female",
	)

	// Housing codes 0-2.
	Housing = newTable("Housing", 0,
		"own",
		"rent",
		"free",
	)

	// SavingAccounts codes -1..3, "none" is -1.
	SavingAccounts = newTable("Saving accounts", -1,
		"none",
		"little",
		"moderate",
		"quite-rich",
		"rich",
	)

	// Purpose codes 0-7.
	Purpose = newTable("Purpose", 0,
		"car",
		"furniture/equipment",
		"radio/TV",
		"domestic appliances",
		"repairs",
		"education",
		"business",
		"other",
	)
)

func newTable(field string, base int, labels ...string) *Table {
	return &Table{field: field, base: base, labels: labels}
}

// Field returns the model column name the table encodes.
func (t *Table) Field() string {
	return t.field
}

// Labels returns a copy of the ordered labels.
func (t *Table) Labels() []string {
	out := make([]string, len(t.labels))
	copy(out, t.labels)
	return out
}

// Encode returns the integer code for label.
func (t *Table) Encode(label string) (int, error) {
	for i, l := range t.labels {
		if l == label {
			return t.base + i, nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownCategory, "%s: %q", t.field, label)
}

// Decode returns the label for code.
func (t *Table) Decode(code int) (string, error) {
	i := code - t.base
	if i < 0 || i >= len(t.labels) {
		return "", errors.Wrapf(ErrUnknownCategory, "%s: code %d", t.field, code)
	}
	return t.labels[i], nil
}
