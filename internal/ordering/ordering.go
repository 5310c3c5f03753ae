// Package ordering sorts student lists for the ?sortBy= query parameter.
//
// The raw query value is resolved once into a SortKey; each key maps to a
// comparator in a table. Unknown values fall back to KeyMatrNum.
package ordering

import (
	"cmp"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/aanand-mishra/cantine-students-api/internal/types"
)

// SortKey is a supported sort order.
type SortKey int

const (
	KeyNone SortKey = iota
	KeyMatrNum
	KeyFirstName
	KeyLastName
)

// ParseSortKey maps a query value to a SortKey. An empty value means "do
// not sort"; anything unrecognised sorts by matrNum.
func ParseSortKey(raw string) SortKey {
	switch raw {
	case "":
		return KeyNone
	case "firstName":
		return KeyFirstName
	case "lastName":
		return KeyLastName
	default:
		return KeyMatrNum
	}
}

func (k SortKey) String() string {
	switch k {
	case KeyNone:
		return "none"
	case KeyFirstName:
		return "firstName"
	case KeyLastName:
		return "lastName"
	default:
		return "matrNum"
	}
}

// Sorter orders students, collating names for one locale.
type Sorter struct {
	tag language.Tag
}

// NewSorter returns a Sorter for the BCP 47 locale (e.g. "en", "de").
// Unparseable locales fall back to the root collation order.
func NewSorter(locale string) *Sorter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Und
	}
	return &Sorter{tag: tag}
}

type compareFunc func(a, b types.Student) int

// Sort returns students ordered by key. KeyNone returns the input as is;
// every other key sorts a copy, stably, leaving the input untouched.
func (s *Sorter) Sort(students []types.Student, key SortKey) []types.Student {
	if key == KeyNone {
		return students
	}

	// collate.Collator is not safe for concurrent use, so build one per call.
	col := collate.New(s.tag)

	comparators := map[SortKey]compareFunc{
		KeyFirstName: func(a, b types.Student) int {
			return compareNames(col, a.FirstName, b.FirstName)
		},
		KeyLastName: func(a, b types.Student) int {
			return compareNames(col, a.LastName, b.LastName)
		},
		KeyMatrNum: byMatrNum,
	}

	compare, ok := comparators[key]
	if !ok {
		compare = byMatrNum
	}

	sorted := slices.Clone(students)
	slices.SortStableFunc(sorted, compare)
	return sorted
}

func byMatrNum(a, b types.Student) int {
	return cmp.Compare(a.MatrNum, b.MatrNum)
}

// compareNames puts null names before any non-null name.
func compareNames(col *collate.Collator, a, b *string) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return col.CompareString(*a, *b)
}
