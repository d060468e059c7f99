package diff

import (
	"fmt"

	tablecycle "github.com/chipslam-maker/tablecycle"
)

// Finding is one structural difference between two tables. Findings are
// surfaced as warnings by the verify and copy flows, never as failures.
type Finding struct {
	Object string `json:"object" yaml:"object"`
	Detail string `json:"detail" yaml:"detail"`
}

func (f Finding) String() string {
	return fmt.Sprintf("%s: %s", f.Object, f.Detail)
}

// CompareStructure compares the column structure of two tables: presence,
// declared type, computed/persisted flags and formulas. Table names are not
// compared, since rotation intentionally produces differently-named tables
// with identical structure.
func CompareStructure(left, right *tablecycle.TableDescriptor) []Finding {
	var findings []Finding

	rightCols := make(map[string]tablecycle.ColumnDescriptor, len(right.Columns))
	for _, c := range right.Columns {
		rightCols[c.Name] = c
	}

	for _, lc := range left.Columns {
		rc, ok := rightCols[lc.Name]
		if !ok {
			findings = append(findings, Finding{
				Object: "column " + lc.Name,
				Detail: fmt.Sprintf("present in %s but not in %s", left.Name, right.Name),
			})

			continue
		}

		delete(rightCols, lc.Name)

		if lc.DataType != rc.DataType {
			findings = append(findings, Finding{
				Object: "column " + lc.Name,
				Detail: fmt.Sprintf("type differs: %s vs %s", lc.DataType, rc.DataType),
			})
		}

		if lc.IsComputed != rc.IsComputed {
			findings = append(findings, Finding{
				Object: "column " + lc.Name,
				Detail: fmt.Sprintf("computed flag differs: %t vs %t", lc.IsComputed, rc.IsComputed),
			})
		}

		if lc.IsComputed && rc.IsComputed {
			if lc.IsPersisted != rc.IsPersisted {
				findings = append(findings, Finding{
					Object: "column " + lc.Name,
					Detail: fmt.Sprintf("persisted flag differs: %t vs %t", lc.IsPersisted, rc.IsPersisted),
				})
			}

			if lc.Formula != rc.Formula {
				findings = append(findings, Finding{
					Object: "column " + lc.Name,
					Detail: fmt.Sprintf("formula differs: %q vs %q", lc.Formula, rc.Formula),
				})
			}
		}
	}

	for _, rc := range right.Columns {
		if _, stillThere := rightCols[rc.Name]; stillThere {
			findings = append(findings, Finding{
				Object: "column " + rc.Name,
				Detail: fmt.Sprintf("present in %s but not in %s", right.Name, left.Name),
			})
		}
	}

	return findings
}

// CompareIndexes compares two index sets by name, uniqueness and key shape
func CompareIndexes(left, right []tablecycle.IndexDescriptor) []Finding {
	var findings []Finding

	rightIdx := make(map[string]tablecycle.IndexDescriptor, len(right))
	for _, idx := range right {
		rightIdx[idx.Name] = idx
	}

	for _, li := range left {
		ri, ok := rightIdx[li.Name]
		if !ok {
			findings = append(findings, Finding{
				Object: "index " + li.Name,
				Detail: "missing on right side",
			})

			continue
		}

		delete(rightIdx, li.Name)

		if li.IsUnique != ri.IsUnique {
			findings = append(findings, Finding{
				Object: "index " + li.Name,
				Detail: fmt.Sprintf("uniqueness differs: %t vs %t", li.IsUnique, ri.IsUnique),
			})
		}

		if !sameIndexColumns(li.Columns, ri.Columns) {
			findings = append(findings, Finding{
				Object: "index " + li.Name,
				Detail: "key columns differ",
			})
		}
	}

	for _, ri := range right {
		if _, stillThere := rightIdx[ri.Name]; stillThere {
			findings = append(findings, Finding{
				Object: "index " + ri.Name,
				Detail: "missing on left side",
			})
		}
	}

	return findings
}

func sameIndexColumns(left, right []tablecycle.IndexColumn) bool {
	if len(left) != len(right) {
		return false
	}

	for i := range left {
		if left[i] != right[i] {
			return false
		}
	}

	return true
}
