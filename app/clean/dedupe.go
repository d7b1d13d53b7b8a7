package clean

import "datasift/app/table"

// Dedupe drops rows equal to an earlier row in every column (missing equals
// missing) and returns the table and the number of rows dropped.
func Dedupe(t *table.Table) (*table.Table, int) {
	seen := make(map[string]struct{}, t.NumRows())
	keep := make([]int, 0, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		key := t.RowKey(i)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keep = append(keep, i)
	}
	if len(keep) == t.NumRows() {
		return t, 0
	}
	return t.Take(keep), t.NumRows() - len(keep)
}
