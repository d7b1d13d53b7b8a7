package clean

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	disallowed    = regexp.MustCompile(`[^0-9A-Za-z_]`)
)

// NormalizeName canonicalizes a column name: surrounding whitespace is
// trimmed, the name is lowercased, interior whitespace runs become a single
// underscore and anything outside [0-9A-Za-z_] is dropped.
//
//	NormalizeName(" Date Joined ") == "date_joined"
func NormalizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = whitespaceRun.ReplaceAllString(s, "_")
	return disallowed.ReplaceAllString(s, "")
}

// CollisionPolicy decides what happens when two columns normalize to the
// same name
type CollisionPolicy string

const (
	// CollisionRename suffixes later duplicates with _1, _2, ...
	CollisionRename CollisionPolicy = "rename"
	// CollisionReject fails with a *NameCollisionError
	CollisionReject CollisionPolicy = "reject"
)

// ParseCollisionPolicy accepts "rename" and "reject"; empty means rename.
func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch CollisionPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", CollisionRename:
		return CollisionRename, nil
	case CollisionReject:
		return CollisionReject, nil
	}
	return "", fmt.Errorf("unknown name collision policy %q", s)
}

// NameCollisionError reports columns that normalize to the same name
type NameCollisionError struct {
	Name    string
	Columns []string
}

func (e *NameCollisionError) Error() string {
	return fmt.Sprintf("columns %q all normalize to %q", e.Columns, e.Name)
}

// Rename records a column whose name changed during normalization
type Rename struct {
	From string
	To   string
}

// NormalizeNames normalizes every name and resolves collisions per policy.
// The first column to claim a name keeps it.
func NormalizeNames(names []string, policy CollisionPolicy) ([]string, []Rename, error) {
	out := make([]string, len(names))
	owner := make(map[string]int, len(names))
	var renames []Rename

	for i, name := range names {
		n := NormalizeName(name)
		if first, taken := owner[n]; taken {
			if policy == CollisionReject {
				return nil, nil, &NameCollisionError{Name: n, Columns: []string{names[first], name}}
			}
			base := n
			for k := 1; taken; k++ {
				n = base + "_" + strconv.Itoa(k)
				_, taken = owner[n]
			}
		}
		owner[n] = i
		out[i] = n
		if n != name {
			renames = append(renames, Rename{From: name, To: n})
		}
	}
	return out, renames, nil
}
