package catalog

import "strings"

// Denylist matches names that contain any disallowed substring,
// case-insensitively. The zero value matches nothing.
type Denylist struct {
	words []string
}

func NewDenylist(words []string) Denylist {
	var d Denylist
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		// An empty entry would match every name.
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		d.words = append(d.words, w)
	}
	return d
}

func (d Denylist) Contains(name string) bool {
	lower := strings.ToLower(name)
	for _, w := range d.words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func (d Denylist) Len() int { return len(d.words) }

func (d Denylist) Words() []string {
	return append([]string{}, d.words...)
}
