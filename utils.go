package soapinvoker

import (
	"sort"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

func generateID(prefix string) string {
	return prefix + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func eachSortedKeyValue(m map[string]string, fn func(key, value string)) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fn(k, m[k])
	}
}

// isNCName reports whether s is a non-colonized XML name.
func isNCName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i == 0:
			return false
		case r == '-' || r == '.' || r == 0xB7 || unicode.IsDigit(r) || unicode.In(r, unicode.Mn, unicode.Mc):
		default:
			return false
		}
	}
	return true
}
