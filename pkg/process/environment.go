package process

import (
	"runtime"
	"sort"
	"strings"
)

// MergeEnvironment combines KEY=VALUE lists. Later lists override earlier
// ones; the position of the first occurrence of a key is kept. Keys compare
// case-insensitively on Windows.
func MergeEnvironment(base []string, overrides ...[]string) []string {
	result := make([]string, 0, len(base))
	index := make(map[string]int, len(base))

	add := func(entry string) {
		key, _, ok := strings.Cut(entry, "=")
		if !ok {
			return
		}
		k := normalizeKey(key)
		if i, exists := index[k]; exists {
			result[i] = entry
			return
		}
		index[k] = len(result)
		result = append(result, entry)
	}

	for _, entry := range base {
		add(entry)
	}
	for _, list := range overrides {
		for _, entry := range list {
			add(entry)
		}
	}
	return result
}

// EnvironmentFromMap renders vars as sorted KEY=VALUE entries
func EnvironmentFromMap(vars map[string]string) []string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]string, 0, len(keys))
	for _, k := range keys {
		result = append(result, k+"="+vars[k])
	}
	return result
}

// LookupEnvironment returns the value of key in env
func LookupEnvironment(env []string, key string) (string, bool) {
	want := normalizeKey(key)
	value, found := "", false
	for _, entry := range env {
		k, v, ok := strings.Cut(entry, "=")
		if ok && normalizeKey(k) == want {
			value, found = v, true
		}
	}
	return value, found
}

func normalizeKey(key string) string {
	if runtime.GOOS == "windows" {
		return strings.ToUpper(key)
	}
	return key
}
