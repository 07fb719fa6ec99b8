//go:build unit || e2e

package testutil

import (
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// DtoMap turns a request DTO into its JSON object form so tests can send
// payloads the typed DTO cannot express.
func DtoMap(t *testing.T, v any, muts ...func(map[string]any)) map[string]any {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	for _, f := range muts {
		f(m)
	}
	return m
}

// Field sets key to value, or deletes it when value is nil. Dotted keys walk
// nested objects and arrays, e.g. "lines.0.quantity". Missing paths are ignored.
func Field(key string, value any) func(m map[string]any) {
	return func(m map[string]any) {
		path := strings.Split(key, ".")
		var node any = m
		for _, p := range path[:len(path)-1] {
			node = child(node, p)
			if node == nil {
				return
			}
		}

		last := path[len(path)-1]
		switch n := node.(type) {
		case map[string]any:
			if value == nil {
				delete(n, last)
			} else {
				n[last] = value
			}
		case []any:
			if i, ok := index(n, last); ok {
				n[i] = value
			}
		}
	}
}

func child(node any, key string) any {
	switch n := node.(type) {
	case map[string]any:
		return n[key]
	case []any:
		if i, ok := index(n, key); ok {
			return n[i]
		}
	}
	return nil
}

func index(s []any, key string) (int, bool) {
	i, err := strconv.Atoi(key)
	if err != nil || i < 0 || i >= len(s) {
		return 0, false
	}
	return i, true
}
