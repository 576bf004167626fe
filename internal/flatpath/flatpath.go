// Package flatpath projects nested string-keyed maps onto dot-joined flat
// maps and reconstructs them. The key-value store persists one entry per
// flattened leaf, so the projection must be lossless for separator-free keys.
package flatpath

import (
	"strconv"
	"strings"
)

// Separator joins path segments in flattened keys.
const Separator = "."

// Flatten descends into nested maps and emits one entry per leaf, keyed by
// the dot-joined path to that leaf. Lists whose elements are all maps are
// flattened per element with the element index as a path segment; any other
// list stays a single leaf value.
func Flatten(root map[string]any) map[string]any {
	flat := make(map[string]any)
	flattenInto(flat, root, "")
	return flat
}

func flattenInto(flat map[string]any, root map[string]any, prefix string) {
	for key, value := range root {
		path := key
		if prefix != "" {
			path = prefix + Separator + key
		}
		switch v := value.(type) {
		case map[string]any:
			flattenInto(flat, v, path)
		case []any:
			if allMaps(v) {
				for i, elem := range v {
					flattenInto(flat, elem.(map[string]any), path+Separator+strconv.Itoa(i))
				}
			} else {
				flat[path] = value
			}
		default:
			flat[path] = value
		}
	}
}

func allMaps(list []any) bool {
	if len(list) == 0 {
		return false
	}
	for _, elem := range list {
		if _, ok := elem.(map[string]any); !ok {
			return false
		}
	}
	return true
}

// Unflatten rebuilds the nested map from a flattened one. For every entry the
// path is split on the separator, intermediate maps are created for all but
// the last segment, and the value is assigned at the last segment.
func Unflatten(flat map[string]any) map[string]any {
	root := make(map[string]any)
	for path, value := range flat {
		segments := strings.Split(path, Separator)
		last := segments[len(segments)-1]
		container := root
		for _, segment := range segments[:len(segments)-1] {
			child, ok := container[segment].(map[string]any)
			if !ok {
				child = make(map[string]any)
				container[segment] = child
			}
			container = child
		}
		container[last] = value
	}
	return root
}
