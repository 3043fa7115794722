package engine

import "maps"

// MergeLabels merges label maps, later maps overriding earlier ones.
func MergeLabels(labelMaps ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, m := range labelMaps {
		maps.Copy(result, m)
	}
	return result
}
