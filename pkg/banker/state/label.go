package state

// ResourceLabel returns the display label of resource type j: A, B, ..., Z,
// AA, AB, ...
func ResourceLabel(j int) string {
	label := ""
	for n := j; n >= 0; n = n/26 - 1 {
		label = string(rune('A'+n%26)) + label
	}
	return label
}

// ResourceLabels returns the labels of the first r resource types.
func ResourceLabels(r int) []string {
	labels := make([]string, r)
	for j := range labels {
		labels[j] = ResourceLabel(j)
	}
	return labels
}
