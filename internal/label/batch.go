package label

// Group splits items into consecutive groups of capacity, keeping order. The last group
// holds the remainder. No placeholders are added for missing slots.
func Group[T any](items []T, capacity int) ([][]T, error) {
	if capacity <= 0 {
		return nil, ConfigurationError("group", "capacity %d must be positive", capacity)
	}
	groups := make([][]T, 0, GroupCount(len(items), capacity))
	for start := 0; start < len(items); start += capacity {
		end := start + capacity
		if end > len(items) {
			end = len(items)
		}
		groups = append(groups, items[start:end:end])
	}
	return groups, nil
}

// GroupCount is ceil(n / capacity).
func GroupCount(n, capacity int) int {
	if capacity <= 0 || n <= 0 {
		return 0
	}
	return (n + capacity - 1) / capacity
}
