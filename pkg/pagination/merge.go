package pagination

import "strconv"

// Collection is one fetched page of items, or a page still being fetched.
// A pending collection is "unknown", not "empty".
type Collection[T any] struct {
	Items []T
	Ready bool
}

// Ready wraps fetched items.
func Ready[T any](items []T) Collection[T] {
	return Collection[T]{Items: items, Ready: true}
}

// Pending returns a collection whose fetch has not completed.
func Pending[T any]() Collection[T] {
	return Collection[T]{}
}

// MergedCount is the de-duplicated size of two collections.
type MergedCount struct {
	Count     int
	Truncated bool
	Available bool
	limit     int
}

// Merge counts the distinct ids across a and b. The count is Truncated once
// it reaches limit: the true total beyond the fetched pages is unknown.
func Merge[T any](a, b Collection[T], id func(T) string, limit int) MergedCount {
	if !a.Ready || !b.Ready {
		return MergedCount{limit: limit}
	}

	seen := make(map[string]struct{}, len(a.Items)+len(b.Items))
	for _, item := range a.Items {
		seen[id(item)] = struct{}{}
	}
	for _, item := range b.Items {
		seen[id(item)] = struct{}{}
	}

	count := len(seen)
	return MergedCount{
		Count:     count,
		Truncated: count >= limit,
		Available: true,
		limit:     limit,
	}
}

// Display renders the count, "<limit-1>+" once truncated.
func (m MergedCount) Display() string {
	switch {
	case !m.Available:
		return "Loading…"
	case m.Truncated:
		return strconv.Itoa(m.limit-1) + "+"
	default:
		return strconv.Itoa(m.Count)
	}
}

// CountLabel renders the size of a single fetched page; a full page is
// shown as "<limit-1>+".
func CountLabel(n, limit int) string {
	if n >= limit {
		return strconv.Itoa(limit-1) + "+"
	}
	return strconv.Itoa(n)
}
