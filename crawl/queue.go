// Package crawl: ordered URL set.
package crawl

// Queue keeps discovered URLs in first-seen order, ignoring repeats.
type Queue struct {
	items []string
	seen  map[string]bool
}

// NewQueue creates an empty Queue.
func NewQueue() *Queue {
	return &Queue{seen: make(map[string]bool)}
}

// Add appends url unless it was added before. It reports whether url was new.
func (q *Queue) Add(url string) bool {
	if q.seen[url] {
		return false
	}
	q.seen[url] = true
	q.items = append(q.items, url)
	return true
}

// Len returns the number of distinct URLs.
func (q *Queue) Len() int {
	return len(q.items)
}

// All returns the URLs in the order they were first added.
func (q *Queue) All() []string {
	return q.items
}
