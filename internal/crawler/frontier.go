package crawler

import "errors"

// ErrEmptyFrontier is returned by Dequeue when no URL is pending.
var ErrEmptyFrontier = errors.New("frontier is empty")

// Frontier is a FIFO queue of pending URLs that never holds the same URL twice.
//
// The order slice preserves discovery order; the members set makes Enqueue and
// Contains O(1). A URL leaves the members set when it is dequeued, so the set
// always mirrors the pending entries exactly.
type Frontier struct {
	// order holds pending URLs; head indexes the front.
	order []string
	head  int

	members map[string]struct{}
}

// NewFrontier returns an empty Frontier.
func NewFrontier() *Frontier {
	return &Frontier{
		order:   make([]string, 0),
		members: make(map[string]struct{}),
	}
}

// Enqueue appends url unless it is already pending. It reports whether url was added.
func (f *Frontier) Enqueue(url string) bool {
	if _, ok := f.members[url]; ok {
		return false
	}
	f.members[url] = struct{}{}
	f.order = append(f.order, url)
	return true
}

// Dequeue removes and returns the URL at the front.
func (f *Frontier) Dequeue() (string, error) {
	if f.IsEmpty() {
		return "", ErrEmptyFrontier
	}

	url := f.order[f.head]
	f.order[f.head] = ""
	f.head++
	delete(f.members, url)

	// Compact once the consumed prefix dominates, so long runs don't
	// keep the whole history reachable.
	if f.head > 64 && f.head*2 >= len(f.order) {
		f.order = append(make([]string, 0, len(f.order)-f.head), f.order[f.head:]...)
		f.head = 0
	}

	return url, nil
}

// Contains reports whether url is pending.
func (f *Frontier) Contains(url string) bool {
	_, ok := f.members[url]
	return ok
}

// IsEmpty reports whether no URL is pending.
func (f *Frontier) IsEmpty() bool {
	return f.Len() == 0
}

// Len returns the number of pending URLs.
func (f *Frontier) Len() int {
	return len(f.order) - f.head
}

// Items returns a copy of the pending URLs in queue order.
func (f *Frontier) Items() []string {
	items := make([]string, f.Len())
	copy(items, f.order[f.head:])
	return items
}
