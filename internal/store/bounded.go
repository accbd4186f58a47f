package store

// Bounded is a fixed-capacity deque ordered newest-first. Prepending to a full
// deque overwrites the oldest slot, so insertion order is eviction order and
// the backing array never grows past its capacity.
//
// Bounded is not safe for concurrent use; State guards it.
type Bounded[T any] struct {
	slots []T
	head  int // slot holding the newest element
	size  int
}

// NewBounded allocates a deque holding at most capacity elements.
// A non-positive capacity is treated as 1.
func NewBounded[T any](capacity int) *Bounded[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Bounded[T]{slots: make([]T, capacity)}
}

// Cap returns the maximum number of retained elements.
func (b *Bounded[T]) Cap() int { return len(b.slots) }

// Len returns the number of retained elements.
func (b *Bounded[T]) Len() int { return b.size }

// Prepend inserts v as the newest element. It reports whether the oldest
// element was evicted to make room.
func (b *Bounded[T]) Prepend(v T) bool {
	c := len(b.slots)
	b.head = (b.head - 1 + c) % c
	b.slots[b.head] = v
	if b.size < c {
		b.size++
		return false
	}
	return true
}

// At returns the i-th newest element (0 is the newest).
func (b *Bounded[T]) At(i int) (T, bool) {
	var zero T
	if i < 0 || i >= b.size {
		return zero, false
	}
	return b.slots[(b.head+i)%len(b.slots)], true
}

// Items returns a newest-first copy of the retained elements.
func (b *Bounded[T]) Items() []T {
	out := make([]T, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.slots[(b.head+i)%len(b.slots)]
	}
	return out
}

// Replace discards the current contents and loads items, which must already
// be newest-first. Only the first Cap() items are kept.
func (b *Bounded[T]) Replace(items []T) {
	var zero T
	for i := range b.slots {
		b.slots[i] = zero // release references held by evicted elements
	}
	n := len(items)
	if n > len(b.slots) {
		n = len(b.slots)
	}
	copy(b.slots, items[:n])
	b.head = 0
	b.size = n
}
