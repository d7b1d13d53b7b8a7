package cache

// LRUList is a doubly-linked list of keyed values ordered by recency.
// The most recently used node sits right after head. It is not safe for
// concurrent use; TableCache guards it with its own mutex.
type LRUList[V any] struct {
	head  *LRUNode[V]
	tail  *LRUNode[V]
	nodes map[string]*LRUNode[V]
	size  int
}

// LRUNode represents a node in the LRU list
type LRUNode[V any] struct {
	key        string
	value      V
	prev, next *LRUNode[V]
}

// NewLRUList creates a new LRU list
func NewLRUList[V any]() *LRUList[V] {
	head := &LRUNode[V]{}
	tail := &LRUNode[V]{}
	head.next = tail
	tail.prev = head

	return &LRUList[V]{
		head:  head,
		tail:  tail,
		nodes: make(map[string]*LRUNode[V]),
	}
}

// Get returns the value for key and marks it most recently used
func (l *LRUList[V]) Get(key string) (V, bool) {
	node, exists := l.nodes[key]
	if !exists {
		var zero V
		return zero, false
	}
	l.moveToFront(node)
	return node.value, true
}

// Peek returns the value for key without touching its recency
func (l *LRUList[V]) Peek(key string) (V, bool) {
	node, exists := l.nodes[key]
	if !exists {
		var zero V
		return zero, false
	}
	return node.value, true
}

// AddToFront inserts or replaces key and makes it most recently used
func (l *LRUList[V]) AddToFront(key string, value V) {
	if node, exists := l.nodes[key]; exists {
		node.value = value
		l.moveToFront(node)
		return
	}

	node := &LRUNode[V]{key: key, value: value}
	l.nodes[key] = node
	l.insertAfterHead(node)
	l.size++
}

// Remove removes a key from the LRU list
func (l *LRUList[V]) Remove(key string) bool {
	node, exists := l.nodes[key]
	if !exists {
		return false
	}
	l.unlink(node)
	delete(l.nodes, key)
	l.size--
	return true
}

// RemoveOldest removes and returns the least recently used entry
func (l *LRUList[V]) RemoveOldest() (string, V, bool) {
	if l.size == 0 {
		var zero V
		return "", zero, false
	}

	oldest := l.tail.prev
	l.unlink(oldest)
	delete(l.nodes, oldest.key)
	l.size--

	return oldest.key, oldest.value, true
}

// Keys returns the keys from most to least recently used
func (l *LRUList[V]) Keys() []string {
	keys := make([]string, 0, l.size)
	for n := l.head.next; n != l.tail; n = n.next {
		keys = append(keys, n.key)
	}
	return keys
}

// Clear drops every node
func (l *LRUList[V]) Clear() {
	l.head.next = l.tail
	l.tail.prev = l.head
	l.nodes = make(map[string]*LRUNode[V])
	l.size = 0
}

// Size returns the current size of the LRU list
func (l *LRUList[V]) Size() int {
	return l.size
}

func (l *LRUList[V]) moveToFront(node *LRUNode[V]) {
	l.unlink(node)
	l.insertAfterHead(node)
}

func (l *LRUList[V]) insertAfterHead(node *LRUNode[V]) {
	node.next = l.head.next
	node.prev = l.head
	l.head.next.prev = node
	l.head.next = node
}

func (l *LRUList[V]) unlink(node *LRUNode[V]) {
	node.prev.next = node.next
	node.next.prev = node.prev
}
