package planner

// Ring is the fixed-capacity circular buffer of planner blocks:
// head is the producer's speculative-write slot, tail is the
// block currently (or next) executing. Empty iff head==tail; full iff
// nextIndex(head)==tail, which is exactly the ring's next_buffer_head.
type Ring struct {
	blocks [ringCapacity]Block
	head   int
	tail   int
}

func nextIndex(i int) int { return (i + 1) % ringCapacity }
func prevIndex(i int) int { return (i - 1 + ringCapacity) % ringCapacity }

// Empty reports whether no block is queued or executing.
func (r *Ring) Empty() bool { return r.head == r.tail }

// Full reports whether the speculative next_buffer_head slot would
// collide with the block still awaiting consumption at tail.
func (r *Ring) Full() bool { return nextIndex(r.head) == r.tail }

// Len returns the number of blocks currently queued (including the one
// at tail, whether or not it has started executing).
func (r *Ring) Len() int {
	if r.head >= r.tail {
		return r.head - r.tail
	}
	return ringCapacity - r.tail + r.head
}

// HeadBlock returns the speculative slot the planner is currently
// constructing. It is not visible to the consumer until Commit advances
// head past it.
func (r *Ring) HeadBlock() *Block { return &r.blocks[r.head] }

// Commit publishes the block at HeadBlock, advancing head.
func (r *Ring) Commit() { r.head = nextIndex(r.head) }

// TailBlock returns the block the stepper is consuming, or nil if the
// ring is empty. Its EntrySpeedSqr must never be mutated once the
// stepper has read it - enforced by
// convention: recompute never visits index tail.
func (r *Ring) TailBlock() *Block {
	if r.Empty() {
		return nil
	}
	return &r.blocks[r.tail]
}

// PeekAfterTail returns the block immediately following tail - the one
// prep should treat as supplying the active block's exit speed - or nil
// if tail is the only block currently queued.
func (r *Ring) PeekAfterTail() *Block {
	if r.Empty() {
		return nil
	}
	i := nextIndex(r.tail)
	if i == r.head {
		return nil
	}
	return &r.blocks[i]
}

// Advance frees the tail block once the stepper has fully consumed it.
func (r *Ring) Advance() {
	if !r.Empty() {
		r.tail = nextIndex(r.tail)
	}
}

// Reset drops every queued block, used on abort/reset.
func (r *Ring) Reset() {
	r.head = 0
	r.tail = 0
}

// forEachQueued walks every index strictly between tail and head
// (exclusive of tail, the frozen executing block) from tail+1 up to and
// including the most recently committed block. backward=true walks
// from the newest block back toward tail+1 instead.
func (r *Ring) forEachQueued(backward bool, fn func(b *Block)) {
	if r.Empty() {
		return
	}
	if !backward {
		for i := nextIndex(r.tail); i != r.head; i = nextIndex(i) {
			fn(&r.blocks[i])
		}
		return
	}
	for i := prevIndex(r.head); i != r.tail; i = prevIndex(i) {
		fn(&r.blocks[i])
	}
}
