package dispatcher

import "sync/atomic"

// Queue counts requests between decode and the end of the acknowledge send.
// It is shared by every connection handler of one process.
type Queue struct {
	depth atomic.Int64
}

// Enter counts one more request and returns the depth including it.
func (q *Queue) Enter() int {
	return int(q.depth.Add(1))
}

// Leave undoes one Enter. The depth never drops below zero.
func (q *Queue) Leave() {
	for {
		cur := q.depth.Load()
		if cur <= 0 {
			return
		}
		if q.depth.CompareAndSwap(cur, cur-1) {
			return
		}
	}
}

func (q *Queue) Depth() int {
	return int(q.depth.Load())
}
