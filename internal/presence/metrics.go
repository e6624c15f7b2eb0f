package presence

import "sync/atomic"

// ListenerMetrics counts what happened to received datagrams.
type ListenerMetrics struct {
	received   int64
	accepted   int64
	discarded  int64
	rejected   int64
	readErrors int64
}

func (m *ListenerMetrics) recordReceived()  { atomic.AddInt64(&m.received, 1) }
func (m *ListenerMetrics) recordAccepted()  { atomic.AddInt64(&m.accepted, 1) }
func (m *ListenerMetrics) recordDiscarded() { atomic.AddInt64(&m.discarded, 1) }
func (m *ListenerMetrics) recordRejected()  { atomic.AddInt64(&m.rejected, 1) }
func (m *ListenerMetrics) recordReadError() { atomic.AddInt64(&m.readErrors, 1) }

func (m *ListenerMetrics) GetStats() map[string]int64 {
	return map[string]int64{
		"received":    atomic.LoadInt64(&m.received),
		"accepted":    atomic.LoadInt64(&m.accepted),
		"discarded":   atomic.LoadInt64(&m.discarded),
		"rejected":    atomic.LoadInt64(&m.rejected),
		"read_errors": atomic.LoadInt64(&m.readErrors),
	}
}

// BroadcasterMetrics counts heartbeat sends.
type BroadcasterMetrics struct {
	sent   int64
	failed int64
}

func (m *BroadcasterMetrics) recordSent()   { atomic.AddInt64(&m.sent, 1) }
func (m *BroadcasterMetrics) recordFailed() { atomic.AddInt64(&m.failed, 1) }

func (m *BroadcasterMetrics) GetStats() map[string]int64 {
	return map[string]int64{
		"sent":   atomic.LoadInt64(&m.sent),
		"failed": atomic.LoadInt64(&m.failed),
	}
}
