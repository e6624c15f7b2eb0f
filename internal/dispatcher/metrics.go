package dispatcher

import "sync/atomic"

// Metrics counts connection outcomes.
type Metrics struct {
	accepted     int64
	acknowledged int64
	malformed    int64
	timeouts     int64
	sendFailures int64
}

func (m *Metrics) recordAccepted()     { atomic.AddInt64(&m.accepted, 1) }
func (m *Metrics) recordAcknowledged() { atomic.AddInt64(&m.acknowledged, 1) }
func (m *Metrics) recordMalformed()    { atomic.AddInt64(&m.malformed, 1) }
func (m *Metrics) recordTimeout()      { atomic.AddInt64(&m.timeouts, 1) }
func (m *Metrics) recordSendFailure()  { atomic.AddInt64(&m.sendFailures, 1) }

func (m *Metrics) GetStats() map[string]int64 {
	return map[string]int64{
		"accepted":      atomic.LoadInt64(&m.accepted),
		"acknowledged":  atomic.LoadInt64(&m.acknowledged),
		"malformed":     atomic.LoadInt64(&m.malformed),
		"timeouts":      atomic.LoadInt64(&m.timeouts),
		"send_failures": atomic.LoadInt64(&m.sendFailures),
	}
}
