package ec

import (
	"time"
)

// mockTransport implements Transport against canned responses.
type mockTransport struct {
	reads     map[byte][][]byte
	readErr   map[byte]error
	readCount map[byte]int
	writes    [][]byte
	writeErr  error
	reports   [][]byte
	slept     []time.Duration
}

func newMockTransport() *mockTransport {
	return &mockTransport{
		reads:     map[byte][][]byte{},
		readErr:   map[byte]error{},
		readCount: map[byte]int{},
	}
}

// respond queues a response for the given command. The last queued response
// is repeated once the queue is drained.
func (t *mockTransport) respond(cmd byte, data []byte) {
	t.reads[cmd] = append(t.reads[cmd], data)
}

func (t *mockTransport) Read(cmd byte, length int) ([]byte, error) {
	t.readCount[cmd]++
	if err := t.readErr[cmd]; err != nil {
		return nil, err
	}
	queue := t.reads[cmd]
	if len(queue) == 0 {
		return nil, ErrNotFound
	}
	data := queue[0]
	if len(queue) > 1 {
		t.reads[cmd] = queue[1:]
	}
	if len(data) > length {
		data = data[:length]
	}
	return data, nil
}

func (t *mockTransport) Write(data []byte) error {
	if t.writeErr != nil {
		return t.writeErr
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	t.writes = append(t.writes, buf)
	return nil
}

func (t *mockTransport) GetReport(_ byte, buf []byte, _ time.Duration) error {
	if len(t.reports) == 0 {
		return ErrNotFound
	}
	copy(buf, t.reports[0])
	t.reports = t.reports[1:]
	return nil
}

// newTestEC creates an engine with instant sleeps and retry spacing.
func newTestEC(transport *mockTransport) *EC {
	e := New(transport)
	e.retryDelay = 0
	e.sleep = func(d time.Duration) {
		transport.slept = append(transport.slept, d)
	}
	return e
}
