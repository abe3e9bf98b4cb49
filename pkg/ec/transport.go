package ec

import (
	"time"
)

// Transport provides the mechanism to exchange commands with the dock EC over
// the HID-I2C channel. Implementations must serialize concurrent access, the
// engine assumes single writer semantics.
type Transport interface {
	// Read issues a read style transaction for the given command and returns
	// up to length response bytes.
	Read(cmd byte, length int) ([]byte, error)

	// Write issues a write style transaction with the given payload. The
	// payload must be at least two bytes.
	Write(data []byte) error

	// GetReport polls a fixed size status report into the provided buffer.
	GetReport(reportID byte, buf []byte, timeout time.Duration) error
}
