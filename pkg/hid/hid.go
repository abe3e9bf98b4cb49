// Package hid provides the HID-I2C transport to dock embedded controllers.
package hid

import (
	"fmt"
	"sync"
	"time"

	"github.com/sstallion/go-hid"

	"github.com/dockfw/dockfw/pkg/ec"
)

// The USB identifiers of supported dock EC endpoints.
const (
	VendorID  uint16 = 0x413C
	ProductID uint16 = 0xB06E
)

// The report id of the EC command endpoint.
const reportID byte = 0

// readTimeout bounds a single read style transaction.
const readTimeout = 800 * time.Millisecond

// DeviceInfo describes an attached dock EC endpoint.
type DeviceInfo struct {
	Path   string
	Serial string
}

// Enumerate returns all attached dock EC endpoints matching the given vendor
// and product.
func Enumerate(vid, pid uint16) ([]DeviceInfo, error) {
	// initialize library
	err := hid.Init()
	if err != nil {
		return nil, err
	}

	// walk devices
	var list []DeviceInfo
	err = hid.Enumerate(vid, pid, func(info *hid.DeviceInfo) error {
		list = append(list, DeviceInfo{
			Path:   info.Path,
			Serial: info.SerialNbr,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return list, nil
}

// Transport implements the ec.Transport contract over one HID device. All
// transactions are serialized by an internal mutex.
type Transport struct {
	path   string
	device *hid.Device
	mutex  sync.Mutex
}

// Open opens the dock EC endpoint at the given path.
func Open(path string) (*Transport, error) {
	// initialize library
	err := hid.Init()
	if err != nil {
		return nil, err
	}

	// open device
	device, err := hid.OpenPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	return &Transport{
		path:   path,
		device: device,
	}, nil
}

// Read issues a read style HID-I2C transaction and returns up to length
// response bytes.
func (t *Transport) Read(cmd byte, length int) ([]byte, error) {
	// acquire mutex
	t.mutex.Lock()
	defer t.mutex.Unlock()

	// request the command with the expected response length
	req := []byte{reportID, cmd, byte(length), byte(length >> 8)}
	_, err := t.device.Write(req)
	if err != nil {
		return nil, t.mapError(err)
	}

	// read response
	buf := make([]byte, length)
	n, err := t.device.ReadWithTimeout(buf, readTimeout)
	if err != nil {
		return nil, t.mapError(err)
	}

	return buf[:n], nil
}

// Write issues a write style HID-I2C transaction.
func (t *Transport) Write(data []byte) error {
	// acquire mutex
	t.mutex.Lock()
	defer t.mutex.Unlock()

	// prepend report id
	out := make([]byte, 0, len(data)+1)
	out = append(out, reportID)
	out = append(out, data...)

	// write report
	n, err := t.device.Write(out)
	if err != nil {
		return t.mapError(err)
	}
	if n != len(out) {
		return fmt.Errorf("short write: %d", n)
	}

	return nil
}

// GetReport polls a fixed size status report into the provided buffer.
func (t *Transport) GetReport(id byte, buf []byte, timeout time.Duration) error {
	// acquire mutex
	t.mutex.Lock()
	defer t.mutex.Unlock()

	// poll until the report is available or the timeout has passed
	tmp := make([]byte, len(buf)+1)
	deadline := time.Now().Add(timeout)
	for {
		tmp[0] = id
		n, err := t.device.GetInputReport(tmp)
		if err == nil && n > 1 {
			copy(buf, tmp[1:n])
			return nil
		}
		if time.Now().After(deadline) {
			if err == nil {
				err = fmt.Errorf("timeout")
			}
			return t.mapError(err)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

// Close closes the underlying HID device.
func (t *Transport) Close() error {
	// acquire mutex
	t.mutex.Lock()
	defer t.mutex.Unlock()

	return t.device.Close()
}

// mapError translates a failure on a vanished device node into the engine's
// not found error, the dock may have been unplugged mid transaction.
func (t *Transport) mapError(err error) error {
	if !t.present() {
		return fmt.Errorf("%w: %s", ec.ErrNotFound, err.Error())
	}
	return err
}

// present re-enumerates and checks whether the device node still exists.
func (t *Transport) present() bool {
	found := false
	_ = hid.Enumerate(hid.VendorIDAny, hid.ProductIDAny, func(info *hid.DeviceInfo) error {
		if info.Path == t.path {
			found = true
		}
		return nil
	})
	return found
}
