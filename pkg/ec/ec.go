// Package ec implements the command and transfer protocol of the embedded
// controller found in EC fronted USB docking stations. The EC relays commands
// to a variable set of sub devices that are each independently firmware
// updatable.
package ec

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// The EC HID-I2C command identifiers.
const (
	cmdSetDockPkg    byte = 0x01
	cmdGetDockInfo   byte = 0x02
	cmdGetDockData   byte = 0x03
	cmdGetDockType   byte = 0x05
	cmdSetModifyLock byte = 0x0A
	cmdSetPassive    byte = 0x0D
	cmdFwUpdate      byte = 0x0F
)

// DockTypeK2 is the base type of K2 class docks, the only type supported by
// this engine.
const DockTypeK2 uint8 = 0x07

// SKU classifies the dock hardware variant by the present high speed link
// controller.
type SKU uint8

// The available SKUs.
const (
	SKUDPAlt SKU = 1
	SKUTBT4  SKU = 2
	SKUTBT5  SKU = 3
)

// String implements the fmt.Stringer interface.
func (s SKU) String() string {
	switch s {
	case SKUDPAlt:
		return "DP-Alt"
	case SKUTBT4:
		return "TBT4"
	case SKUTBT5:
		return "TBT5"
	default:
		return "Unknown"
	}
}

// The discovery retry parameters.
const (
	discoveryAttempts = 10
	discoveryDelay    = 2 * time.Second
)

// EC drives the command and transfer protocol of one dock embedded
// controller. All operations are sequential and blocking, a single logical
// session per dock is assumed.
type EC struct {
	transport Transport
	log       zerolog.Logger

	dockType uint8
	sku      SKU
	data     *DockData
	info     *DockInfo
	owned    bool

	// sleep and retryDelay are configurable for tests
	sleep      func(time.Duration)
	retryDelay time.Duration
}

// New creates a new EC engine on the provided transport.
func New(transport Transport) *EC {
	return &EC{
		transport:  transport,
		log:        zerolog.Nop(),
		sleep:      time.Sleep,
		retryDelay: discoveryDelay,
	}
}

// SetLogger sets the logger used by the engine.
func (e *EC) SetLogger(log zerolog.Logger) {
	e.log = log
}

// SetSleep replaces the function used for settle delays, primarily useful in
// tests. Transfers block the calling goroutine for up to 75 seconds per page
// otherwise.
func (e *EC) SetSleep(sleep func(time.Duration)) {
	e.sleep = sleep
}

func (e *EC) read(op string, cmd byte, length int) ([]byte, error) {
	data, err := e.transport.Read(cmd, length)
	if err != nil {
		return nil, fmt.Errorf("%s: read over HID-I2C failed: %w", op, err)
	}
	return data, nil
}

func (e *EC) write(op string, buf []byte) error {
	// the EC requires at least command and length
	if len(buf) < 2 {
		return fmt.Errorf("%s: write of %d bytes is too short", op, len(buf))
	}

	err := e.transport.Write(buf)
	if err != nil {
		return fmt.Errorf("%s: write over HID-I2C failed: %w", op, err)
	}

	return nil
}

// QueryDockType queries the dock base type. A type other than K2 yields
// ErrUnsupportedDock which callers must treat as fatal, not as a transport
// fault to retry.
func (e *EC) QueryDockType() (uint8, error) {
	// expect response of 1 byte
	res, err := e.read("query dock type", cmdGetDockType, 1)
	if err != nil {
		return 0, err
	}
	if len(res) != 1 {
		return 0, &SizeMismatchError{What: "dock type", Expected: 1, Actual: len(res)}
	}

	// keep type
	e.dockType = res[0]

	// check type
	if e.dockType != DockTypeK2 {
		return e.dockType, fmt.Errorf("%w: %#x", ErrUnsupportedDock, e.dockType)
	}

	return e.dockType, nil
}

// queryDockData fetches and replaces the dock identity snapshot.
func (e *EC) queryDockData() error {
	res, err := e.read("query dock data", cmdGetDockData, DockDataSize)
	if err != nil {
		return err
	}

	data, err := ParseDockData(res)
	if err != nil {
		return fmt.Errorf("query dock data: %w", err)
	}

	// replace snapshot
	e.data = data

	return nil
}

// queryDockInfo fetches and replaces the dock topology snapshot. A table
// reporting zero devices yields ErrNotReady, the designated retryable
// condition.
func (e *EC) queryDockInfo() error {
	res, err := e.read("query dock info", cmdGetDockInfo, DockInfoSize)
	if err != nil {
		return err
	}

	info, err := ParseDockInfo(res)
	if err != nil {
		return fmt.Errorf("query dock info: %w", err)
	}

	// a fully booted dock always reports at least the EC itself
	if info.TotalDevices == 0 {
		return ErrNotReady
	}

	// replace snapshot
	e.info = info

	e.log.Info().Msgf("found %d devices [%d->%d]", info.TotalDevices, info.FirstIndex, info.LastIndex)

	// log the inventory, unrecognized entries are skipped but still count
	// towards the total
	for i := 0; i < int(info.TotalDevices) && i < maxDeviceEntries; i++ {
		entry := info.Devices[i]
		name := entry.Name()
		if name == "" {
			e.log.Warn().Msgf("missing device name, DevType: %d, SubType: %d, Inst: %d",
				entry.Type, entry.SubType, entry.Instance)
			continue
		}
		e.log.Debug().Msgf("#%d: %s located in %s (A: %d I: %d), version: %s",
			i, name, entry.Location, entry.Arg, entry.Instance, FormatVersion(entry.Version))
	}

	return nil
}

// deriveSKU classifies the dock variant from the already fetched topology.
func (e *EC) deriveSKU() error {
	// check type
	if e.dockType != DockTypeK2 {
		return fmt.Errorf("%w: %#x", ErrUnsupportedDock, e.dockType)
	}

	// the highest class link controller wins
	if e.FindDevice(DeviceTypeTBT, SubTypeTBTBarlow, 0) != nil {
		e.sku = SKUTBT5
		return nil
	}
	if e.FindDevice(DeviceTypeTBT, SubTypeTBTGoshen, 0) != nil {
		e.sku = SKUTBT4
		return nil
	}
	e.sku = SKUDPAlt

	return nil
}

// queryCycle runs identity, topology and SKU derivation as one atomic
// retryable unit.
func (e *EC) queryCycle() error {
	// dock data
	err := e.queryDockData()
	if err != nil {
		return err
	}

	// dock info
	err = e.queryDockInfo()
	if err != nil {
		return err
	}

	// set sku, must come after dock info
	err = e.deriveSKU()
	if err != nil {
		return err
	}

	return nil
}

// Setup performs the discovery cycle: dock type first, then the retried
// identity and topology queries. A booting dock is polled up to ten times
// with a fixed spacing.
func (e *EC) Setup() error {
	// get dock type
	_, err := e.QueryDockType()
	if err != nil {
		return err
	}

	// if the query looks bad, wait a few seconds and retry
	err = retry(e.queryCycle, discoveryAttempts, e.retryDelay, func(err error) bool {
		return errors.Is(err, ErrNotReady)
	})
	if err != nil {
		return fmt.Errorf("failed to query dock ec: %w", err)
	}

	return nil
}

// Reload re-runs the retried query cycle and replaces all snapshots.
func (e *EC) Reload() error {
	err := retry(e.queryCycle, discoveryAttempts, e.retryDelay, func(err error) bool {
		return errors.Is(err, ErrNotReady)
	})
	if err != nil {
		return fmt.Errorf("failed to query dock ec: %w", err)
	}

	return nil
}

// FindDevice scans the topology for the addressed component. A sub type of
// zero matches any sub type. The instance is only compared for power delivery
// devices, all other device classes are singletons per dock.
func (e *EC) FindDevice(deviceType DeviceType, subType, instance uint8) *DeviceEntry {
	// check topology
	if e.info == nil {
		return nil
	}

	for i := 0; i < int(e.info.TotalDevices) && i < maxDeviceEntries; i++ {
		entry := &e.info.Devices[i]
		if entry.Type != deviceType {
			continue
		}
		if subType != 0 && entry.SubType != subType {
			continue
		}

		// vary by instance index
		if deviceType == DeviceTypePD && entry.Instance != instance {
			continue
		}

		return entry
	}

	return nil
}

// IsDevicePresent returns whether the addressed component was detected.
func (e *EC) IsDevicePresent(deviceType DeviceType, subType, instance uint8) bool {
	return e.FindDevice(deviceType, subType, instance) != nil
}

// ListDevices returns the detected components of the current topology.
func (e *EC) ListDevices() []DeviceEntry {
	// check topology
	if e.info == nil {
		return nil
	}

	// copy entries
	list := make([]DeviceEntry, 0, e.info.TotalDevices)
	for i := 0; i < int(e.info.TotalDevices) && i < maxDeviceEntries; i++ {
		list = append(list, e.info.Devices[i])
	}

	return list
}

// DockType returns the queried dock base type.
func (e *EC) DockType() uint8 {
	return e.dockType
}

// SKU returns the derived dock SKU.
func (e *EC) SKU() SKU {
	return e.sku
}

// Data returns the current dock identity snapshot.
func (e *EC) Data() *DockData {
	return e.data
}

// Version returns the version of the addressed component or zero if it was
// not detected.
func (e *EC) Version(deviceType DeviceType, subType, instance uint8) uint32 {
	entry := e.FindDevice(deviceType, subType, instance)
	if entry == nil {
		return 0
	}
	return entry.Version
}

// ECVersion returns the version of the embedded controller itself.
func (e *EC) ECVersion() uint32 {
	return e.Version(DeviceTypeMainEC, 0, 0)
}

// PackageVersion returns the firmware package version from the identity
// record.
func (e *EC) PackageVersion() uint32 {
	if e.data == nil {
		return 0
	}
	return e.data.PackageVersion
}
