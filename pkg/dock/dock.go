// Package dock materializes logical sub devices from the EC topology and
// orchestrates firmware updates against one dock.
package dock

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dockfw/dockfw/pkg/ec"
)

// SubDevice represents one updatable dock component.
type SubDevice struct {
	Name       string
	Type       ec.DeviceType
	SubType    uint8
	Instance   uint8
	Identifier uint8
	Location   string
	Version    string

	// Package marks the update version authority of the dock.
	Package bool
}

// Dock represents one attached dock and its detected components.
type Dock struct {
	ec      *ec.EC
	log     zerolog.Logger
	devices []*SubDevice
}

// Open runs the discovery cycle on the provided transport and materializes
// the sub device inventory.
func Open(transport ec.Transport, log zerolog.Logger) (*Dock, error) {
	// prepare engine
	engine := ec.New(transport)
	engine.SetLogger(log)

	// discover topology
	err := engine.Setup()
	if err != nil {
		return nil, err
	}

	// create dock
	d := &Dock{
		ec:  engine,
		log: log,
	}

	// materialize sub devices
	d.probeSubDevices()

	return d, nil
}

// probeSubDevices creates the logical sub devices in a fixed order. The
// package representative comes first, later consumers rely on it as the
// update version authority. Absent optional components are skipped.
func (d *Dock) probeSubDevices() {
	// package representative
	d.devices = append(d.devices, &SubDevice{
		Name:    "Package",
		Package: true,
		Version: ec.FormatVersion(d.ec.PackageVersion()),
	})

	// power delivery instances
	d.probe(ec.DeviceTypePD, ec.SubTypePDTI, ec.InstancePDUP5)
	d.probe(ec.DeviceTypePD, ec.SubTypePDTI, ec.InstancePDUP15)
	d.probe(ec.DeviceTypePD, ec.SubTypePDTI, ec.InstancePDUP17)

	// optional components
	d.probe(ec.DeviceTypeDPMux, 0, 0)
	d.probe(ec.DeviceTypeWTPD, 0, 0)
	d.probe(ec.DeviceTypeLAN, 0, 0)
}

// probe appends a sub device if the addressed component is present.
func (d *Dock) probe(deviceType ec.DeviceType, subType, instance uint8) {
	// absence of an optional component is not an error
	entry := d.ec.FindDevice(deviceType, subType, instance)
	if entry == nil {
		return
	}

	// unrecognized entries are logged and skipped
	name := entry.Name()
	if name == "" {
		d.log.Warn().Msgf("missing device name, DevType: %d, SubType: %d, Inst: %d",
			entry.Type, entry.SubType, entry.Instance)
		return
	}

	d.devices = append(d.devices, &SubDevice{
		Name:       name,
		Type:       entry.Type,
		SubType:    entry.SubType,
		Instance:   entry.Instance,
		Identifier: entry.Instance,
		Location:   entry.Location.String(),
		Version:    ec.FormatVersion(entry.Version),
	})
}

// Devices returns the materialized sub devices.
func (d *Dock) Devices() []*SubDevice {
	return d.devices
}

// Find returns the sub device with the given name or nil.
func (d *Dock) Find(name string) *SubDevice {
	for _, dev := range d.devices {
		if strings.EqualFold(dev.Name, name) {
			return dev
		}
	}
	return nil
}

// EC returns the underlying protocol engine.
func (d *Dock) EC() *ec.EC {
	return d.ec
}

// Name returns the dock marketing name.
func (d *Dock) Name() string {
	return d.ec.Data().MarketingName
}

// Serial returns the combined service tag and module serial.
func (d *Dock) Serial() string {
	return d.ec.Data().Serial()
}

// SKU returns the derived dock SKU.
func (d *Dock) SKU() ec.SKU {
	return d.ec.SKU()
}

// Release gives up the ownership lock over the dock.
func (d *Dock) Release() error {
	return d.ec.SetOwnership(false)
}

// Update stages new firmware for the named component and arms the passive
// update. The dock applies the staged firmware on the next reboot. If report
// is provided it is called with the payload bytes sent.
func (d *Dock) Update(target string, payload []byte, report func(int)) error {
	// ensure no other update is pending
	err := d.ec.ReadyForUpdate()
	if err != nil {
		return err
	}

	// acquire exclusive ownership
	err = d.ec.SetOwnership(true)
	if err != nil {
		return err
	}

	// always release, a detached dock is ignored there
	defer func() {
		_ = d.ec.SetOwnership(false)
	}()

	// write firmware
	switch {
	case strings.EqualFold(target, "EC"):
		err = d.ec.WriteFirmware(payload, ec.DeviceTypeMainEC, 0, report)
	case strings.EqualFold(target, "Package"):
		err = d.ec.CommitPackage(payload)
	default:
		dev := d.Find(target)
		if dev == nil {
			return fmt.Errorf("unknown component %q", target)
		}
		err = d.ec.WriteFirmware(payload, dev.Type, dev.Identifier, report)
	}
	if err != nil {
		return err
	}

	// apply staged firmware on the next reboot
	return d.ec.ArmPassiveUpdate()
}
