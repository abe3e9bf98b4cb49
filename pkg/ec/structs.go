package ec

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// The fixed wire structure sizes.
const (
	// DockDataSize is the size of the dock identity record.
	DockDataSize = 72

	// DockInfoSize is the size of the dock topology table.
	DockInfoSize = dockInfoHeaderSize + maxDeviceEntries*dockInfoEntrySize

	// DockFWVersionSize is the size of the firmware package version record.
	DockFWVersionSize = 64

	// PageSize is the HID report data size used to slice transfer pages.
	PageSize = 192

	dockInfoHeaderSize = 3
	dockInfoEntrySize  = 9

	// maxDeviceEntries is the fixed capacity of the topology table.
	maxDeviceEntries = 20
)

// DeviceEntry describes one component detected behind the EC.
type DeviceEntry struct {
	Location Location
	Type     DeviceType
	SubType  uint8
	Arg      uint8
	Instance uint8
	Version  uint32
}

// Name returns the display name of the entry or an empty string if the
// addressing tuple is not recognized.
func (e *DeviceEntry) Name() string {
	return DeviceName(e.Type, e.SubType, e.Instance)
}

// DockInfo is the dock topology table as reported by the EC.
type DockInfo struct {
	TotalDevices uint8
	FirstIndex   uint8
	LastIndex    uint8
	Devices      [maxDeviceEntries]DeviceEntry
}

// ParseDockInfo parses a dock topology table from the provided buffer. The
// buffer must have exactly DockInfoSize bytes, otherwise no table is produced.
func ParseDockInfo(data []byte) (*DockInfo, error) {
	// check size
	if len(data) != DockInfoSize {
		return nil, &SizeMismatchError{What: "dock info", Expected: DockInfoSize, Actual: len(data)}
	}

	// parse header
	info := &DockInfo{
		TotalDevices: data[0],
		FirstIndex:   data[1],
		LastIndex:    data[2],
	}

	// parse entries
	for i := 0; i < maxDeviceEntries; i++ {
		entry := data[dockInfoHeaderSize+i*dockInfoEntrySize:]
		info.Devices[i] = DeviceEntry{
			Location: Location(entry[0]),
			Type:     DeviceType(entry[1]),
			SubType:  entry[2],
			Arg:      entry[3],
			Instance: entry[4],
			Version:  binary.BigEndian.Uint32(entry[5:9]),
		}
	}

	return info, nil
}

// Serialize returns the wire representation of the topology table.
func (i *DockInfo) Serialize() []byte {
	// write header
	data := make([]byte, DockInfoSize)
	data[0] = i.TotalDevices
	data[1] = i.FirstIndex
	data[2] = i.LastIndex

	// write entries
	for j := 0; j < maxDeviceEntries; j++ {
		entry := data[dockInfoHeaderSize+j*dockInfoEntrySize:]
		entry[0] = byte(i.Devices[j].Location)
		entry[1] = byte(i.Devices[j].Type)
		entry[2] = i.Devices[j].SubType
		entry[3] = i.Devices[j].Arg
		entry[4] = i.Devices[j].Instance
		binary.BigEndian.PutUint32(entry[5:9], i.Devices[j].Version)
	}

	return data
}

// DockData is the dock identity record as reported by the EC.
type DockData struct {
	Configuration  uint8
	DockType       uint8
	PowerWattage   uint16
	ModuleType     uint16
	BoardID        uint16
	Port0Status    uint16
	Port1Status    uint16
	PackageVersion uint32
	ModuleSerial   uint64
	ServiceTag     string
	MarketingName  string
	Status         uint32
}

// ParseDockData parses a dock identity record from the provided buffer.
func ParseDockData(data []byte) (*DockData, error) {
	// check size
	if len(data) != DockDataSize {
		return nil, &SizeMismatchError{What: "dock data", Expected: DockDataSize, Actual: len(data)}
	}

	return &DockData{
		Configuration:  data[0],
		DockType:       data[1],
		PowerWattage:   binary.LittleEndian.Uint16(data[2:4]),
		ModuleType:     binary.LittleEndian.Uint16(data[4:6]),
		BoardID:        binary.LittleEndian.Uint16(data[6:8]),
		Port0Status:    binary.LittleEndian.Uint16(data[8:10]),
		Port1Status:    binary.LittleEndian.Uint16(data[10:12]),
		PackageVersion: binary.BigEndian.Uint32(data[12:16]),
		ModuleSerial:   binary.LittleEndian.Uint64(data[16:24]),
		ServiceTag:     string(data[24:31]),
		MarketingName:  string(bytes.TrimRight(data[31:63], "\x00")),
		Status:         binary.LittleEndian.Uint32(data[63:67]),
	}, nil
}

// Serialize returns the wire representation of the identity record.
func (d *DockData) Serialize() []byte {
	data := make([]byte, DockDataSize)
	data[0] = d.Configuration
	data[1] = d.DockType
	binary.LittleEndian.PutUint16(data[2:4], d.PowerWattage)
	binary.LittleEndian.PutUint16(data[4:6], d.ModuleType)
	binary.LittleEndian.PutUint16(data[6:8], d.BoardID)
	binary.LittleEndian.PutUint16(data[8:10], d.Port0Status)
	binary.LittleEndian.PutUint16(data[10:12], d.Port1Status)
	binary.BigEndian.PutUint32(data[12:16], d.PackageVersion)
	binary.LittleEndian.PutUint64(data[16:24], d.ModuleSerial)
	copy(data[24:31], d.ServiceTag)
	copy(data[31:63], d.MarketingName)
	binary.LittleEndian.PutUint32(data[63:67], d.Status)
	return data
}

// Serial returns the combined service tag and zero padded module serial.
func (d *DockData) Serial() string {
	return fmt.Sprintf("%.7s/%016d", d.ServiceTag, d.ModuleSerial)
}

// DockFWVersion is the firmware package version record. Its size is the
// contract for package formatted update payloads.
type DockFWVersion struct {
	EC      uint32
	MST     uint32
	Hub1    uint32
	Hub2    uint32
	TBT     uint32
	Package uint32
	PD      uint32
	EPR     uint32
	DPMux   uint32
	RMM     uint32
}

// ParseDockFWVersion parses a firmware package version record.
func ParseDockFWVersion(data []byte) (*DockFWVersion, error) {
	// check size
	if len(data) != DockFWVersionSize {
		return nil, &SizeMismatchError{What: "package", Expected: DockFWVersionSize, Actual: len(data)}
	}

	return &DockFWVersion{
		EC:      binary.BigEndian.Uint32(data[0:4]),
		MST:     binary.BigEndian.Uint32(data[4:8]),
		Hub1:    binary.BigEndian.Uint32(data[8:12]),
		Hub2:    binary.BigEndian.Uint32(data[12:16]),
		TBT:     binary.BigEndian.Uint32(data[16:20]),
		Package: binary.BigEndian.Uint32(data[20:24]),
		PD:      binary.BigEndian.Uint32(data[24:28]),
		EPR:     binary.BigEndian.Uint32(data[28:32]),
		DPMux:   binary.BigEndian.Uint32(data[32:36]),
		RMM:     binary.BigEndian.Uint32(data[36:40]),
	}, nil
}

// Serialize returns the wire representation of the version record. The
// trailing reserved words are always zero.
func (v *DockFWVersion) Serialize() []byte {
	data := make([]byte, DockFWVersionSize)
	binary.BigEndian.PutUint32(data[0:4], v.EC)
	binary.BigEndian.PutUint32(data[4:8], v.MST)
	binary.BigEndian.PutUint32(data[8:12], v.Hub1)
	binary.BigEndian.PutUint32(data[12:16], v.Hub2)
	binary.BigEndian.PutUint32(data[16:20], v.TBT)
	binary.BigEndian.PutUint32(data[20:24], v.Package)
	binary.BigEndian.PutUint32(data[24:28], v.PD)
	binary.BigEndian.PutUint32(data[28:32], v.EPR)
	binary.BigEndian.PutUint32(data[32:36], v.DPMux)
	binary.BigEndian.PutUint32(data[36:40], v.RMM)
	return data
}

// FormatVersion renders a normalized 32-bit version as a hex quad.
func FormatVersion(version uint32) string {
	return fmt.Sprintf("%x.%x.%x.%x",
		byte(version>>24), byte(version>>16), byte(version>>8), byte(version))
}

// newTransferFrame prepends the transfer header to a firmware chunk. The
// header carries the command, the target device type and identifier, and the
// total payload size.
func newTransferFrame(deviceType DeviceType, identifier uint8, totalSize uint32, chunk []byte) []byte {
	frame := make([]byte, 7+len(chunk))
	frame[0] = cmdFwUpdate
	frame[1] = byte(deviceType)
	frame[2] = identifier
	binary.LittleEndian.PutUint32(frame[3:7], totalSize)
	copy(frame[7:], chunk)
	return frame
}
