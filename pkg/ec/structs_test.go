package ec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDockInfoRoundTrip(t *testing.T) {
	// construct a fully populated table
	data := make([]byte, DockInfoSize)
	data[0] = 20
	data[1] = 0
	data[2] = 19
	for i := 0; i < 20; i++ {
		entry := data[dockInfoHeaderSize+i*dockInfoEntrySize:]
		entry[0] = byte(i % 2)
		entry[1] = byte(i)
		entry[2] = byte(i + 1)
		entry[3] = byte(i + 2)
		entry[4] = byte(i % 3)
		entry[5] = 0x01
		entry[6] = 0x02
		entry[7] = byte(i)
		entry[8] = 0xFF
	}

	info, err := ParseDockInfo(data)
	assert.NoError(t, err)
	assert.Equal(t, uint8(20), info.TotalDevices)
	assert.Equal(t, uint8(19), info.LastIndex)
	assert.Equal(t, uint32(0x010200FF), info.Devices[0].Version)

	// re-serializing reproduces identical bytes
	assert.Equal(t, data, info.Serialize())
}

func TestParseDockInfoSizeMismatch(t *testing.T) {
	for _, size := range []int{0, 1, DockInfoSize - 1, DockInfoSize + 1} {
		info, err := ParseDockInfo(make([]byte, size))
		assert.Nil(t, info)
		var sizeErr *SizeMismatchError
		assert.ErrorAs(t, err, &sizeErr)
		assert.Equal(t, DockInfoSize, sizeErr.Expected)
		assert.Equal(t, size, sizeErr.Actual)
	}
}

func TestParseDockDataRoundTrip(t *testing.T) {
	src := &DockData{
		Configuration:  1,
		DockType:       DockTypeK2,
		PowerWattage:   130,
		ModuleType:     3,
		BoardID:        7,
		Port0Status:    0x0102,
		Port1Status:    0x0304,
		PackageVersion: 0x01020304,
		ModuleSerial:   123456789,
		ServiceTag:     "ABC1234",
		MarketingName:  "Dell dock WD25",
		Status:         0x100,
	}

	data, err := ParseDockData(src.Serialize())
	assert.NoError(t, err)
	assert.Equal(t, src, data)

	// serial combines the tag with the zero padded module serial
	assert.Equal(t, "ABC1234/0000000123456789", data.Serial())
}

func TestParseDockDataSizeMismatch(t *testing.T) {
	data, err := ParseDockData(make([]byte, DockDataSize+4))
	assert.Nil(t, data)
	var sizeErr *SizeMismatchError
	assert.ErrorAs(t, err, &sizeErr)
}

func TestDockFWVersionRoundTrip(t *testing.T) {
	src := &DockFWVersion{
		EC:      0x01000000,
		MST:     0x02000000,
		Hub1:    0x03000000,
		Hub2:    0x04000000,
		TBT:     0x05000000,
		Package: 0x06000000,
		PD:      0x07000000,
		EPR:     0x08000000,
		DPMux:   0x09000000,
		RMM:     0x0A000000,
	}

	data := src.Serialize()
	assert.Len(t, data, DockFWVersionSize)

	ver, err := ParseDockFWVersion(data)
	assert.NoError(t, err)
	assert.Equal(t, src, ver)

	ver, err = ParseDockFWVersion(data[:DockFWVersionSize-1])
	assert.Error(t, err)
	assert.Nil(t, ver)
}

func TestFormatVersion(t *testing.T) {
	assert.Equal(t, "1.2.3.4", FormatVersion(0x01020304))
	assert.Equal(t, "ff.0.10.a", FormatVersion(0xFF00100A))
}

func TestDeviceName(t *testing.T) {
	assert.Equal(t, "EC", DeviceName(DeviceTypeMainEC, 0, 0))
	assert.Equal(t, "PD UP15", DeviceName(DeviceTypePD, SubTypePDTI, InstancePDUP15))
	assert.Equal(t, "Barlow Ridge", DeviceName(DeviceTypeTBT, SubTypeTBTBarlow, 0))
	assert.Equal(t, "Weltrend PD", DeviceName(DeviceTypeWTPD, 0, 0))

	// unknown combinations yield no name
	assert.Equal(t, "", DeviceName(DeviceTypePD, 0xEE, 0))
	assert.Equal(t, "", DeviceName(DeviceType(0xEE), 0, 0))
}

func TestNewTransferFrame(t *testing.T) {
	frame := newTransferFrame(DeviceTypePD, 2, 0x01020304, []byte{0xAA, 0xBB})
	assert.Equal(t, []byte{cmdFwUpdate, byte(DeviceTypePD), 2, 0x04, 0x03, 0x02, 0x01, 0xAA, 0xBB}, frame)
}
