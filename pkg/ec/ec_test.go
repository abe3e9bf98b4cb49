package ec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func makeInfo(entries ...DeviceEntry) []byte {
	info := &DockInfo{
		TotalDevices: uint8(len(entries)),
		FirstIndex:   0,
		LastIndex:    uint8(len(entries)),
	}
	copy(info.Devices[:], entries)
	return info.Serialize()
}

func makeData(status uint32) []byte {
	data := &DockData{
		DockType:       DockTypeK2,
		PackageVersion: 0x01000000,
		ModuleSerial:   42,
		ServiceTag:     "SVCTAG7",
		MarketingName:  "Dock",
		Status:         status,
	}
	return data.Serialize()
}

func TestQueryDockType(t *testing.T) {
	mt := newMockTransport()
	mt.respond(cmdGetDockType, []byte{DockTypeK2})

	e := newTestEC(mt)
	dockType, err := e.QueryDockType()
	assert.NoError(t, err)
	assert.Equal(t, DockTypeK2, dockType)
}

func TestQueryDockTypeUnsupported(t *testing.T) {
	mt := newMockTransport()
	mt.respond(cmdGetDockType, []byte{0x04})

	e := newTestEC(mt)
	_, err := e.QueryDockType()
	assert.ErrorIs(t, err, ErrUnsupportedDock)
}

func TestSetupRetriesNotReady(t *testing.T) {
	mt := newMockTransport()
	mt.respond(cmdGetDockType, []byte{DockTypeK2})
	mt.respond(cmdGetDockData, makeData(0))

	// dock reports an empty table twice before it is booted
	mt.respond(cmdGetDockInfo, makeInfo())
	mt.respond(cmdGetDockInfo, makeInfo())
	mt.respond(cmdGetDockInfo, makeInfo(
		DeviceEntry{Type: DeviceTypeMainEC, Version: 0x01020304},
	))

	e := newTestEC(mt)
	err := e.Setup()
	assert.NoError(t, err)
	assert.Equal(t, uint32(0x01020304), e.ECVersion())
	assert.Equal(t, SKUDPAlt, e.SKU())
	assert.Equal(t, 3, mt.readCount[cmdGetDockInfo])
}

func TestSetupNotReadyExhausted(t *testing.T) {
	mt := newMockTransport()
	mt.respond(cmdGetDockType, []byte{DockTypeK2})
	mt.respond(cmdGetDockData, makeData(0))
	mt.respond(cmdGetDockInfo, makeInfo())

	e := newTestEC(mt)
	err := e.Setup()

	// the underlying error is surfaced, not a generic timeout
	assert.ErrorIs(t, err, ErrNotReady)
	assert.Equal(t, discoveryAttempts, mt.readCount[cmdGetDockInfo])
}

func TestSetupAbortsOnFatalError(t *testing.T) {
	mt := newMockTransport()
	mt.respond(cmdGetDockType, []byte{DockTypeK2})
	mt.readErr[cmdGetDockData] = errors.New("boom")

	e := newTestEC(mt)
	err := e.Setup()
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotReady)

	// the transport error must not be retried
	assert.Equal(t, 1, mt.readCount[cmdGetDockData])
}

func TestFindDevice(t *testing.T) {
	mt := newMockTransport()
	mt.respond(cmdGetDockType, []byte{DockTypeK2})
	mt.respond(cmdGetDockData, makeData(0))
	mt.respond(cmdGetDockInfo, makeInfo(
		DeviceEntry{Type: DeviceTypeMainEC, Version: 1},
		DeviceEntry{Type: DeviceTypePD, SubType: SubTypePDTI, Instance: InstancePDUP5, Version: 2},
		DeviceEntry{Type: DeviceTypePD, SubType: SubTypePDTI, Instance: InstancePDUP17, Version: 3},
		DeviceEntry{Type: DeviceTypeMST, SubType: SubTypeMSTVMM9430, Instance: 7, Version: 4},
	))

	e := newTestEC(mt)
	assert.NoError(t, e.Setup())

	// a sub type of zero matches any sub type
	entry := e.FindDevice(DeviceTypeMST, 0, 0)
	assert.NotNil(t, entry)
	assert.Equal(t, SubTypeMSTVMM9430, entry.SubType)

	// instances only vary for power delivery devices
	entry = e.FindDevice(DeviceTypePD, SubTypePDTI, InstancePDUP17)
	assert.NotNil(t, entry)
	assert.Equal(t, uint32(3), entry.Version)
	assert.Nil(t, e.FindDevice(DeviceTypePD, SubTypePDTI, InstancePDUP15))

	// other classes ignore the instance
	entry = e.FindDevice(DeviceTypeMST, SubTypeMSTVMM9430, 0)
	assert.NotNil(t, entry)

	assert.True(t, e.IsDevicePresent(DeviceTypeMainEC, 0, 0))
	assert.False(t, e.IsDevicePresent(DeviceTypeLAN, 0, 0))

	list := e.ListDevices()
	assert.Len(t, list, 4)
	assert.Equal(t, uint32(2), e.Version(DeviceTypePD, SubTypePDTI, InstancePDUP5))
	assert.Equal(t, uint32(0), e.Version(DeviceTypeLAN, 0, 0))
}

func TestDeriveSKU(t *testing.T) {
	table := []struct {
		entries []DeviceEntry
		sku     SKU
	}{
		// barlow ridge wins over goshen ridge
		{[]DeviceEntry{
			{Type: DeviceTypeTBT, SubType: SubTypeTBTGoshen},
			{Type: DeviceTypeTBT, SubType: SubTypeTBTBarlow},
		}, SKUTBT5},
		{[]DeviceEntry{
			{Type: DeviceTypeTBT, SubType: SubTypeTBTGoshen},
		}, SKUTBT4},
		{[]DeviceEntry{
			{Type: DeviceTypeMainEC},
		}, SKUDPAlt},
	}

	for _, item := range table {
		mt := newMockTransport()
		mt.respond(cmdGetDockType, []byte{DockTypeK2})
		mt.respond(cmdGetDockData, makeData(0))
		mt.respond(cmdGetDockInfo, makeInfo(item.entries...))

		e := newTestEC(mt)
		assert.NoError(t, e.Setup())
		assert.Equal(t, item.sku, e.SKU())
	}
}

func TestReload(t *testing.T) {
	mt := newMockTransport()
	mt.respond(cmdGetDockType, []byte{DockTypeK2})
	mt.respond(cmdGetDockData, makeData(0))
	mt.respond(cmdGetDockInfo, makeInfo(
		DeviceEntry{Type: DeviceTypeMainEC, Version: 1},
	))

	e := newTestEC(mt)
	assert.NoError(t, e.Setup())

	// a reload replaces the topology snapshot
	mt.respond(cmdGetDockInfo, makeInfo(
		DeviceEntry{Type: DeviceTypeMainEC, Version: 2},
		DeviceEntry{Type: DeviceTypeLAN, Version: 3},
	))
	assert.NoError(t, e.Reload())
	assert.Equal(t, uint32(2), e.ECVersion())
	assert.True(t, e.IsDevicePresent(DeviceTypeLAN, 0, 0))
}
