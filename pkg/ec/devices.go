package ec

import (
	"time"
)

// DeviceType identifies the class of a dock component.
type DeviceType uint8

// The known device types.
const (
	DeviceTypeMainEC DeviceType = 0
	DeviceTypePD     DeviceType = 1
	DeviceTypeUSBHub DeviceType = 3
	DeviceTypeMST    DeviceType = 4
	DeviceTypeTBT    DeviceType = 5
	DeviceTypeQi     DeviceType = 6
	DeviceTypeDPMux  DeviceType = 7
	DeviceTypeLAN    DeviceType = 8
	DeviceTypeFan    DeviceType = 9
	DeviceTypeRMM    DeviceType = 10
	DeviceTypeWTPD   DeviceType = 11
)

// The known device sub types.
const (
	SubTypePDTI        uint8 = 1
	SubTypeHubRTS5480  uint8 = 1
	SubTypeHubRTS5485  uint8 = 2
	SubTypeMSTVMM8430  uint8 = 1
	SubTypeMSTVMM9430  uint8 = 2
	SubTypeTBTTitan    uint8 = 1
	SubTypeTBTGoshen   uint8 = 2
	SubTypeTBTBarlow   uint8 = 3
)

// The power delivery controller instances.
const (
	InstancePDUP5  uint8 = 0
	InstancePDUP15 uint8 = 1
	InstancePDUP17 uint8 = 2
)

// Location describes where a component resides in the dock.
type Location uint8

// The available locations.
const (
	LocationBase   Location = 0
	LocationModule Location = 1
)

// String implements the fmt.Stringer interface.
func (l Location) String() string {
	if l == LocationBase {
		return "Base"
	}
	return "Module"
}

// DeviceName returns the display name for the addressed component or an empty
// string if the combination is not recognized.
func DeviceName(deviceType DeviceType, subType, instance uint8) string {
	switch deviceType {
	case DeviceTypeMainEC:
		return "EC"
	case DeviceTypePD:
		if subType == SubTypePDTI {
			switch instance {
			case InstancePDUP5:
				return "PD UP5"
			case InstancePDUP15:
				return "PD UP15"
			case InstancePDUP17:
				return "PD UP17"
			}
		}
		return ""
	case DeviceTypeUSBHub:
		switch subType {
		case SubTypeHubRTS5480:
			return "RTS5480 USB Hub"
		case SubTypeHubRTS5485:
			return "RTS5485 USB Hub"
		}
		return ""
	case DeviceTypeMST:
		switch subType {
		case SubTypeMSTVMM8430:
			return "MST VMM8430"
		case SubTypeMSTVMM9430:
			return "MST VMM9430"
		}
		return ""
	case DeviceTypeTBT:
		switch subType {
		case SubTypeTBTTitan:
			return "Titan Ridge"
		case SubTypeTBTGoshen:
			return "Goshen Ridge"
		case SubTypeTBTBarlow:
			return "Barlow Ridge"
		}
		return ""
	case DeviceTypeQi:
		return "Qi"
	case DeviceTypeDPMux:
		return "DP Mux"
	case DeviceTypeLAN:
		return "Intel i226-LM"
	case DeviceTypeFan:
		return "Fan"
	case DeviceTypeRMM:
		return "Remote Management"
	case DeviceTypeWTPD:
		return "Weltrend PD"
	default:
		return ""
	}
}

// flowControl holds the transfer parameters of a device class. The dock sub
// controllers have differing buffer capacities and processing speeds.
type flowControl struct {
	// chunkSize is the maximum chunk size in bytes, zero means the whole
	// payload is sent as a single chunk.
	chunkSize int

	// chunkDelay is the wait after all pages of a chunk have been sent.
	chunkDelay time.Duration

	// firstPageDelay is the wait after the first page of every chunk.
	firstPageDelay time.Duration
}

var flowControls = map[DeviceType]flowControl{
	DeviceTypeMainEC: {chunkSize: 64 * 1024, chunkDelay: 3 * time.Second},
	DeviceTypePD:     {chunkSize: 4 * 1024, chunkDelay: 15 * time.Second},
	DeviceTypeLAN:    {chunkSize: 4 * 1024, chunkDelay: 70 * time.Second},
	// the remote management controller boots into update mode slowly and
	// takes the payload without sub-chunking
	DeviceTypeRMM: {chunkSize: 0, chunkDelay: 60 * time.Second, firstPageDelay: 75 * time.Second},
}

// flowControlFor returns the flow control parameters for a device class.
func flowControlFor(deviceType DeviceType) flowControl {
	fc, ok := flowControls[deviceType]
	if !ok {
		return flowControl{chunkSize: 4 * 1024, chunkDelay: 30 * time.Second}
	}
	return fc
}
