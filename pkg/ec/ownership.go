package ec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// The lock words of the modify lock command.
const (
	lockWord   uint16 = 0xFFFF
	unlockWord uint16 = 0x0000
)

// ownershipSettleDelay is the mandatory wait before writing a lock word.
const ownershipSettleDelay = time.Second

// ReadyForUpdate re-queries the dock identity and checks for a pending
// update. ErrBusy is reported verbatim and never retried internally, a caller
// may retry later at a higher level.
func (e *EC) ReadyForUpdate() error {
	// firmware update pending is bit 8 of the dock status
	const pendingMask = 1 << 8

	// refresh identity
	err := e.queryDockData()
	if err != nil {
		return err
	}

	// check status
	if e.data.Status&pendingMask != 0 {
		return fmt.Errorf("%w: dock status (%x), unavailable for now", ErrBusy, e.data.Status)
	}

	return nil
}

// SetOwnership acquires or releases the exclusive ownership lock over the
// dock. The write is fire and forget, no acknowledgment is read back. A
// missing device during release is ignored as the dock may have already
// detached.
func (e *EC) SetOwnership(lock bool) error {
	// prepare request
	req := make([]byte, 4)
	req[0] = cmdSetModifyLock
	req[1] = 2 // length of data
	word := unlockWord
	if lock {
		word = lockWord
	}
	binary.LittleEndian.PutUint16(req[2:4], word)

	// the EC needs to settle before accepting the lock word
	e.sleep(ownershipSettleDelay)

	// write request
	err := e.write("set ownership", req)
	if err != nil {
		if !lock && errors.Is(err, ErrNotFound) {
			e.log.Debug().Msgf("ignoring: %s", err.Error())
		} else {
			verb := "release"
			if lock {
				verb = "own"
			}
			return fmt.Errorf("failed to %s dock: %w", verb, err)
		}
	}

	// update flag unconditionally
	e.owned = lock

	if lock {
		e.log.Debug().Msg("dock is owned successfully")
	} else {
		e.log.Debug().Msg("dock is released successfully")
	}

	return nil
}

// Owned returns whether the ownership lock is currently held.
func (e *EC) Owned() bool {
	return e.owned
}

// ArmPassiveUpdate informs the dock that subsequent reboots should apply the
// staged firmware. No response is expected.
func (e *EC) ArmPassiveUpdate() error {
	// prepare request, bit 2 in the flag also covers the tbt controller
	req := []byte{cmdSetPassive, 1, 0x02}

	e.log.Info().Msg("registered passive update for dock")

	return e.write("arm passive update", req)
}

// CommitPackage writes the package version record to the dock. The payload
// must have exactly the size of the version record.
func (e *EC) CommitPackage(payload []byte) error {
	// verify package length
	if len(payload) != DockFWVersionSize {
		return &SizeMismatchError{What: "package", Expected: DockFWVersionSize, Actual: len(payload)}
	}

	// prepare request
	req := make([]byte, 0, 2+len(payload))
	req = append(req, cmdSetDockPkg, byte(len(payload)))
	req = append(req, payload...)

	// write request
	err := e.write("commit package", req)
	if err != nil {
		return fmt.Errorf("failed to commit package: %w", err)
	}

	return nil
}
