package ec

import (
	"errors"
	"time"
)

// The dock responses to a transferred chunk.
const (
	respUpdateComplete byte = 1
	respSendNextChunk  byte = 2
	respUpdateFailed   byte = 3
)

// statusTimeout is the timeout of the chunk acknowledgment poll.
const statusTimeout = 5 * time.Second

// WriteFirmware transfers a firmware payload to the addressed component
// through the EC relay. The payload is split into device class sized chunks
// and HID sized pages. Every chunk must be acknowledged by the dock before
// the next one is sent. A rejected chunk aborts the transfer immediately, no
// chunk is ever retried. If report is provided it is called with the payload
// bytes sent after every chunk.
func (e *EC) WriteFirmware(payload []byte, deviceType DeviceType, identifier uint8, report func(int)) error {
	// check payload
	if len(payload) == 0 {
		return errors.New("empty firmware payload")
	}

	// get flow control parameters
	fc := flowControlFor(deviceType)

	// a zero chunk size sends the payload as a single chunk
	chunkSize := fc.chunkSize
	if chunkSize <= 0 || chunkSize > len(payload) {
		chunkSize = len(payload)
	}

	// iterate the chunks
	num := 0
	for offset := 0; offset < len(payload); offset += chunkSize {
		// slice chunk
		end := offset + chunkSize
		if end > len(payload) {
			end = len(payload)
		}
		chunk := payload[offset:end]

		// prepend header and command to the chunk data
		frame := newTransferFrame(deviceType, identifier, uint32(len(payload)), chunk)

		// send the frame page by page
		err := e.sendPages(frame, num, fc.firstPageDelay)
		if err != nil {
			return err
		}

		// the dock needs time to process the chunk
		e.log.Debug().Msgf("wait %v for dock to finish the chunk", fc.chunkDelay)
		e.sleep(fc.chunkDelay)

		// ensure the chunk has been acknowledged
		err = e.pollChunkAck(num)
		if err != nil {
			return err
		}

		// report progress
		if report != nil {
			report(end)
		}

		// increment count
		num++
	}

	e.log.Debug().Msg("firmware written successfully")

	return nil
}

// sendPages slices one framed chunk into fixed size pages and writes them to
// the transport. Short pages are padded, a page is never sent truncated.
func (e *EC) sendPages(frame []byte, chunk int, firstPageDelay time.Duration) error {
	for num, offset := 0, 0; offset < len(frame); num, offset = num+1, offset+PageSize {
		// slice page
		end := offset + PageSize
		if end > len(frame) {
			end = len(frame)
		}

		// strictly align the page size
		page := make([]byte, PageSize)
		copy(page, frame[offset:end])

		// send to ec
		e.log.Debug().Msgf("sending chunk: %d, page: %d", chunk, num)
		err := e.write("send page", page)
		if err != nil {
			return err
		}

		// the device needs time to process the first incoming page
		if num == 0 && firstPageDelay > 0 {
			e.log.Debug().Msgf("wait %v before the next page", firstPageDelay)
			e.sleep(firstPageDelay)
		}
	}

	return nil
}

// pollChunkAck reads one status report and interprets the dock's response to
// the transferred chunk.
func (e *EC) pollChunkAck(chunk int) error {
	// poll status report
	res := make([]byte, PageSize)
	err := e.transport.GetReport(0, res, statusTimeout)
	if err != nil {
		return err
	}

	// interpret response
	switch res[1] {
	case respUpdateComplete:
		e.log.Debug().Msgf("dock response '%d' to chunk[%d]: firmware updated successfully", res[1], chunk)
	case respSendNextChunk:
		e.log.Debug().Msgf("dock response '%d' to chunk[%d]: send next chunk", res[1], chunk)
	default:
		return &WriteRejectedError{Chunk: chunk, Code: res[1]}
	}

	return nil
}
