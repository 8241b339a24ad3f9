package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/pebbe/zmq4"

	"clusterlog-go/internal/types"
)

// recvTimeout bounds each receive so cancellation is noticed.
const recvTimeout = 250 * time.Millisecond

// Subscribe returns a channel of messages pulled from a ZMQ endpoint, as
// published by output.Publisher. Receive and decode errors are logged every
// logEvery occurrences and skipped.
func Subscribe(ctx context.Context, endpoint string, logEvery int) (<-chan types.Message, error) {
	if logEvery < 1 {
		logEvery = 1
	}
	socket, err := zmq4.NewSocket(zmq4.PULL)
	if err != nil {
		return nil, err
	}
	if err := socket.SetRcvtimeo(recvTimeout); err != nil {
		_ = socket.Close()
		return nil, err
	}
	if err := socket.Connect(endpoint); err != nil {
		_ = socket.Close()
		return nil, err
	}

	out := make(chan types.Message, 128)
	go func() {
		defer close(out)
		defer socket.Close()

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			msg, err := socket.RecvBytes(0)
			if err != nil {
				if zmq4.AsErrno(err) == zmq4.Errno(syscall.EAGAIN) {
					continue
				}
				logEveryN(logEvery, "ingest recv error: %v", err)
				continue
			}

			message, err := DecodeMessage(msg)
			if err != nil {
				decodeFailures.Add(1)
				logEveryN(logEvery, "ingest decode skipped message: %v", err)
				continue
			}

			select {
			case <-ctx.Done():
				return
			case out <- message:
			}
		}
	}()

	return out, nil
}

// DecodeMessage decodes one CBOR message envelope.
func DecodeMessage(payload []byte) (types.Message, error) {
	var msg types.Message
	if err := cbor.Unmarshal(payload, &msg); err != nil {
		return types.Message{}, fmt.Errorf("CBOR decode: %w", err)
	}
	switch msg.Type {
	case types.MessageStart, types.MessageEnd:
	case types.MessageFrame:
		if msg.Frame == nil {
			return types.Message{}, errors.New("frame message without frame")
		}
	default:
		return types.Message{}, fmt.Errorf("unknown message type %q", msg.Type)
	}
	return msg, nil
}

// DecodeFailures is the number of messages Subscribe could not decode.
func DecodeFailures() uint64 {
	return decodeFailures.Load()
}

var (
	decodeFailures atomic.Uint64
	logCounter     atomic.Uint64
)

func logEveryN(n int, format string, args ...any) {
	if logCounter.Add(1)%uint64(n) == 0 {
		log.Printf(format, args...)
	}
}
