package output

import (
	"fmt"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/pebbe/zmq4"

	"clusterlog-go/internal/types"
)

// sendHighWater caps queued outgoing messages per peer.
const sendHighWater = 10000

// Publisher pushes CBOR message envelopes to a ZMQ endpoint, where
// ingest.Subscribe picks them up.
type Publisher struct {
	mu     sync.Mutex
	socket *zmq4.Socket
}

// NewPublisher binds a PUSH socket on endpoint, e.g. "tcp://*:5557".
func NewPublisher(endpoint string) (*Publisher, error) {
	socket, err := zmq4.NewSocket(zmq4.PUSH)
	if err != nil {
		return nil, err
	}
	if err := socket.SetSndhwm(sendHighWater); err != nil {
		_ = socket.Close()
		return nil, err
	}
	if err := socket.Bind(endpoint); err != nil {
		_ = socket.Close()
		return nil, fmt.Errorf("bind %s: %w", endpoint, err)
	}
	return &Publisher{socket: socket}, nil
}

func (p *Publisher) Start(meta map[string]any) error {
	return p.Send(types.Message{Type: types.MessageStart, Meta: meta})
}

func (p *Publisher) Frame(rec types.FrameRecord) error {
	return p.Send(types.Message{Type: types.MessageFrame, Frame: &rec})
}

func (p *Publisher) End(meta map[string]any) error {
	return p.Send(types.Message{Type: types.MessageEnd, Meta: meta})
}

func (p *Publisher) Send(msg types.Message) error {
	payload, err := cbor.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s message: %w", msg.Type, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.socket == nil {
		return fmt.Errorf("publisher is closed")
	}
	_, err = p.socket.SendBytes(payload, 0)
	return err
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.socket == nil {
		return nil
	}
	err := p.socket.Close()
	p.socket = nil
	return err
}
