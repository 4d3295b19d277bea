//go:build test

package testutils

import (
	"bytes"
	"sync"
	"time"

	"github.com/cornelk/hashmap"
	"github.com/srg/gattop/internal/device"
)

// ChunkCall is one WriteChunk invocation observed by RecordingPeripheral.
type ChunkCall struct {
	Index          int
	Service        string
	Characteristic string
	Data           []byte
	Started        time.Time
	Completed      time.Time // zero while the chunk is still in flight
	Err            error
}

// ChunkHandler decides the completion of a chunk write. It may block to simulate a slow transport.
type ChunkHandler func(index int, data []byte) error

// RecordingPeripheral is an in-memory device.Peripheral that records every chunk write,
// tracks write concurrency and accumulates successfully written bytes per characteristic.
//
//	p := testutils.NewRecordingPeripheral(100).
//	    WithChunkHandler(testutils.FailAt(1, errors.New("disconnected")))
type RecordingPeripheral struct {
	maxWriteLength int
	handler        ChunkHandler
	readErr        error

	mu          sync.Mutex
	calls       []ChunkCall
	inFlight    int
	maxInFlight int

	values *hashmap.Map[string, []byte]
}

var (
	_ device.Peripheral           = (*RecordingPeripheral)(nil)
	_ device.CharacteristicReader = (*RecordingPeripheral)(nil)
)

// NewRecordingPeripheral creates a peripheral reporting maxWriteLength.
func NewRecordingPeripheral(maxWriteLength int) *RecordingPeripheral {
	return &RecordingPeripheral{
		maxWriteLength: maxWriteLength,
		values:         hashmap.New[string, []byte](),
	}
}

// WithChunkHandler installs a handler consulted for every chunk write.
func (p *RecordingPeripheral) WithChunkHandler(h ChunkHandler) *RecordingPeripheral {
	p.handler = h
	return p
}

// WithValue seeds the stored value of a characteristic.
func (p *RecordingPeripheral) WithValue(service, characteristic string, value []byte) *RecordingPeripheral {
	p.values.Set(key(service, characteristic), bytes.Clone(value))
	return p
}

// WithReadError makes every ReadCharacteristic call fail with err.
func (p *RecordingPeripheral) WithReadError(err error) *RecordingPeripheral {
	p.readErr = err
	return p
}

func (p *RecordingPeripheral) MaxWriteLength() int {
	return p.maxWriteLength
}

func (p *RecordingPeripheral) WriteChunk(service, characteristic string, data []byte) error {
	p.mu.Lock()
	index := len(p.calls)
	p.calls = append(p.calls, ChunkCall{
		Index:          index,
		Service:        service,
		Characteristic: characteristic,
		Data:           bytes.Clone(data),
		Started:        time.Now(),
	})
	p.inFlight++
	p.maxInFlight = max(p.maxInFlight, p.inFlight)
	p.mu.Unlock()

	var err error
	if p.handler != nil {
		err = p.handler(index, data)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.inFlight--
	p.calls[index].Completed = time.Now()
	p.calls[index].Err = err
	if err == nil {
		k := key(service, characteristic)
		stored, _ := p.values.Get(k)
		p.values.Set(k, append(bytes.Clone(stored), data...))
	}
	return err
}

func (p *RecordingPeripheral) ReadCharacteristic(service, characteristic string) ([]byte, error) {
	if p.readErr != nil {
		return nil, p.readErr
	}
	value, ok := p.values.Get(key(service, characteristic))
	if !ok {
		return nil, &device.NotFoundError{Resource: "characteristic", UUIDs: []string{service, characteristic}}
	}
	return bytes.Clone(value), nil
}

// Calls returns a snapshot of all chunk writes in issue order.
func (p *RecordingPeripheral) Calls() []ChunkCall {
	p.mu.Lock()
	defer p.mu.Unlock()

	calls := make([]ChunkCall, len(p.calls))
	copy(calls, p.calls)
	return calls
}

// CallCount returns the number of chunk writes issued so far.
func (p *RecordingPeripheral) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

// MaxInFlight returns the highest number of chunk writes observed running at once.
func (p *RecordingPeripheral) MaxInFlight() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.maxInFlight
}

// Value returns the bytes successfully written to a characteristic.
func (p *RecordingPeripheral) Value(service, characteristic string) []byte {
	value, _ := p.values.Get(key(service, characteristic))
	return value
}

// FailAt returns a handler failing the chunk at index with err and acknowledging all others.
func FailAt(index int, err error) ChunkHandler {
	return func(i int, _ []byte) error {
		if i == index {
			return err
		}
		return nil
	}
}

// BlockUntil returns a handler that holds every chunk until release is closed.
func BlockUntil(release <-chan struct{}) ChunkHandler {
	return func(int, []byte) error {
		<-release
		return nil
	}
}

func key(service, characteristic string) string {
	return device.NormalizeUUID(service) + "/" + device.NormalizeUUID(characteristic)
}
