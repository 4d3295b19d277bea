package goble

import (
	"fmt"
	"io"
	"sync"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
	"github.com/srg/gattop/internal/device"
)

const (
	// DefaultMTU is the ATT MTU every LE link starts with.
	DefaultMTU = 23

	// MaxMTU is the largest ATT MTU requested during exchange.
	MaxMTU = 512

	// attWriteOverhead is the opcode + handle prefix of an ATT write request.
	attWriteOverhead = 3
)

// Client is the subset of ble.Client the peripheral adapter needs.
type Client interface {
	ReadCharacteristic(c *ble.Characteristic) ([]byte, error)
	WriteCharacteristic(c *ble.Characteristic, value []byte, noRsp bool) error
}

// PeripheralOptions tunes how chunks reach the radio.
type PeripheralOptions struct {
	// MTU is the negotiated ATT MTU; the max write length is MTU minus the write header.
	MTU int `default:"23"`

	// ChunkSize forces a max write length instead of deriving it from MTU (0 = derive).
	ChunkSize int

	// WithoutResponse issues write commands (no ACK) when the characteristic allows it.
	WithoutResponse bool
}

// Peripheral adapts a connected go-ble client to device.Peripheral.
type Peripheral struct {
	client  Client
	profile *ble.Profile
	opts    PeripheralOptions
	logger  *logrus.Logger

	// go-ble clients are not safe for interleaved ATT requests
	writeMutex sync.Mutex
}

var (
	_ device.Peripheral           = (*Peripheral)(nil)
	_ device.CharacteristicReader = (*Peripheral)(nil)
)

// NewPeripheral wraps client, resolving characteristics through profile.
func NewPeripheral(client Client, profile *ble.Profile, opts PeripheralOptions, logger *logrus.Logger) *Peripheral {
	if opts.MTU <= 0 {
		opts.MTU = DefaultMTU
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Peripheral{
		client:  client,
		profile: profile,
		opts:    opts,
		logger:  logger,
	}
}

// MaxWriteLength returns the forced chunk size, or the MTU payload size.
func (p *Peripheral) MaxWriteLength() int {
	if p.opts.ChunkSize > 0 {
		return p.opts.ChunkSize
	}
	return p.opts.MTU - attWriteOverhead
}

// WriteChunk writes one chunk and blocks until the transport completes it.
func (p *Peripheral) WriteChunk(service, characteristic string, data []byte) error {
	char, err := p.findCharacteristic(service, characteristic)
	if err != nil {
		return err
	}

	canWrite := char.Property&ble.CharWrite != 0
	canWriteNR := char.Property&ble.CharWriteNR != 0
	if !canWrite && !canWriteNR {
		return fmt.Errorf("%w: characteristic %s does not support write operations", device.ErrUnsupported, device.NormalizeUUID(characteristic))
	}
	noRsp := canWriteNR && (p.opts.WithoutResponse || !canWrite)

	p.writeMutex.Lock()
	defer p.writeMutex.Unlock()

	p.logger.WithFields(logrus.Fields{
		"service":        service,
		"characteristic": characteristic,
		"bytes":          len(data),
		"no_response":    noRsp,
	}).Debug("Writing chunk")

	return device.NormalizeError(p.client.WriteCharacteristic(char, data, noRsp))
}

// ReadCharacteristic reads the current value of a characteristic from the device.
func (p *Peripheral) ReadCharacteristic(service, characteristic string) ([]byte, error) {
	char, err := p.findCharacteristic(service, characteristic)
	if err != nil {
		return nil, err
	}
	if char.Property&ble.CharRead == 0 {
		return nil, fmt.Errorf("%w: characteristic %s does not support read operations", device.ErrUnsupported, device.NormalizeUUID(characteristic))
	}

	p.writeMutex.Lock()
	defer p.writeMutex.Unlock()

	data, err := p.client.ReadCharacteristic(char)
	if err != nil {
		return nil, device.NormalizeError(err)
	}
	return data, nil
}

func (p *Peripheral) findCharacteristic(service, characteristic string) (*ble.Characteristic, error) {
	if p.profile == nil {
		return nil, fmt.Errorf("%w: profile not discovered", device.ErrNotInitialized)
	}

	for _, svc := range p.profile.Services {
		if !device.SameUUID(svc.UUID.String(), service) {
			continue
		}
		for _, char := range svc.Characteristics {
			if device.SameUUID(char.UUID.String(), characteristic) {
				return char, nil
			}
		}
		return nil, &device.NotFoundError{
			Resource: "characteristic",
			UUIDs:    []string{device.NormalizeUUID(service), device.NormalizeUUID(characteristic)},
		}
	}

	return nil, &device.NotFoundError{Resource: "service", UUIDs: []string{device.NormalizeUUID(service)}}
}
