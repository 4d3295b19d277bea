package operation

import (
	"bytes"
	"context"
	"fmt"

	"github.com/srg/gattop/internal/device"
)

// Read reads a characteristic value. It follows the same lifecycle as Write:
// lazily shared result, single Execute, bounded by the timeout guard.
//
// The peripheral passed to Execute must also implement device.CharacteristicReader,
// otherwise the read resolves to device.ErrUnsupported.
type Read struct {
	operation[[]byte]
}

var _ GattOperation = (*Read)(nil)

// NewRead creates a dormant read of service/characteristic.
func NewRead(service, characteristic string, opts ...Option) *Read {
	r := &Read{}
	r.init("read", service, characteristic, opts, r.read)
	return r
}

// Wait blocks until the read resolves or ctx is done and returns the value read.
func (r *Read) Wait(ctx context.Context) ([]byte, error) {
	return r.Result().Wait(ctx)
}

func (r *Read) read(_ context.Context, p device.Peripheral) ([]byte, error) {
	reader, ok := p.(device.CharacteristicReader)
	if !ok {
		return nil, fmt.Errorf("%w: peripheral cannot read characteristic %s/%s", device.ErrUnsupported, r.service, r.characteristic)
	}

	data, err := reader.ReadCharacteristic(r.service, r.characteristic)
	if err != nil {
		return nil, err
	}
	if r.opts.Progress != nil {
		r.opts.Progress(len(data), len(data))
	}
	return bytes.Clone(data), nil
}
