package operation

import (
	"bytes"
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/srg/gattop/internal/device"
)

// Write writes a payload to a characteristic, split into chunks no larger than the
// peripheral's maximum write length and issued strictly one after another.
// It resolves after the last chunk is acknowledged, on the first failed chunk, or on timeout.
type Write struct {
	operation[struct{}]
	data []byte
}

var _ GattOperation = (*Write)(nil)

// NewWrite creates a dormant write of data to service/characteristic.
// data is copied; the caller may reuse its slice.
func NewWrite(service, characteristic string, data []byte, opts ...Option) *Write {
	w := &Write{data: bytes.Clone(data)}
	w.init("write", service, characteristic, opts, w.write)
	return w
}

// Data returns the payload being written. It must not be modified.
func (w *Write) Data() []byte {
	return w.data
}

// Wait blocks until the write resolves or ctx is done.
func (w *Write) Wait(ctx context.Context) error {
	_, err := w.Result().Wait(ctx)
	return err
}

func (w *Write) write(_ context.Context, p device.Peripheral) (struct{}, error) {
	maxLen := p.MaxWriteLength()
	chunks, err := Split(w.data, maxLen)
	if err != nil {
		return struct{}{}, fmt.Errorf("write %s/%s: max write length: %w", w.service, w.characteristic, err)
	}

	w.logger.WithFields(logrus.Fields{
		"bytes":            len(w.data),
		"chunks":           len(chunks),
		"max_write_length": maxLen,
	}).Debug("Writing chunks")

	sent := 0
	for i, chunk := range chunks {
		if w.abandoned() {
			return struct{}{}, errAbandoned
		}

		if err := p.WriteChunk(w.service, w.characteristic, chunk); err != nil {
			w.logger.WithFields(logrus.Fields{
				"chunk": i,
				"error": err,
			}).Debug("Chunk write failed")
			return struct{}{}, err
		}

		sent += len(chunk)
		if w.opts.Progress != nil {
			w.opts.Progress(sent, len(w.data))
		}
	}

	return struct{}{}, nil
}
