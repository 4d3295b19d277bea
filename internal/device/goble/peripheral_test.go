//go:build test

package goble_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-ble/ble"
	"github.com/srg/gattop/internal/device"
	"github.com/srg/gattop/internal/device/goble"
	"github.com/srg/gattop/internal/operation"
	"github.com/srg/gattop/internal/testutils"
	"github.com/srg/gattop/internal/testutils/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type PeripheralTestSuite struct {
	suite.Suite

	helper  *testutils.TestHelper
	client  *mocks.MockClient
	profile *ble.Profile

	writeChar   *ble.Characteristic // 180d/2a39 write
	writeNRChar *ble.Characteristic // 180d/2a3a write-without-response only
	bothChar    *ble.Characteristic // 6e400001.../6e400002... write + write-without-response
	readChar    *ble.Characteristic // 180f/2a19 read
	notifyOnly  *ble.Characteristic // 180d/2a37 notify
}

func (s *PeripheralTestSuite) SetupTest() {
	s.helper = testutils.NewTestHelper(s.T())
	s.client = &mocks.MockClient{}

	s.writeChar = &ble.Characteristic{UUID: ble.MustParse("2a39"), Property: ble.CharWrite}
	s.writeNRChar = &ble.Characteristic{UUID: ble.MustParse("2a3a"), Property: ble.CharWriteNR}
	s.notifyOnly = &ble.Characteristic{UUID: ble.MustParse("2a37"), Property: ble.CharNotify}
	s.readChar = &ble.Characteristic{UUID: ble.MustParse("2a19"), Property: ble.CharRead, Value: []byte{50}}
	s.bothChar = &ble.Characteristic{
		UUID:     ble.MustParse("6e400002-b5a3-f393-e0a9-e50e24dcca9e"),
		Property: ble.CharWrite | ble.CharWriteNR,
	}

	s.profile = &ble.Profile{
		Services: []*ble.Service{
			{UUID: ble.MustParse("180d"), Characteristics: []*ble.Characteristic{s.writeChar, s.writeNRChar, s.notifyOnly}},
			{UUID: ble.MustParse("180f"), Characteristics: []*ble.Characteristic{s.readChar}},
			{UUID: ble.MustParse("6e400001-b5a3-f393-e0a9-e50e24dcca9e"), Characteristics: []*ble.Characteristic{s.bothChar}},
		},
	}
}

func (s *PeripheralTestSuite) peripheral(opts goble.PeripheralOptions) *goble.Peripheral {
	return goble.NewPeripheral(s.client, s.profile, opts, s.helper.Logger)
}

func (s *PeripheralTestSuite) TestMaxWriteLength() {
	s.Assert().Equal(20, s.peripheral(goble.PeripheralOptions{}).MaxWriteLength(), "default MTU MUST give 20 bytes")
	s.Assert().Equal(244, s.peripheral(goble.PeripheralOptions{MTU: 247}).MaxWriteLength())
	s.Assert().Equal(8, s.peripheral(goble.PeripheralOptions{MTU: 247, ChunkSize: 8}).MaxWriteLength(), "forced chunk size MUST win")
}

func (s *PeripheralTestSuite) TestWriteChunk() {
	// GOAL: Verify chunk writes resolve the characteristic and pick the write mode from its properties
	//
	// TEST SCENARIO: write-only, write-NR-only, both (default and --without-response) → correct noRsp flag

	s.Run("with response", func() {
		s.client.On("WriteCharacteristic", s.writeChar, []byte{1, 2}, false).Return(nil).Once()

		err := s.peripheral(goble.PeripheralOptions{}).WriteChunk("180D", "2A39", []byte{1, 2})
		s.Assert().NoError(err)
	})

	s.Run("write-without-response only characteristic", func() {
		s.client.On("WriteCharacteristic", s.writeNRChar, []byte{3}, true).Return(nil).Once()

		err := s.peripheral(goble.PeripheralOptions{}).WriteChunk("180d", "2a3a", []byte{3})
		s.Assert().NoError(err)
	})

	s.Run("both supported defaults to response", func() {
		s.client.On("WriteCharacteristic", s.bothChar, []byte{4}, false).Return(nil).Once()

		err := s.peripheral(goble.PeripheralOptions{}).
			WriteChunk("6e400001-b5a3-f393-e0a9-e50e24dcca9e", "6e400002-b5a3-f393-e0a9-e50e24dcca9e", []byte{4})
		s.Assert().NoError(err)
	})

	s.Run("both supported without response requested", func() {
		s.client.On("WriteCharacteristic", s.bothChar, []byte{5}, true).Return(nil).Once()

		err := s.peripheral(goble.PeripheralOptions{WithoutResponse: true}).
			WriteChunk("6e400001b5a3f393e0a9e50e24dcca9e", "6e400002b5a3f393e0a9e50e24dcca9e", []byte{5})
		s.Assert().NoError(err)
	})

	s.client.AssertExpectations(s.T())
}

func (s *PeripheralTestSuite) TestWriteChunkErrors() {
	p := s.peripheral(goble.PeripheralOptions{})

	s.Run("unknown service", func() {
		err := p.WriteChunk("1234", "2a39", []byte{1})

		var nf *device.NotFoundError
		s.Require().ErrorAs(err, &nf)
		s.Assert().Equal("service", nf.Resource)
	})

	s.Run("unknown characteristic", func() {
		err := p.WriteChunk("180d", "2a99", []byte{1})

		var nf *device.NotFoundError
		s.Require().ErrorAs(err, &nf)
		s.Assert().Equal("characteristic", nf.Resource)
		s.Assert().Contains(err.Error(), `"2a99" not found in service "180d"`)
	})

	s.Run("not writable", func() {
		err := p.WriteChunk("180d", "2a37", []byte{1})

		s.Assert().ErrorIs(err, device.ErrUnsupported)
		s.Assert().Contains(err.Error(), "does not support write operations")
	})

	s.Run("transport error normalized", func() {
		s.client.On("WriteCharacteristic", s.writeChar, []byte{9}, false).
			Return(errors.New("device not connected")).Once()

		err := p.WriteChunk("180d", "2a39", []byte{9})

		s.Assert().ErrorIs(err, device.ErrNotConnected)
		s.Assert().Contains(err.Error(), "device not connected", "original reason MUST be preserved")
	})

	s.Run("no profile", func() {
		err := goble.NewPeripheral(s.client, nil, goble.PeripheralOptions{}, nil).WriteChunk("180d", "2a39", []byte{1})
		s.Assert().ErrorIs(err, device.ErrNotInitialized)
	})

	s.client.AssertNotCalled(s.T(), "WriteCharacteristic", s.notifyOnly, mock.Anything, mock.Anything)
}

func (s *PeripheralTestSuite) TestReadCharacteristic() {
	p := s.peripheral(goble.PeripheralOptions{})

	s.Run("success", func() {
		s.client.On("ReadCharacteristic", s.readChar).Return([]byte{50}, nil).Once()

		data, err := p.ReadCharacteristic("180f", "2a19")
		s.Assert().NoError(err)
		s.Assert().Equal([]byte{50}, data)
	})

	s.Run("write-only characteristic", func() {
		_, err := p.ReadCharacteristic("180d", "2a39")
		s.Assert().ErrorIs(err, device.ErrUnsupported)
		s.Assert().Contains(err.Error(), "does not support read operations")
	})

	s.Run("transport error", func() {
		s.client.On("ReadCharacteristic", s.readChar).Return(nil, errors.New("connection is not initialized")).Once()

		_, err := p.ReadCharacteristic("180f", "2a19")
		s.Assert().ErrorIs(err, device.ErrNotInitialized)
	})
}

func (s *PeripheralTestSuite) TestWriteOperationOverGoBLE() {
	// GOAL: Verify a Write operation drives go-ble chunk writes end to end
	//
	// TEST SCENARIO: 250 bytes, chunk size 100 → go-ble receives [100, 100, 50] in order → Success

	payload := testutils.Payload(250)
	var calls []int

	s.client.On("WriteCharacteristic", s.writeChar, mock.Anything, false).
		Run(func(args mock.Arguments) {
			calls = append(calls, len(args.Get(1).([]byte)))
		}).
		Return(nil)

	p := s.peripheral(goble.PeripheralOptions{ChunkSize: 100})
	w := operation.NewWrite("180d", "2a39", payload, operation.WithLogger(s.helper.Logger))

	s.Require().NoError(w.Execute(p))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Require().NoError(w.Wait(ctx))

	s.Assert().Equal([]int{100, 100, 50}, calls)
	s.client.AssertNumberOfCalls(s.T(), "WriteCharacteristic", 3)
}

func (s *PeripheralTestSuite) TestWriteOperationTransportFailure() {
	// GOAL: Verify a go-ble failure on the second chunk stops the write with that failure
	//
	// TEST SCENARIO: chunk 1 ok, chunk 2 "disconnected" → Failure wraps ErrNotConnected → no chunk 3

	s.client.On("WriteCharacteristic", s.writeChar, mock.Anything, false).Return(nil).Once()
	s.client.On("WriteCharacteristic", s.writeChar, mock.Anything, false).
		Return(errors.New("device not connected")).Once()

	p := s.peripheral(goble.PeripheralOptions{ChunkSize: 100})
	w := operation.NewWrite("180d", "2a39", testutils.Payload(250))

	s.Require().NoError(w.Execute(p))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := w.Wait(ctx)

	s.Assert().ErrorIs(err, device.ErrNotConnected)
	s.client.AssertNumberOfCalls(s.T(), "WriteCharacteristic", 2)
}

func TestPeripheralTestSuite(t *testing.T) {
	suite.Run(t, new(PeripheralTestSuite))
}
