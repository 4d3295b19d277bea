//go:build test

package main

import (
	"errors"
	"testing"

	"github.com/srg/gattop/internal/device"
	"github.com/srg/gattop/internal/testutils"
	"github.com/stretchr/testify/suite"
)

type ReadTestSuite struct {
	CommandTestSuite
}

func (s *ReadTestSuite) TestReadRaw() {
	s.Device.WithValue("180f", "2a19", []byte("ok"))

	out, err := s.ExecuteCommand("read", TestDeviceAddress, "180F", "2A19")

	s.Require().NoError(err)
	s.Assert().Equal("ok\n", out)
	s.Assert().Equal(1, s.Closed, "connection MUST be closed")
}

func (s *ReadTestSuite) TestReadHex() {
	s.Device.WithValue("180f", "2a19", []byte{0x5a, 0x0f})

	out, err := s.ExecuteCommand("read", TestDeviceAddress, "180f", "2a19", "--hex")

	s.Require().NoError(err)
	s.Assert().Equal("5A0F\n", out)
}

func (s *ReadTestSuite) TestReadMissingCharacteristic() {
	_, err := s.ExecuteCommand("read", TestDeviceAddress, "180f", "2a19")

	var nf *device.NotFoundError
	s.Require().ErrorAs(err, &nf)
	s.Assert().Contains(FormatUserError(err), "check the service and characteristic UUIDs")
}

func (s *ReadTestSuite) TestReadTransportError() {
	s.Device.WithReadError(errors.New("device not connected"))

	_, err := s.ExecuteCommand("read", TestDeviceAddress, "180f", "2a19")

	s.Assert().ErrorContains(err, "failed to read characteristic")
	s.Assert().ErrorContains(err, "device not connected")
}

func (s *ReadTestSuite) TestReadJSONReport() {
	s.Device.WithValue("180f", "2a19", []byte{0x64})

	out, err := s.ExecuteCommand("read", TestDeviceAddress, "180f", "2a19", "--output", "json")
	s.Require().NoError(err)

	testutils.NewJSONAsserter(s.T()).
		WithOptions(testutils.WithIgnoreExtraKeys(false), testutils.WithIgnoredFields("elapsed_ms")).
		Assert(out, `{
			"operation": "read",
			"address": "`+TestDeviceAddress+`",
			"service": "180f",
			"characteristic": "2a19",
			"bytes": 1,
			"value": "64"
		}`)
}

func (s *ReadTestSuite) TestFormatValue() {
	s.Assert().Equal("", formatValue(nil, true))
	s.Assert().Equal("00FF", formatValue([]byte{0x00, 0xff}, true))
	s.Assert().Equal("hi", formatValue([]byte("hi"), false))
}

func TestReadTestSuite(t *testing.T) {
	suite.Run(t, new(ReadTestSuite))
}
