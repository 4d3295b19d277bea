//go:build test

package main

import (
	"bytes"
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/srg/gattop/internal/device"
	"github.com/srg/gattop/internal/device/goble"
	"github.com/srg/gattop/internal/testutils"
)

// TestDeviceAddress identifies the in-memory peripheral handed out by the test connector
const TestDeviceAddress = "00:00:00:00:00:01"

// CommandTestSuite runs cobra commands against a RecordingPeripheral instead of a radio.
// All cmd/gattop test suites should embed this.
type CommandTestSuite struct {
	testutils.OperationSuite

	Device      *testutils.RecordingPeripheral
	DialOpts    goble.DialOptions
	DialAddress string
	DialErr     error
	Closed      int

	originalConnect func(context.Context, string, goble.DialOptions, *logrus.Logger) (device.Peripheral, func() error, error)
}

// SetupSuite swaps the BLE connector for the in-memory one
func (s *CommandTestSuite) SetupSuite() {
	s.OperationSuite.SetupSuite()

	s.originalConnect = connect
	connect = func(_ context.Context, address string, opts goble.DialOptions, _ *logrus.Logger) (device.Peripheral, func() error, error) {
		s.DialAddress = address
		s.DialOpts = opts
		if s.DialErr != nil {
			return nil, nil, s.DialErr
		}
		return s.Device, func() error {
			s.Closed++
			return nil
		}, nil
	}
}

// TearDownSuite restores the real connector
func (s *CommandTestSuite) TearDownSuite() {
	connect = s.originalConnect
}

// SetupTest resets the fake device and every command flag to its default
func (s *CommandTestSuite) SetupTest() {
	s.OperationSuite.SetupTest()

	s.Device = testutils.NewRecordingPeripheral(20)
	s.DialOpts = goble.DialOptions{}
	s.DialAddress = ""
	s.DialErr = nil
	s.Closed = 0

	for _, cmd := range []*cobra.Command{rootCmd, writeCmd, readCmd} {
		resetFlags(cmd.Flags())
		resetFlags(cmd.PersistentFlags())
	}
}

func resetFlags(flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
}

// ExecuteCommand runs the root command with args, returns output and error.
func (s *CommandTestSuite) ExecuteCommand(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}
