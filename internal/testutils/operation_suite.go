//go:build test

package testutils

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
)

// OperationSuite provides a reusable testify suite for code that executes GATT operations.
//
// Basic usage:
//
//	type WriteSuite struct {
//	    testutils.OperationSuite
//	}
//
//	func (s *WriteSuite) TestSomething() {
//	    p := s.Peripheral(100)
//	    ...
//	}
type OperationSuite struct {
	suite.Suite

	Helper *TestHelper
	Logger *logrus.Logger

	// Scheduler holds deferred calls until FireTimers; a fresh one is created per test.
	Scheduler *ManualScheduler

	// TestTimeout bounds waits on operation results.
	TestTimeout time.Duration
}

// SetupSuite runs once before all tests in the suite.
func (s *OperationSuite) SetupSuite() {
	s.Helper = NewTestHelper(s.T())
	s.Logger = s.Helper.Logger
	s.TestTimeout = 5 * time.Second
}

// SetupTest creates a fresh manual scheduler before each test.
func (s *OperationSuite) SetupTest() {
	s.Scheduler = NewManualScheduler()
}

// TearDownTest waits for pipelines started during the test.
func (s *OperationSuite) TearDownTest() {
	s.Scheduler.Wait()
}

// Peripheral returns a recording peripheral with the given maximum write length.
func (s *OperationSuite) Peripheral(maxWriteLength int) *RecordingPeripheral {
	return NewRecordingPeripheral(maxWriteLength)
}

// AwaitDone fails the test unless done is closed within TestTimeout.
func (s *OperationSuite) AwaitDone(done <-chan struct{}, msgAndArgs ...interface{}) {
	select {
	case <-done:
	case <-time.After(s.TestTimeout):
		s.FailNow("operation MUST resolve", msgAndArgs...)
	}
}

// Payload returns n deterministic bytes.
func Payload(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}
