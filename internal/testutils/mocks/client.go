//go:build test

package mocks

import (
	"github.com/go-ble/ble"
	"github.com/stretchr/testify/mock"
)

// MockClient is a testify mock of the go-ble client calls used by the peripheral adapter.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) ReadCharacteristic(c *ble.Characteristic) ([]byte, error) {
	args := m.Called(c)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *MockClient) WriteCharacteristic(c *ble.Characteristic, value []byte, noRsp bool) error {
	// Copy so recorded arguments are not affected by later reuse of the caller's buffer
	v := append([]byte(nil), value...)
	return m.Called(c, v, noRsp).Error(0)
}
