package goble

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-ble/ble"
	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"github.com/srg/gattop/internal/device"
)

// DeviceFactory creates the host ble.Device (can be overridden in tests)
//
//nolint:revive // DeviceFactory name is intentional for test mocking
var DeviceFactory = newDevice

// DialOptions defines how a peripheral is connected.
type DialOptions struct {
	ConnectTimeout time.Duration `default:"30s"`
	Peripheral     PeripheralOptions
}

// Connection is a live link to a peripheral with its discovered profile.
type Connection struct {
	client     ble.Client
	Peripheral *Peripheral
	logger     *logrus.Logger
}

// Dial connects to address, discovers the GATT profile and negotiates the MTU.
func Dial(ctx context.Context, address string, opts DialOptions, logger *logrus.Logger) (*Connection, error) {
	defaults.SetDefaults(&opts)

	if strings.TrimSpace(address) == "" {
		return nil, fmt.Errorf("device address is empty")
	}

	logger.WithFields(logrus.Fields{
		"address": address,
		"timeout": opts.ConnectTimeout,
	}).Info("Connecting to BLE device...")

	dev, err := DeviceFactory()
	if err != nil {
		return nil, fmt.Errorf("failed to create BLE device: %w", device.NormalizeError(err))
	}
	ble.SetDefaultDevice(dev)

	connCtx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	client, err := ble.Dial(connCtx, ble.NewAddr(address))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to device with address %q: %w", address, device.NormalizeError(err))
	}

	profile, err := client.DiscoverProfile(true)
	if err != nil {
		if cancelErr := client.CancelConnection(); cancelErr != nil {
			logger.WithField("cancel_error", cancelErr).Warn("Failed to cancel connection during profile discovery failure")
		}
		return nil, fmt.Errorf("failed to discover profile: %w", device.NormalizeError(err))
	}

	popts := opts.Peripheral
	if popts.MTU <= DefaultMTU {
		popts.MTU = exchangeMTU(client, logger)
	}

	logger.WithFields(logrus.Fields{
		"address":  address,
		"services": len(profile.Services),
		"mtu":      popts.MTU,
	}).Debug("Profile discovered successfully")

	return &Connection{
		client:     client,
		Peripheral: NewPeripheral(client, profile, popts, logger),
		logger:     logger,
	}, nil
}

// exchangeMTU asks for the largest MTU and falls back to the default when the
// platform does not support the exchange.
func exchangeMTU(client ble.Client, logger *logrus.Logger) int {
	txMTU, err := client.ExchangeMTU(MaxMTU)
	if err != nil || txMTU < DefaultMTU {
		logger.WithField("error", err).Debug("MTU exchange unavailable, using default MTU")
		return DefaultMTU
	}
	return txMTU
}

// Close cancels the connection.
func (c *Connection) Close() error {
	c.logger.Debug("Disconnecting from BLE device")
	return device.NormalizeError(c.client.CancelConnection())
}
