package main

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/srg/gattop/internal/device"
	"github.com/srg/gattop/internal/device/goble"
	"github.com/srg/gattop/pkg/config"
)

// connect opens a peripheral and returns it with its close function (can be overridden in tests)
var connect = func(ctx context.Context, address string, opts goble.DialOptions, logger *logrus.Logger) (device.Peripheral, func() error, error) {
	conn, err := goble.Dial(ctx, address, opts, logger)
	if err != nil {
		return nil, nil, err
	}
	return conn.Peripheral, conn.Close, nil
}

// dialOptions maps the resolved configuration onto connection options
func dialOptions(cfg *config.Config) goble.DialOptions {
	return goble.DialOptions{
		ConnectTimeout: cfg.ConnectTimeout,
		Peripheral: goble.PeripheralOptions{
			ChunkSize:       cfg.ChunkSize,
			WithoutResponse: cfg.WriteWithoutResponse,
		},
	}
}

// withSession connects to address, runs fn and always disconnects
func withSession(ctx context.Context, address string, cfg *config.Config, logger *logrus.Logger, fn func(device.Peripheral) error) error {
	p, closeFn, err := connect(ctx, address, dialOptions(cfg), logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeFn(); err != nil {
			logger.WithError(err).Warn("Failed to disconnect")
		}
	}()

	return fn(p)
}
