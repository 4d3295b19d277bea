package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/srg/gattop/internal/device"
	"github.com/srg/gattop/internal/operation"
	"github.com/srg/gattop/pkg/config"
)

// readCmd represents the read command
var readCmd = &cobra.Command{
	Use:   "read <device-address> <service-uuid> <char-uuid>",
	Short: "Read a characteristic value",
	Long: fmt.Sprintf(`Reads the current value of a BLE characteristic.

Examples:
  # Read Battery Level characteristic
  gattop read %s 180f 2a19

  # Output as hex
  gattop read %s 180f 2a19 --hex

%s`, exampleDeviceAddress, exampleDeviceAddress, deviceAddressNote),
	Args: cobra.ExactArgs(3),
	RunE: runRead,
}

var (
	readHex     bool
	readTimeout time.Duration
)

func init() {
	readCmd.Flags().BoolVar(&readHex, "hex", false, "Output as hex string (e.g., 'FF01'); raw bytes by default")
	readCmd.Flags().DurationVar(&readTimeout, "timeout", operation.DefaultTimeout, "Read timeout")
}

func runRead(cmd *cobra.Command, args []string) error {
	address := args[0]

	uuids, err := device.ValidateUUID(args[1], args[2])
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("timeout") || !cmd.Flags().Changed("config") {
		cfg.OperationTimeout = readTimeout
	}

	logger, err := configureLogger(cmd, cfg)
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	started := time.Now()
	var value []byte
	err = withSession(ctx, address, cfg, logger, func(p device.Peripheral) error {
		r := operation.NewRead(uuids[0], uuids[1],
			operation.WithTimeout(cfg.OperationTimeout),
			operation.WithLogger(logger),
		)
		if err := r.Execute(p); err != nil {
			return err
		}
		v, err := r.Wait(ctx)
		value = v
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to read characteristic: %w", err)
	}

	if cfg.OutputFormat == config.OutputJSON {
		return writeReport(cmd.OutOrStdout(), newReport("read", address, uuids[0], uuids[1], started).withValue(value))
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), formatValue(value, readHex))
	return nil
}

// formatValue renders a characteristic value as upper-case hex or raw text
func formatValue(value []byte, asHex bool) string {
	if asHex {
		return strings.ToUpper(hex.EncodeToString(value))
	}
	return string(value)
}
