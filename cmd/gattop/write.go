package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/srg/gattop/internal/device"
	"github.com/srg/gattop/internal/operation"
	"github.com/srg/gattop/pkg/config"
)

// writeCmd represents the write command
var writeCmd = &cobra.Command{
	Use:   "write <device-address> <service-uuid> <char-uuid> <data>",
	Short: "Write a payload to a characteristic",
	Long: fmt.Sprintf(`Writes data to a BLE characteristic, split into chunks no larger than
the negotiated maximum write length. Chunks are sent strictly one after another;
the write fails on the first chunk the device rejects.

Examples:
  # Write a string
  gattop write %s 180d 2a39 "high"

  # Write hex data
  gattop write %s 180d 2a39 01 --hex

  # Force 16-byte chunks and a 10s deadline
  gattop write %s 6e400001-b5a3-f393-e0a9-e50e24dcca9e 6e400002-b5a3-f393-e0a9-e50e24dcca9e "$(cat fw.bin)" --chunk 16 --timeout 10s

  # Write without response (faster, no ACK)
  gattop write %s 180d 2a39 "data" --without-response

%s`, exampleDeviceAddress, exampleDeviceAddress, exampleDeviceAddress, exampleDeviceAddress, deviceAddressNote),
	Args: cobra.ExactArgs(4),
	RunE: runWrite,
}

var (
	writeHex        bool
	writeNoResponse bool
	writeChunkSize  int
	writeTimeout    time.Duration
)

func init() {
	writeCmd.Flags().BoolVar(&writeHex, "hex", false, "Parse input as hex string (e.g., 'FF01'); raw bytes by default")
	writeCmd.Flags().BoolVar(&writeNoResponse, "without-response", false, "Write without response (faster, no ACK); default waits for ACK, if available")
	writeCmd.Flags().IntVar(&writeChunkSize, "chunk", 0, "Force writes into N-byte chunks; default 0, auto-detect from MTU")
	writeCmd.Flags().DurationVar(&writeTimeout, "timeout", operation.DefaultTimeout, "Deadline for the whole write")
}

func runWrite(cmd *cobra.Command, args []string) error {
	address := args[0]

	uuids, err := device.ValidateUUID(args[1], args[2])
	if err != nil {
		return err
	}
	service, char := uuids[0], uuids[1]

	data, err := parseWriteData(args[3])
	if err != nil {
		return fmt.Errorf("failed to parse data: %w", err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyWriteFlags(cmd, cfg)

	logger, err := configureLogger(cmd, cfg)
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	out := cmd.OutOrStdout()
	progress := NewProgressPrinter(out, fmt.Sprintf("Writing %d bytes to %s/%s on %s", len(data), service, char, address), "Connecting")
	if cfg.OutputFormat == config.OutputText && progressEnabled(out) {
		progress.Start()
	}
	defer progress.Stop()

	started := time.Now()
	chunks := 0
	onChunk := progress.Chunks()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	err = withSession(ctx, address, cfg, logger, func(p device.Peripheral) error {
		progress.SetPhase("Writing")

		w := operation.NewWrite(service, char, data,
			operation.WithTimeout(cfg.OperationTimeout),
			operation.WithLogger(logger),
			operation.WithProgress(func(sent, total int) {
				chunks++
				onChunk(sent, total)
			}),
		)
		if err := w.Execute(p); err != nil {
			return err
		}
		return w.Wait(ctx)
	})
	progress.Stop()
	if err != nil {
		return fmt.Errorf("failed to write characteristic: %w", err)
	}

	if cfg.OutputFormat == config.OutputJSON {
		report := newReport("write", address, service, char, started)
		report.Bytes = len(data)
		report.Chunks = chunks
		return writeReport(out, report)
	}

	_, _ = color.New(color.FgGreen).Fprintf(out, "Write successful")
	_, _ = fmt.Fprintf(out, " (%d bytes)\n", len(data))
	return nil
}

// applyWriteFlags lets explicitly set flags override the config file
func applyWriteFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("timeout") || !flags.Changed("config") {
		cfg.OperationTimeout = writeTimeout
	}
	if flags.Changed("chunk") {
		cfg.ChunkSize = writeChunkSize
	}
	if flags.Changed("without-response") {
		cfg.WriteWithoutResponse = writeNoResponse
	}
}

// parseWriteData converts input string to bytes based on format flags
func parseWriteData(dataStr string) ([]byte, error) {
	if writeHex {
		// Remove spaces and common separators
		cleaned := strings.ReplaceAll(dataStr, " ", "")
		cleaned = strings.ReplaceAll(cleaned, ":", "")
		cleaned = strings.ReplaceAll(cleaned, "-", "")
		cleaned = strings.ReplaceAll(cleaned, "0x", "")

		data, err := hex.DecodeString(cleaned)
		if err != nil {
			return nil, fmt.Errorf("invalid hex data: %w", err)
		}
		return data, nil
	}

	return []byte(dataStr), nil
}
