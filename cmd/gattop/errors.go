package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/srg/gattop/internal/device"
)

// FormatUserError turns operation and transport errors into a one-line message for the terminal.
func FormatUserError(err error) string {
	if err == nil {
		return ""
	}

	var notFound *device.NotFoundError
	switch {
	case errors.Is(err, device.ErrBluetoothOff):
		return "Bluetooth is turned off; enable it and try again"
	case errors.Is(err, device.ErrNotConnected):
		return fmt.Sprintf("device disconnected: %v", err)
	case errors.Is(err, device.ErrTimeout):
		return fmt.Sprintf("operation timed out (%v); try a larger --timeout", err)
	case errors.As(err, &notFound):
		return fmt.Sprintf("%v; check the service and characteristic UUIDs", notFound)
	case errors.Is(err, device.ErrUnsupported):
		return fmt.Sprintf("not supported by the device: %v", err)
	case errors.Is(err, device.ErrInvalidConfiguration):
		return fmt.Sprintf("invalid configuration: %v", err)
	default:
		return err.Error()
	}
}

// printError writes the formatted error, in red when w is a color-capable terminal
func printError(w io.Writer, err error) {
	red := color.New(color.FgRed, color.Bold)
	_, _ = red.Fprint(w, "ERROR: ")
	_, _ = fmt.Fprintln(w, FormatUserError(err))
}
