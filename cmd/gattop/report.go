package main

import (
	"encoding/hex"
	"encoding/json"
	"io"
	"strings"
	"time"
)

// Report is the machine-readable outcome of a successful command (--output json)
type Report struct {
	Operation      string `json:"operation"`
	Address        string `json:"address"`
	Service        string `json:"service"`
	Characteristic string `json:"characteristic"`
	Bytes          int    `json:"bytes"`
	Chunks         int    `json:"chunks,omitempty"`
	Value          string `json:"value,omitempty"` // upper-case hex
	ElapsedMs      int64  `json:"elapsed_ms"`
}

func newReport(operation, address, service, characteristic string, started time.Time) Report {
	return Report{
		Operation:      operation,
		Address:        address,
		Service:        service,
		Characteristic: characteristic,
		ElapsedMs:      time.Since(started).Milliseconds(),
	}
}

func (r Report) withValue(value []byte) Report {
	r.Bytes = len(value)
	r.Value = strings.ToUpper(hex.EncodeToString(value))
	return r
}

// writeReport prints r as indented JSON
func writeReport(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
