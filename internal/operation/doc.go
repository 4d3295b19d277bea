// Package operation executes single GATT requests against a connected peripheral.
//
// An operation is built with its target and payload, then stays dormant until
// Execute hands it a device.Peripheral. From there its pipeline runs on the
// configured scheduler and races a deadline. Every observer of the operation
// shares one Result, which is resolved exactly once:
//   - success after the last chunk is acknowledged
//   - the transport's own error for the first chunk that fails
//   - device.ErrTimeout when the deadline elapses first
//   - device.ErrInvalidConfiguration for a non-positive write length or timeout
//
// A timeout stops further chunks from being issued but does not abort a chunk
// already handed to the transport.
package operation
