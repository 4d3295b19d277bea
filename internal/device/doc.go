// Package device defines the peripheral capabilities GATT operations execute
// against, the error taxonomy shared by transports and operations, and UUID
// normalization helpers.
//
// Transport adapters (see the goble subpackage) implement:
//   - Peripheral: chunk writes bounded by MaxWriteLength
//   - CharacteristicReader: single characteristic reads
package device
