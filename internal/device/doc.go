// Package device provides the platform-neutral Bluetooth Low Energy (BLE)
// central abstraction used by the heart-rate manager.
//
// It defines:
//   - Adapter: advertisement scanning and dialing peripherals by address
//   - Client: a live connection with GATT profile discovery and notifications
//   - Profile/Service/Characteristic: discovered GATT attributes with normalized UUIDs
//   - Structured errors shared by every backend (NotFoundError, ConnectionError, sentinels)
//
// The go-ble backed implementation lives in the go-ble subpackage; tests use
// the fakes from internal/testutils.
package device
