// Package heartrate decodes the Bluetooth SIG Heart Rate Measurement
// characteristic (0x2A37) carried by the Heart Rate Service (0x180D).
package heartrate

import (
	"encoding/binary"
	"time"
)

// SIG UUIDs of the heart-rate profile, expanded onto the Bluetooth base UUID.
const (
	ServiceUUID      = "0000180d-0000-1000-8000-00805f9b34fb"
	MeasurementUUID  = "00002a37-0000-1000-8000-00805f9b34fb"
	ClientConfigUUID = "00002902-0000-1000-8000-00805f9b34fb"
)

// flagRateUint16 is bit 0 of the flags byte: the rate value is a little-endian uint16.
const flagRateUint16 = 0x01

// Sample is a single heart-rate reading.
type Sample struct {
	Rate       int       // beats per minute
	ReceivedAt time.Time // zero when produced by Decode; stamped by the receiver
}

// Decode parses a Heart Rate Measurement payload.
//
// Only the value format flag is interpreted; sensor contact, energy expended
// and RR-interval fields are ignored. Malformed or short payloads yield a rate
// of 0 instead of an error so a single bad notification cannot break a stream.
func Decode(data []byte) Sample {
	return Sample{Rate: ParseRate(data)}
}

// ParseRate returns the beats-per-minute value of a measurement payload.
func ParseRate(data []byte) int {
	if len(data) == 0 {
		return 0
	}

	if data[0]&flagRateUint16 != 0 {
		if len(data) < 3 {
			return 0
		}
		return int(binary.LittleEndian.Uint16(data[1:3]))
	}

	if len(data) < 2 {
		return 0
	}
	return int(data[1])
}
