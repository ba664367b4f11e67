package hrm

import (
	"time"

	"github.com/mcuadros/go-defaults"
)

// Options tunes scanning and connection timing.
type Options struct {
	ScanTimeout      time.Duration `default:"20s"`
	SettleDelay      time.Duration `default:"100ms"`
	ReconnectDelay   time.Duration `default:"3s"`
	ConnectTimeout   time.Duration `default:"30s"`
	DiscoveryTimeout time.Duration `default:"10s"`

	// MaxReconnectAttempts bounds consecutive reconnects; 0 retries forever.
	// The counter resets once streaming resumes.
	MaxReconnectAttempts int `default:"0"`

	InboxSize int `default:"64"`

	// CloseTimeout bounds how long Close waits for platform calls in flight.
	CloseTimeout time.Duration `default:"5s"`

	Filter ScanFilter
}

// DefaultOptions returns Options populated from their default tags.
func DefaultOptions() *Options {
	opts := &Options{}
	defaults.SetDefaults(opts)
	opts.Filter = DefaultScanFilter()
	return opts
}

// withDefaults fills zero fields so partially built Options stay usable.
func (o *Options) withDefaults() *Options {
	d := DefaultOptions()
	if o == nil {
		return d
	}
	out := *o
	if out.ScanTimeout <= 0 {
		out.ScanTimeout = d.ScanTimeout
	}
	if out.SettleDelay < 0 {
		out.SettleDelay = d.SettleDelay
	}
	if out.ReconnectDelay <= 0 {
		out.ReconnectDelay = d.ReconnectDelay
	}
	if out.ConnectTimeout <= 0 {
		out.ConnectTimeout = d.ConnectTimeout
	}
	if out.DiscoveryTimeout <= 0 {
		out.DiscoveryTimeout = d.DiscoveryTimeout
	}
	if out.MaxReconnectAttempts < 0 {
		out.MaxReconnectAttempts = 0
	}
	if out.InboxSize <= 0 {
		out.InboxSize = d.InboxSize
	}
	if out.CloseTimeout <= 0 {
		out.CloseTimeout = d.CloseTimeout
	}
	if out.Filter.ServiceUUID == "" && len(out.Filter.NamePatterns) == 0 {
		out.Filter = d.Filter
	}
	return &out
}
