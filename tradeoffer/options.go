// Copyright (c) 2025 BVK Chaitanya

package tradeoffer

import "time"

var (
	RestHostname      = "trade.backpack.example"
	WebsocketHostname = "trade-stream.backpack.example"
)

type Options struct {
	// Hostnames for the REST and WebSocket service endpoints.
	RestHostname      string
	WebsocketHostname string

	// Timeout to use for the HTTP requests.
	HttpClientTimeout time.Duration
}

func (v *Options) setDefaults() {
	if v.RestHostname == "" {
		v.RestHostname = RestHostname
	}
	if v.WebsocketHostname == "" {
		v.WebsocketHostname = WebsocketHostname
	}
	if v.HttpClientTimeout == 0 {
		v.HttpClientTimeout = 10 * time.Second
	}
}

func (v *Options) Check() error {
	v.setDefaults()
	return nil
}
