// Copyright (c) 2025 BVK Chaitanya

package inventory

import "time"

var RestHostname = "api.backpack.example"

type Options struct {
	// Hostname for the inventory service REST endpoint.
	RestHostname string

	// Timeout to use for the HTTP requests.
	HttpClientTimeout time.Duration

	// Retry interval and overall deadline for one snapshot fetch. Item
	// servers fail transiently; a fetch retries until the deadline.
	RetryInterval time.Duration
	FetchTimeout  time.Duration
}

func (v *Options) setDefaults() {
	if v.RestHostname == "" {
		v.RestHostname = RestHostname
	}
	if v.HttpClientTimeout == 0 {
		v.HttpClientTimeout = 10 * time.Second
	}
	if v.RetryInterval == 0 {
		v.RetryInterval = 2 * time.Second
	}
	if v.FetchTimeout == 0 {
		v.FetchTimeout = 30 * time.Second
	}
}

func (v *Options) Check() error {
	v.setDefaults()
	return nil
}
