// Copyright (c) 2025 BVK Chaitanya

package trust

import "time"

var RestHostname = "rep.backpack.example"

type Options struct {
	// Hostname for the reputation service REST endpoint.
	RestHostname string

	// Timeout to use for the HTTP requests.
	HttpClientTimeout time.Duration

	// DupeChecksPerSecond throttles duplicate-item verification, which is
	// the service's most expensive endpoint.
	DupeChecksPerSecond float64
}

func (v *Options) setDefaults() {
	if v.RestHostname == "" {
		v.RestHostname = RestHostname
	}
	if v.HttpClientTimeout == 0 {
		v.HttpClientTimeout = 10 * time.Second
	}
	if v.DupeChecksPerSecond == 0 {
		v.DupeChecksPerSecond = 1
	}
}

func (v *Options) Check() error {
	v.setDefaults()
	return nil
}
