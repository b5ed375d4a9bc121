// Copyright (c) 2025 BVK Chaitanya

package tradeoffer

import "fmt"

// Credentials holds the api key id and the signing key for the trading
// platform.
type Credentials struct {
	KID string `json:"kid"`
	PEM string `json:"pem"`
}

func (v *Credentials) Check() error {
	if len(v.KID) == 0 {
		return fmt.Errorf("api key id cannot be empty")
	}
	if len(v.PEM) == 0 {
		return fmt.Errorf("signing key cannot be empty")
	}
	return nil
}
