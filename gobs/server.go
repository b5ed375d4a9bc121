// Copyright (c) 2025 BVK Chaitanya

package gobs

type ServerState struct {
	// UseKeys enables keys as a settlement currency for user trades.
	UseKeys bool

	// DonationRecipient receives donation cart offers.
	DonationRecipient string
}
