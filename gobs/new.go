// Copyright (c) 2023 BVK Chaitanya

package gobs

import (
	"fmt"
)

func NewByTypename(typename string) (any, error) {
	var v any
	switch typename {
	case "PricelistEntry":
		v = new(PricelistEntry)
	case "InstanceOverride":
		v = new(InstanceOverride)
	case "OfferRecord":
		v = new(OfferRecord)
	case "ServerState":
		v = new(ServerState)
	case "TelegramState":
		v = new(TelegramState)
	case "KeyValue":
		v = new(KeyValue)
	default:
		return nil, fmt.Errorf("unsupported type name %q", typename)
	}
	return v, nil
}
