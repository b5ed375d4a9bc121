// Copyright (c) 2025 BVK Chaitanya

package cart

import (
	"context"
	"log/slog"

	"github.com/bvk/barterbot/economy"
)

// PreSendOffer screens the constructed offer before it is handed to the
// transport. The ban and escrow checks are issued concurrently and joined;
// duplicate checks run as an ordered sequence because the external service
// rate-limits verification requests.
func (c *UserCart) PreSendOffer(ctx context.Context) error {
	if c.descriptor == nil {
		return rejectf("no constructed offer to validate")
	}
	if c.deps.Trust == nil {
		return nil
	}

	type result struct {
		value bool
		err   error
	}
	bannedCh := make(chan result, 1)
	escrowCh := make(chan result, 1)

	go func() {
		v, err := c.deps.Trust.IsBanned(ctx, c.partner)
		bannedCh <- result{v, err}
	}()
	go func() {
		v, err := c.deps.Trust.WouldEscrow(ctx, c.partner, c.offer)
		escrowCh <- result{v, err}
	}()

	banned, escrow := <-bannedCh, <-escrowCh
	if banned.err != nil || escrow.err != nil {
		slog.Error("could not run counterparty risk checks",
			"partner", c.partner, "bannedErr", banned.err, "escrowErr", escrow.err)
		return rejectf("failed to verify the trade, please try again later")
	}

	if banned.value {
		if err := c.deps.Trust.BlockTrader(ctx, c.partner); err != nil {
			slog.Error("could not block banned counterparty", "partner", c.partner, "err", err)
		} else {
			slog.Info("blocked banned counterparty", "partner", c.partner)
		}
		return rejectf("you are banned in one or more trading communities")
	}

	if escrow.value {
		return rejectf("trade would be held in escrow. I do not accept trade holds; " +
			"please enable a mobile authenticator to prevent this and try again")
	}

	if !c.deps.DupeCheckEnabled || len(c.descriptor.DupeCandidates) == 0 {
		return nil
	}
	if c.deps.Dupes == nil {
		return nil
	}

	for _, id := range c.descriptor.DupeCandidates {
		slog.Debug("checking instance for duplication", "instance", id)
		verdict, err := c.deps.Dupes.CheckDuplicate(ctx, id, c.deps.DupeContextID)
		if err != nil {
			slog.Error("could not check instance for duplication", "instance", id, "err", err)
			return rejectf("failed to check for duplicated items, try sending an offer instead")
		}
		switch verdict {
		case economy.DupeConfirmed:
			return rejectf("offer contains duplicated items")
		case economy.DupeIndeterminate:
			// Fail closed; suggest the slower manual path.
			return rejectf("failed to check for duplicated items, try sending an offer instead")
		}
	}
	return nil
}
