// Copyright (c) 2025 BVK Chaitanya

package server

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/bvk/barterbot/api"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

func (s *Server) doStatus(ctx context.Context, req *api.StatusRequest) (*api.StatusResponse, error) {
	resp := &api.StatusResponse{
		PID:       os.Getpid(),
		StartTime: s.startTime,
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),

		NumCarts:      s.sessions.NumCarts(),
		NumItems:      s.invManager.TotalItemCount(),
		NumPricelist:  len(s.priceList.Entries()),
		KeyValueScrap: s.priceList.KeyValue(),
	}

	if avg, err := load.AvgWithContext(ctx); err != nil {
		slog.WarnContext(ctx, "could not read host load averages (ignored)", "error", err)
	} else {
		resp.LoadAvg1 = avg.Load1
		resp.LoadAvg5 = avg.Load5
		resp.LoadAvg15 = avg.Load15
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		slog.WarnContext(ctx, "could not read host memory usage (ignored)", "error", err)
	} else {
		resp.MemUsedPercent = vm.UsedPercent
	}
	return resp, nil
}
