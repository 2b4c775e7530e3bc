package debug

// Memory/RSS periodic logger enabled when config.Debug is true.
// Logs resident set size along with Go heap stats so native capture buffers
// can be told apart from heap growth.

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// StartMemLogger logs memory stats every interval until ctx ends. RSS query
// failures are logged once and suppressed.
func StartMemLogger(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if logger == nil {
		return
	}
	go func() {
		proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
		if err != nil {
			logger.Warn("memstats: process handle unavailable", "error", err)
		}
		var warned bool
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
			var ms runtime.MemStats
			runtime.ReadMemStats(&ms)
			attrs := []any{
				slog.Uint64("heap_alloc", ms.HeapAlloc),
				slog.Uint64("heap_inuse", ms.HeapInuse),
				slog.Uint64("heap_sys", ms.HeapSys),
				slog.Uint64("sys", ms.Sys),
				slog.Uint64("num_gc", uint64(ms.NumGC)),
			}
			if proc != nil {
				if mi, err := proc.MemoryInfoWithContext(ctx); err == nil {
					attrs = append(attrs, slog.Uint64("rss", mi.RSS), slog.Uint64("vms", mi.VMS))
				} else if !warned {
					warned = true
					logger.Warn("memstats: rss query failed", "error", err)
				}
			}
			logger.Info("memstats", attrs...)
		}
	}()
}
