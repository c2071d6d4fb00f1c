package sla

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const reportCacheKey = "vendorflow:sla:report"

// ReportCache keeps the latest SLA report in Redis so dashboard polling does
// not rescan the vendor table. Strictly best-effort.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewReportCache(client *redis.Client, ttl time.Duration) *ReportCache {
	return &ReportCache{client: client, ttl: ttl}
}

func (c *ReportCache) Get(ctx context.Context) (Report, bool) {
	raw, err := c.client.Get(ctx, reportCacheKey).Bytes()
	if err != nil {
		// redis.Nil is an ordinary miss; anything else degrades to a miss too.
		return Report{}, false
	}
	var report Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return Report{}, false
	}
	return report, true
}

func (c *ReportCache) Set(ctx context.Context, report Report) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, reportCacheKey, raw, c.ttl).Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
