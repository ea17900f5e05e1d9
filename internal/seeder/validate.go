package seeder

import (
	"context"
	"encoding/json"

	"github.com/rohmanhakim/url-seeder/internal/cache"
	"github.com/rohmanhakim/url-seeder/internal/config"
	"github.com/rohmanhakim/url-seeder/internal/extractor"
)

// validate performs the per-URL check the configuration asked for. It
// never returns an error: failures become not_valid records. Cache reads
// and writes are keyed by the queued URL, not the post-redirect one, so a
// rediscovered URL hits the cache regardless of where it redirects today.
func (s *Seeder) validate(ctx context.Context, url string, cfg config.SeedingConfig) URLRecord {
	checkRequested := cfg.LiveCheck() || cfg.ExtractHead()
	kind := cache.KindLive
	if cfg.ExtractHead() {
		kind = cache.KindHead
	}

	if checkRequested && !cfg.Force() {
		if cached, ok := s.loadRecord(kind, url); ok {
			return cached
		}
	}

	switch {
	case cfg.ExtractHead():
		// head extraction implies liveness; no separate HEAD is issued
		prefix, ok := s.client.FetchHeadPrefix(ctx, url)
		record := URLRecord{URL: url, Status: StatusNotValid}
		if prefix.FinalURL != "" {
			record.URL = prefix.FinalURL
		}
		if ok {
			record.Status = StatusValid
			record.HeadData = extractor.ParseHead(prefix.HTML)
		}
		s.storeRecord(kind, url, record)
		return record

	case cfg.LiveCheck():
		resolved, ok := s.client.ResolveHead(ctx, url, cfg.VerifyRedirectTargets())
		record := URLRecord{URL: url, Status: StatusNotValid}
		if ok {
			record.URL = resolved
			record.Status = StatusValid
		}
		s.storeRecord(kind, url, record)
		return record

	default:
		return URLRecord{URL: url, Status: StatusUnknown}
	}
}

func (s *Seeder) loadRecord(kind, url string) (URLRecord, bool) {
	data, ok := s.cache.GetEntry(kind, url)
	if !ok {
		return URLRecord{}, false
	}
	var stored cacheRecord
	if err := json.Unmarshal(data, &stored); err != nil || stored.URL == "" {
		return URLRecord{}, false
	}
	return URLRecord{
		URL:      stored.URL,
		Status:   stored.Status,
		HeadData: stored.HeadData,
	}, true
}

func (s *Seeder) storeRecord(kind, url string, record URLRecord) {
	data, err := json.Marshal(cacheRecord{
		URL:      record.URL,
		Status:   record.Status,
		HeadData: record.HeadData,
	})
	if err != nil {
		return
	}
	s.cache.SetEntry(kind, url, data)
}
