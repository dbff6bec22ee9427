package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Conceptual-Machines/magda-edit/internal/logger"
	gocache "github.com/patrickmn/go-cache"
)

const (
	DefaultMetadataTTL     = 10 * time.Minute
	defaultCleanupInterval = 30 * time.Minute
)

// Prober reads an ffprobe-style report for an asset
type Prober interface {
	Probe(ctx context.Context, asset string) (*Probe, error)
}

// MetadataService returns extended metadata for assets, cached per file version
type MetadataService struct {
	prober Prober
	cache  *gocache.Cache
	ttl    time.Duration
}

// NewMetadataService creates a service; ttl <= 0 uses DefaultMetadataTTL
func NewMetadataService(prober Prober, ttl time.Duration) *MetadataService {
	if ttl <= 0 {
		ttl = DefaultMetadataTTL
	}
	return &MetadataService{
		prober: prober,
		cache:  gocache.New(ttl, defaultCleanupInterval),
		ttl:    ttl,
	}
}

// BasicMetadata returns format, codec, bitrate, size and tags of the asset.
// The returned map is a copy the caller may modify.
func (s *MetadataService) BasicMetadata(ctx context.Context, asset string) (map[string]any, error) {
	key, err := cacheKey(asset)
	if err != nil {
		return nil, err
	}

	if value, found := s.cache.Get(key); found {
		if md, ok := value.(map[string]any); ok {
			logger.Debug("metadata cache hit", logger.Fields{"asset": asset})
			return copyMetadata(md), nil
		}
		logger.Warn("metadata cache held unexpected type", logger.Fields{"asset": asset})
	}

	probe, err := s.prober.Probe(ctx, asset)
	if err != nil {
		return nil, err
	}
	md := probe.Metadata()
	s.cache.Set(key, md, s.ttl)
	return copyMetadata(md), nil
}

// Forget drops every cached entry
func (s *MetadataService) Forget() {
	s.cache.Flush()
}

// cacheKey changes whenever the file is rewritten
func cacheKey(asset string) (string, error) {
	abs, err := filepath.Abs(asset)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", asset, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrAssetNotFound, asset)
	}
	return fmt.Sprintf("%s|%d|%d", abs, info.ModTime().UnixNano(), info.Size()), nil
}

func copyMetadata(md map[string]any) map[string]any {
	out := make(map[string]any, len(md))
	for k, v := range md {
		out[k] = v
	}
	return out
}
