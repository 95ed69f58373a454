// Package source implements the per-platform fetch adapters. Every adapter
// satisfies the same contract: given a configured source, return normalized
// content candidates or a descriptive error. Social platforms are fallback
// chains over increasingly unreliable strategies rather than single calls.
package source

import (
	"context"

	"github.com/HSMDove/feedpulse/internal/fetch"
	"github.com/HSMDove/feedpulse/internal/model"
)

type Source interface {
	ID() int64
	Name() string
	Platform() model.Platform
	Fetch(ctx context.Context) ([]model.Item, error)
}

// meta carries the configured source record and implements the identity
// accessors shared by every adapter.
type meta struct {
	src model.Source
}

func (m meta) ID() int64                { return m.src.ID }
func (m meta) Name() string             { return m.src.Name }
func (m meta) Platform() model.Platform { return m.src.Platform }

// FromModel builds the adapter matching the source's platform. Unknown
// platforms fall back to plain RSS, which is also the storage default.
func FromModel(m model.Source, client *fetch.Client, keywords []string) Source {
	switch m.Platform {
	case model.PlatformWebsite:
		return NewWebsiteSource(m, client, keywords)
	case model.PlatformYouTube:
		return NewYouTubeSource(m, client)
	case model.PlatformTwitter:
		return NewTwitterSource(m, client, keywords)
	case model.PlatformTikTok:
		return NewTikTokSource(m, client, keywords)
	default:
		return NewRSSSource(m, client, keywords)
	}
}
