// Package filter holds the pure candidate filters: freshness and the
// promotional-keyword blocklist. No side effects, no I/O.
package filter

import (
	"strings"
	"time"

	"github.com/HSMDove/feedpulse/internal/model"
)

// FreshnessWindow is how far back an item's publish date may lie before the
// item is considered stale. The boundary is inclusive: exactly 14 days old
// still passes.
const FreshnessWindow = 14 * 24 * time.Hour

// promoKeywords is a flat bilingual substring blocklist for deals, ads,
// giveaways and sponsored posts. Blunt by intent: no fuzzy matching, no
// scoring, a legitimate headline containing "free trial" is rejected too.
var promoKeywords = []string{
	"discount",
	"% off",
	"promo code",
	"coupon",
	"giveaway",
	"sponsored",
	"limited time offer",
	"flash sale",
	"free trial",
	"خصم",
	"تخفيض",
	"عرض خاص",
	"كوبون",
	"إعلان",
	"اعلان",
	"مسابقة",
	"برعاية",
}

// Fresh reports whether the item can be proven recent: it must carry a
// parseable publish date no older than the freshness window. Items with a
// missing date are rejected outright.
func Fresh(item model.Item, now time.Time) bool {
	if item.Published.IsZero() {
		return false
	}
	return now.Sub(item.Published) <= FreshnessWindow
}

// Promotional reports whether the item's title or summary contains any
// blocklisted keyword, case-insensitively. Extra keywords from the
// deployment config extend the built-in list.
func Promotional(item model.Item, extra []string) bool {
	haystack := strings.ToLower(item.Title + " " + item.Summary)
	for _, kw := range promoKeywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	for _, kw := range extra {
		if kw == "" {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
