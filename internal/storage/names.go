package storage

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Table kinds used in output names
const (
	KindPosts    = "posts"
	KindComments = "comments"
	KindLayoffs  = "layoffs"
	KindCombined = "combined"
	KindReport   = "report"
)

// AllChannels prefixes tables that span every configured channel
const AllChannels = "all"

const stampLayout = "20060102_150405"

// TimestampedName builds <channel>_<kind>_<YYYYMMDD_HHMMSS>.<ext>
func TimestampedName(channel, kind, ext string, at time.Time) string {
	return fmt.Sprintf("%s_%s_%s.%s", channel, kind, at.UTC().Format(stampLayout), ext)
}

// Latest returns the newest stored table for a channel and kind. Timestamps
// sort lexically, so the largest name wins.
func Latest(ctx context.Context, store StorageInterface, channel, kind, ext string) (string, error) {
	names, err := store.List(ctx, channel+"_"+kind+"_")
	if err != nil {
		return "", err
	}
	latest := ""
	for _, n := range names {
		if !strings.HasSuffix(n, "."+ext) {
			continue
		}
		if n > latest {
			latest = n
		}
	}
	if latest == "" {
		return "", fmt.Errorf("no %s_%s_*.%s table: %w", channel, kind, ext, ErrNotFound)
	}
	return latest, nil
}
