package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"hermes/internal/failure"
	"hermes/internal/logging"
)

// Locator is asked for a replacement media path after every candidate was
// missing. Returning "" with a nil error gives up.
type Locator func(ctx context.Context, tried []string) (string, error)

// Locate opens the first candidate that exists. When none does, locator (if
// non-nil) gets one chance to supply a path. The error carries
// failure.ErrMediaNotFound when nothing could be opened.
func Locate(ctx context.Context, candidates []string, locator Locator, logger *slog.Logger) (*Track, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	var tried []string
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		tried = append(tried, candidate)
		if !isRegularFile(candidate) {
			logger.Debug("media candidate missing", logging.String("path", candidate))
			continue
		}
		track, err := OpenTrack(candidate)
		if err != nil {
			logger.Warn("media candidate unreadable", logging.String("path", candidate), logging.Error(err))
			continue
		}
		return track, nil
	}

	if locator != nil {
		manual, err := locator(ctx, tried)
		if err != nil {
			return nil, fmt.Errorf("locate media: %w", err)
		}
		if manual = strings.TrimSpace(manual); manual != "" {
			track, err := OpenTrack(manual)
			if err == nil {
				return track, nil
			}
			tried = append(tried, manual)
		}
	}

	detail := "no linked media"
	if len(tried) > 0 {
		detail = "tried " + strings.Join(tried, ", ")
	}
	return nil, failure.Wrap(failure.ErrMediaNotFound, "audio", "locate", detail, nil)
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
