package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnreadableSource marks inputs that could not be opened or read.
	ErrUnreadableSource = errors.New("unreadable source")
	// ErrUnsupportedArchive marks corrupt or unrecognized archive containers.
	ErrUnsupportedArchive = errors.New("unsupported archive")
	// ErrUnknownFormat marks dumps whose console/format could not be classified.
	ErrUnknownFormat = errors.New("unknown format")
	// ErrTranscodeFailed marks conversion tool failures.
	ErrTranscodeFailed = errors.New("transcode failed")
	// ErrVerificationFailed marks outputs that did not match their source.
	ErrVerificationFailed = errors.New("verification failed")
	// ErrDestinationCollision marks library destinations that already exist.
	ErrDestinationCollision = errors.New("destination collision")
	// ErrConfiguration marks invalid or missing configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrTransient marks retryable failures with no more specific class.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later status classification. The marker should
// be one of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

// NeedsReview reports whether an error should route the item to manual review
// rather than a retryable failure. Unknown formats, destination collisions,
// and configuration problems are conditions a retry cannot fix.
func NeedsReview(err error) bool {
	switch {
	case errors.Is(err, ErrUnknownFormat),
		errors.Is(err, ErrDestinationCollision),
		errors.Is(err, ErrConfiguration):
		return true
	default:
		return false
	}
}
