package services

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	inner := errors.New("chdman exited 1")
	err := Wrap(ErrTranscodeFailed, "transcoding", "createcd", "chdman reported an error", inner)
	if !errors.Is(err, ErrTranscodeFailed) {
		t.Fatalf("expected wrapped error to match ErrTranscodeFailed, got %v", err)
	}
	if !errors.Is(err, inner) {
		t.Fatalf("expected wrapped error to retain inner error, got %v", err)
	}
	if !strings.Contains(err.Error(), "transcoding: createcd") {
		t.Fatalf("expected stage detail in message, got %q", err.Error())
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "organizing", "", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected nil marker to default to ErrTransient, got %v", err)
	}
}

func TestWrapWithoutDetailUsesFallback(t *testing.T) {
	err := Wrap(ErrTransient, "", "", "", nil)
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestNeedsReview(t *testing.T) {
	cases := []struct {
		err    error
		review bool
	}{
		{Wrap(ErrUnknownFormat, "identifying", "classify", "no signature match", nil), true},
		{Wrap(ErrDestinationCollision, "organizing", "place", "already exists", nil), true},
		{Wrap(ErrConfiguration, "organizing", "resolve library dir", "missing", nil), true},
		{Wrap(ErrTranscodeFailed, "transcoding", "createcd", "exit 1", nil), false},
		{Wrap(ErrVerificationFailed, "transcoding", "verify", "hash mismatch", nil), false},
		{Wrap(ErrUnsupportedArchive, "ingest", "open", "bad header", nil), false},
	}
	for _, tc := range cases {
		if got := NeedsReview(tc.err); got != tc.review {
			t.Fatalf("NeedsReview(%v) = %v, want %v", tc.err, got, tc.review)
		}
	}
}

func TestItemContextRoundTrip(t *testing.T) {
	ctx := WithItemID(context.Background(), 42)
	ctx = WithStage(ctx, "transcoding")
	ctx = WithLane(ctx, "transcode")
	ctx = WithRequestID(ctx, "req-1")

	if id, ok := ItemIDFromContext(ctx); !ok || id != 42 {
		t.Fatalf("item id = %d, %v", id, ok)
	}
	if stage, ok := StageFromContext(ctx); !ok || stage != "transcoding" {
		t.Fatalf("stage = %q, %v", stage, ok)
	}
	if lane, ok := LaneFromContext(ctx); !ok || lane != "transcode" {
		t.Fatalf("lane = %q, %v", lane, ok)
	}
	if rid, ok := RequestIDFromContext(ctx); !ok || rid != "req-1" {
		t.Fatalf("request id = %q, %v", rid, ok)
	}
}
