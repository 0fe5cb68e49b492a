package pagination

import (
	"testing"
	"time"
)

type row struct {
	id int64
}

func TestPositionRoundTrip(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 30, 0, 123456789, time.UTC)
	token := EncodePosition(42, at)
	if token == "" {
		t.Fatalf("expected token")
	}

	pos, err := DecodePosition(token)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if pos.ID != 42 || !pos.At.Equal(at) {
		t.Fatalf("unexpected position %+v", pos)
	}
}

func TestDecodePositionRejectsGarbage(t *testing.T) {
	if pos, err := DecodePosition(""); err != nil || pos != nil {
		t.Fatalf("expected nil position for empty token, got %v %v", pos, err)
	}
	if _, err := DecodePosition("not-a-token"); err != ErrInvalidPageToken {
		t.Fatalf("expected ErrInvalidPageToken, got %v", err)
	}
}

func TestBuildCursorPageInfo(t *testing.T) {
	rows := []*row{{id: 3}, {id: 2}, {id: 1}}
	info := BuildCursorPageInfo(rows, 2, func(r *row) string {
		return EncodePosition(r.id, time.Unix(r.id, 0))
	})
	if !info.HasMore {
		t.Fatalf("expected has_more")
	}
	pos, err := DecodePosition(info.NextPageToken)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if pos.ID != 2 {
		t.Fatalf("expected cursor at id 2, got %d", pos.ID)
	}

	last := BuildCursorPageInfo(rows[:2], 2, func(r *row) string { return "x" })
	if last.HasMore || last.NextPageToken != "" {
		t.Fatalf("expected final page, got %+v", last)
	}
}
