package store

import (
	"strings"
	"testing"
	"time"
)

func TestBuildDeltaQuery_IncrementalIncludesTombstones(t *testing.T) {
	since := time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC)

	query, args, err := buildDeltaQuery(1, &since)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(query, "deleted =") {
		t.Errorf("incremental delta must not filter out tombstones: %s", query)
	}
	if !strings.Contains(query, "last_modified >") {
		t.Errorf("expected a last_modified lower bound: %s", query)
	}
	if len(args) != 3 {
		t.Fatalf("expected userID twice and since as arguments, got %v", args)
	}
	if !args[2].(time.Time).Equal(since) {
		t.Errorf("expected since %v as argument, got %v", since, args[2])
	}
}

func TestBuildDeltaQuery_FullSyncSkipsTombstones(t *testing.T) {
	query, args, err := buildDeltaQuery(1, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(query, "deleted = $") {
		t.Errorf("full sync must exclude tombstones: %s", query)
	}
	if strings.Contains(query, "last_modified >") {
		t.Errorf("full sync must not have a lower bound: %s", query)
	}
	if len(args) != 3 {
		t.Fatalf("expected userID twice and the deleted flag, got %v", args)
	}
}
