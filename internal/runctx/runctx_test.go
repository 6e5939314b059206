package runctx

import (
	"context"
	"testing"
)

func TestWithRunID_GeneratesID(t *testing.T) {
	ctx := WithRunID(context.Background())

	runID := RunID(ctx)
	if runID == "" {
		t.Fatal("Expected run ID to be generated, got empty string")
	}

	// Verify it looks like a UUID (36 chars with dashes)
	if len(runID) != 36 {
		t.Errorf("Expected UUID format (36 chars), got %d chars: %s", len(runID), runID)
	}
}

func TestWithRunID_PreservesExistingID(t *testing.T) {
	existingID := "test-run-id-12345"
	ctx := WithGivenRunID(context.Background(), existingID)

	ctx = WithRunID(ctx)
	if got := RunID(ctx); got != existingID {
		t.Errorf("Expected run ID %s, got %s", existingID, got)
	}
}

func TestRunID_EmptyContext(t *testing.T) {
	if runID := RunID(context.Background()); runID != "" {
		t.Errorf("Expected empty run ID from empty context, got %s", runID)
	}
}
