package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/proppant-cli/internal/model"
)

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	d := model.NewDiagnostics()
	d.JobsSeen, d.JobsApportioned = 120, 117
	runs := []model.Run{
		{
			ID:          "abc12345-6789-0000-0000-000000000000",
			Input:       "registry.zip",
			Status:      model.RunStatusComplete,
			Diagnostics: &d,
			Tables:      []string{"quarterly", "quarterly_basin"},
			CreatedAt:   now,
			UpdatedAt:   now.Add(2 * time.Minute),
		},
		{
			ID:        "def12345-6789-0000-0000-000000000000",
			Input:     "/data/fracfocus/extract/FracFocusRegistry_1.csv",
			Status:    model.RunStatusFailed,
			CreatedAt: now.Add(-1 * time.Hour),
			UpdatedAt: now.Add(-1 * time.Hour),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "INPUT")
	assert.Contains(t, output, "STATUS")
	assert.Contains(t, output, "registry.zip")
	assert.Contains(t, output, "complete")
	assert.Contains(t, output, "117/120")
	assert.Contains(t, output, "failed")
	assert.Contains(t, output, "/data/fracfocus/extract/Fra...")
	assert.Contains(t, output, "2025-06-15 10:30")
	assert.Contains(t, output, "abc12345")
	assert.NotContains(t, output, "abc12345-6789")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789"))
	assert.Equal(t, "short", truncateID("short"))
}
