package observability

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/job-fit-analyzer/internal/db"
)

func TestPrintRun(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	run := &db.AnalysisRun{
		ID:        uuid.New(),
		JobID:     uuid.New(),
		Status:    db.RunStatusCompleted,
		CreatedAt: time.Now(),
	}
	p.PrintRun(run)

	out := buf.String()
	assert.Contains(t, out, run.ID.String())
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "(none)")
}

func TestPrintRun_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintRun(nil)
	assert.Empty(t, buf.String())
}

func TestPrintResults(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintResults([]db.AnalysisResult{
		{Section: "summary", Content: json.RawMessage(`{"headline": "Strong match"}`)},
	})

	out := buf.String()
	assert.Contains(t, out, "Section: summary")
	assert.Contains(t, out, "headline")
}

func TestPrintResults_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintResults(nil)
	assert.Contains(t, buf.String(), "No sections persisted.")
}
