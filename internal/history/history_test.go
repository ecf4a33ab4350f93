package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunType(t *testing.T) {
	run := Run{
		Success:    true,
		RunAt:      time.Now(),
		InputFile:  "/docs/contract.docx",
		TextLength: 1200,
		Summary:    "Resumo do contrato.",
		EmailSent:  true,
	}

	assert.True(t, run.Success)
	assert.Equal(t, "/docs/contract.docx", run.InputFile)
	assert.Empty(t, run.FailedStage)
	assert.Empty(t, run.Error)
}

func TestRunFiltersDefaults(t *testing.T) {
	var filters RunFilters
	assert.Zero(t, filters.Limit)
	assert.False(t, filters.OnlyFailed)
}
