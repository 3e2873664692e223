package spc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEWMAValueReturnsStatisticWithoutMutating(t *testing.T) {
	e := NewEWMA(0, 1, 0.5, 3)
	e.Add(2)
	v := e.Value()
	assert.Equal(t, v, e.Value())
	assert.InDelta(t, 1.0, v, 1e-9)
}

func TestSummarizeClassifiesBySeverity(t *testing.T) {
	assert.Equal(t, StatusInControl, Summarize(nil))
	assert.Equal(t, StatusWarning, Summarize([]RuleViolation{
		{RuleNumber: 4, Severity: SeverityWarning},
	}))
	assert.Equal(t, StatusStable, Summarize([]RuleViolation{
		{RuleNumber: 7, Severity: SeverityInfo},
	}))
}
