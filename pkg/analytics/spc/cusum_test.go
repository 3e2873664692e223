package spc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCUSUMSignalsOnSustainedShift(t *testing.T) {
	c := NewCUSUM(0, 1, 0.5, 4)
	var signaled bool
	for i := 0; i < 10; i++ {
		_, _, signaled = c.Add(2)
		if signaled {
			break
		}
	}
	assert.True(t, signaled)
}

func TestCUSUMResetZeroesSums(t *testing.T) {
	c := NewCUSUM(0, 1, 0.5, 4)
	c.Add(5)
	c.Reset()
	high, low, signaled := c.Add(0)
	assert.Equal(t, 0.0, high)
	assert.Equal(t, 0.0, low)
	assert.False(t, signaled)
}

func TestEWMATracksTargetWithNoShift(t *testing.T) {
	e := NewEWMA(10, 1, 0.2, 3)
	z, outOfControl := e.Add(10)
	assert.InDelta(t, 10.0, z, 1e-9)
	assert.False(t, outOfControl)
}

func TestEWMASignalsOnLargeSustainedShift(t *testing.T) {
	e := NewEWMA(0, 1, 0.5, 1)
	var outOfControl bool
	for i := 0; i < 10; i++ {
		_, outOfControl = e.Add(5)
		if outOfControl {
			break
		}
	}
	assert.True(t, outOfControl)
}
