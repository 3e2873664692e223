package spc

import "math"

// CUSUM is a tabular cumulative-sum monitor for small sustained shifts.
type CUSUM struct {
	Target, Sigma, K, H float64
	high, low           float64
}

// NewCUSUM constructs a CUSUM with the given target/sigma/slack(k)/decision
// interval(h), all expressed in the process's own units except k and h
// which are sigma multipliers.
func NewCUSUM(target, sigma, k, h float64) *CUSUM {
	return &CUSUM{Target: target, Sigma: sigma, K: k, H: h}
}

// Add folds in a new observation, returning the updated (C+, C-, signaled).
func (c *CUSUM) Add(x float64) (high, low float64, signaled bool) {
	slack := c.K * c.Sigma
	c.high = math.Max(0, c.high+x-c.Target-slack)
	c.low = math.Max(0, c.low-x+c.Target-slack)

	threshold := c.H * c.Sigma
	signaled = c.high > threshold || c.low > threshold
	return c.high, c.low, signaled
}

// Reset zeroes both running sums.
func (c *CUSUM) Reset() {
	c.high = 0
	c.low = 0
}
