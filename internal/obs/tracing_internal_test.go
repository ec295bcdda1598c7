package obs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSamplerRatio(t *testing.T) {
	require.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
	require.Contains(t, sampler(0).Description(), "AlwaysOnSampler")
	require.Contains(t, sampler(3).Description(), "AlwaysOnSampler")
}
