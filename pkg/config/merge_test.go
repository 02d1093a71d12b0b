package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type poolSection struct {
	MaxConns int32
	Timeout  time.Duration
}

type mergeTarget struct {
	Name    string
	Enabled bool
	Pool    poolSection
	Primary *poolSection
	Tags    []string
	Labels  map[string]string
}

func TestMergeConfig(t *testing.T) {
	dst := &mergeTarget{
		Name:   "economy",
		Pool:   poolSection{MaxConns: 25, Timeout: time.Second},
		Tags:   []string{"a", "b"},
		Labels: map[string]string{"env": "dev", "team": "zot"},
	}
	src := &mergeTarget{
		Enabled: true,
		Pool:    poolSection{MaxConns: 50},
		Primary: &poolSection{MaxConns: 5},
		Tags:    []string{"c"},
		Labels:  map[string]string{"env": "prod"},
	}

	got, err := MergeConfig(dst, src)
	require.NoError(t, err)

	assert.Same(t, dst, got)
	assert.Equal(t, "economy", got.Name)
	assert.True(t, got.Enabled)
	assert.Equal(t, int32(50), got.Pool.MaxConns)
	assert.Equal(t, time.Second, got.Pool.Timeout, "zero src field must not override")
	require.NotNil(t, got.Primary)
	assert.Equal(t, int32(5), got.Primary.MaxConns)
	assert.Equal(t, []string{"c"}, got.Tags)
	assert.Equal(t, map[string]string{"env": "prod", "team": "zot"}, got.Labels)
}

func TestMergeConfigNil(t *testing.T) {
	a := &mergeTarget{Name: "a"}

	got, err := MergeConfig(a, nil)
	require.NoError(t, err)
	assert.Same(t, a, got)

	got, err = MergeConfig(nil, a)
	require.NoError(t, err)
	assert.Same(t, a, got)

	_, err = MergeConfig[mergeTarget](nil, nil)
	assert.Error(t, err)
}
