package conversion

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert(t *testing.T) {
	tests := []struct {
		name  string
		pool  Pool
		delta int64
		want  Pool
	}{
		{"damage without ants hits health", Pool{50, 0}, -20, Pool{30, 0}},
		{"damage drains ants first", Pool{50, 15}, -20, Pool{45, 0}},
		{"damage fully absorbed by ants", Pool{50, 30}, -20, Pool{50, 10}},
		{"damage floors health at zero", Pool{10, 2}, -20, Pool{0, 0}},
		{"heal below cap", Pool{40, 3}, 10, Pool{50, 3}},
		{"heal overflows into ants", Pool{95, 3}, 12, Pool{100, 10}},
		{"heal at cap goes to ants", Pool{100, 0}, 24, Pool{100, 24}},
		{"zero is a no-op", Pool{42, 7}, 0, Pool{42, 7}},
		{"heal dead pool", Pool{0, 0}, 5, Pool{5, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Convert(tt.pool, tt.delta))
		})
	}
}

func TestIsDead(t *testing.T) {
	assert.True(t, Convert(Pool{5, 0}, -5).IsDead())
	assert.False(t, Convert(Pool{5, 1}, -5).IsDead())
}

func TestHealthEditDelta(t *testing.T) {
	for _, d := range []int64{-20, -10, -5, 5, 10, 20} {
		got, err := HealthEditDelta(d)
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}

	for _, d := range []int64{0, 1, -1, 15, 21, -100} {
		_, err := HealthEditDelta(d)
		assert.True(t, errors.Is(err, ErrHealthDeltaNotAllowed), "delta %d", d)
	}
}

func TestAntStepDelta(t *testing.T) {
	tests := []struct {
		step int64
		want int64
	}{
		{-3, -36},
		{-2, -24},
		{-1, -12},
		{1, 12},
		{2, 24},
	}
	for _, tt := range tests {
		got, err := AntStepDelta(tt.step)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	for _, s := range []int64{0, 3, -4, 12} {
		_, err := AntStepDelta(s)
		assert.True(t, errors.Is(err, ErrAntStepNotAllowed), "step %d", s)
	}
}

func TestAntStepOnFullishPool(t *testing.T) {
	delta, err := AntStepDelta(1)
	require.NoError(t, err)
	assert.Equal(t, Pool{100, 10}, Convert(Pool{95, 3}, delta))
}

func TestVirtualPool(t *testing.T) {
	assert.Equal(t, int64(0), Convert(VirtualPool(5), -12).Ants)
	assert.Equal(t, int64(29), Convert(VirtualPool(5), 24).Ants)
}

func TestAllowedSetsAreCopies(t *testing.T) {
	steps := AntSteps()
	steps[0] = 99
	assert.Equal(t, int64(-3), AntSteps()[0])
	assert.Len(t, HealthDeltas(), 6)
}

func FuzzConvert(f *testing.F) {
	f.Add(int64(50), int64(0), int64(-20))
	f.Add(int64(50), int64(15), int64(-20))
	f.Add(int64(95), int64(3), int64(12))
	f.Add(int64(0), int64(0), int64(0))

	f.Fuzz(func(t *testing.T, health, ants, delta int64) {
		// 约束到合法状态与合理量级，避免溢出
		health = abs(health) % (MaxHealth + 1)
		ants = abs(ants) % 1_000_000
		delta = delta % 1_000

		p := Pool{Health: health, Ants: ants}
		got := Convert(p, delta)

		assert.GreaterOrEqual(t, got.Health, int64(0))
		assert.LessOrEqual(t, got.Health, MaxHealth)
		assert.GreaterOrEqual(t, got.Ants, int64(0))
		assert.Equal(t, got.Health == 0, got.IsDead())

		switch {
		case delta < 0:
			d := -delta
			assert.Equal(t, ants, got.Ants+min(d, ants))
			assert.LessOrEqual(t, got.Health, health)
		case delta > 0:
			assert.Equal(t, delta, (got.Health-health)+(got.Ants-ants))
			if health+delta <= MaxHealth {
				assert.Equal(t, health+delta, got.Health)
			}
		default:
			assert.Equal(t, p, got)
		}
	})
}

func abs(v int64) int64 {
	if v < 0 {
		if v == -v {
			return 0
		}
		return -v
	}
	return v
}
