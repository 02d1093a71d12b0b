package redis

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	c, err := NewClient(&Config{
		Enabled:    true,
		Standalone: &NodeConfig{Host: mr.Host(), Port: port},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestConfigValidate(t *testing.T) {
	node := &NodeConfig{Host: "localhost", Port: 6379}
	tests := []struct {
		name    string
		cfg     *Config
		wantErr error
	}{
		{"nil", nil, ErrNilConfig},
		{"no mode", &Config{}, ErrInvalidConfig},
		{"both modes", &Config{Standalone: node, Master: node}, ErrInvalidConfig},
		{"standalone", &Config{Standalone: node}, nil},
		{"bad balance", &Config{Master: node, Slaves: []NodeConfig{*node}, SlaveLoadBalance: "weighted"}, ErrInvalidSlaveLoadBalance},
		{"round robin", &Config{Master: node, Slaves: []NodeConfig{*node}, SlaveLoadBalance: "round_robin"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestGetSetDel(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNil)

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	mr.FastForward(2 * time.Minute)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNil)

	require.NoError(t, c.Set(ctx, "a", "1", 0))
	n, err := c.Del(ctx, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestObjects(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, SetObject(ctx, c, "obj", item{ID: 1, Name: "Crown", Price: 25}, time.Minute))
	got, err := GetObject[item](ctx, c, "obj")
	require.NoError(t, err)
	assert.Equal(t, "Crown", got.Name)

	_, err = GetObject[item](ctx, c, "nope")
	assert.ErrorIs(t, err, ErrNil)
}

func TestReplaceHashObjects(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, ReplaceHashObjects(ctx, c, "catalog", map[string]item{
		"1": {ID: 1, Name: "Plumber", Price: 5},
		"2": {ID: 2, Name: "Merrier", Price: 5},
	}, time.Minute))
	require.NoError(t, ReplaceHashObjects(ctx, c, "catalog", map[string]item{
		"3": {ID: 3, Name: "Egg", Price: 10},
	}, time.Minute))

	all, err := HGetAllObjects[item](ctx, c, "catalog")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Egg", all["3"].Name)
	assert.True(t, mr.TTL("catalog") > 0)

	one, err := HGetObject[item](ctx, c, "catalog", "3")
	require.NoError(t, err)
	assert.Equal(t, int64(10), one.Price)

	_, err = HGetObject[item](ctx, c, "catalog", "1")
	assert.ErrorIs(t, err, ErrNil)

	empty, err := HGetAllObjects[item](ctx, c, "absent")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
