package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandTree(t *testing.T) {
	root := newRootCmd()
	for _, path := range [][]string{
		{"migrate", "up"},
		{"migrate", "down"},
		{"migrate", "status"},
		{"seed"},
		{"price", "set"},
		{"inventory", "clear"},
	} {
		cmd, rest, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Empty(t, rest)
		assert.NotNil(t, cmd.RunE, path)
	}
}

func TestParsePrice(t *testing.T) {
	p, err := parsePrice("25")
	require.NoError(t, err)
	assert.Equal(t, int64(25), p)

	p, err = parsePrice("0")
	require.NoError(t, err)
	assert.Equal(t, int64(0), p)

	_, err = parsePrice("-1")
	assert.Error(t, err)
	_, err = parsePrice("ten")
	assert.Error(t, err)
}

// 参数错误在连接数据库之前返回
func TestArgumentsValidatedBeforeConnecting(t *testing.T) {
	tests := []struct {
		args []string
		msg  string
	}{
		{[]string{"price", "set", "Crown", "abc"}, "invalid price"},
		{[]string{"inventory", "clear", "zero"}, "invalid uid"},
		{[]string{"price", "set", "Crown"}, "accepts 2 arg(s)"},
	}
	for _, tt := range tests {
		root := newRootCmd()
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetErr(&out)
		root.SetArgs(append(tt.args, "--config", "does-not-exist.yaml"))

		err := root.Execute()
		require.Error(t, err, tt.args)
		assert.Contains(t, err.Error(), tt.msg)
	}
}
