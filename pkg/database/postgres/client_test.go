package postgres

import (
	"context"
	"os"
	"testing"
	"time"
)

// testConfig 集成测试配置，未设置 POCKETZOT_TEST_DSN 时跳过
func testConfig(t *testing.T) *Config {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	dsn := os.Getenv("POCKETZOT_TEST_DSN")
	if dsn == "" {
		t.Skip("POCKETZOT_TEST_DSN not set")
	}
	return &Config{
		DSN: dsn,
		Pool: PoolConfig{
			MaxConns: 10,
			MinConns: 1,
		},
		ConnectTimeout: 5 * time.Second,
		QueryTimeout:   10 * time.Second,
	}
}

// TestConfigValidation 测试配置验证
func TestConfigValidation(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config) *Config
		wantErr bool
	}{
		{
			name:    "nil config",
			mutate:  func(*Config) *Config { return nil },
			wantErr: true,
		},
		{
			name:    "default standalone",
			mutate:  func(c *Config) *Config { return c },
			wantErr: false,
		},
		{
			name: "dsn only",
			mutate: func(c *Config) *Config {
				c.Standalone = nil
				c.DSN = "postgres://u:p@localhost:5432/db"
				return c
			},
			wantErr: false,
		},
		{
			name: "no mode",
			mutate: func(c *Config) *Config {
				c.Standalone = nil
				return c
			},
			wantErr: true,
		},
		{
			name: "invalid port",
			mutate: func(c *Config) *Config {
				c.Standalone.Port = 70000
				return c
			},
			wantErr: true,
		},
		{
			name: "master wins over standalone",
			mutate: func(c *Config) *Config {
				c.Master = &DBConfig{Host: "db", Port: 5432, User: "u", DBName: "d"}
				return c
			},
			wantErr: false,
		},
		{
			name: "min conns above max",
			mutate: func(c *Config) *Config {
				c.Pool.MinConns = c.Pool.MaxConns + 1
				return c
			},
			wantErr: true,
		},
		{
			name: "zero retry attempts",
			mutate: func(c *Config) *Config {
				c.Retry.MaxAttempts = 0
				return c
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateConfig(tt.mutate(valid()))
			if (err != nil) != tt.wantErr {
				t.Errorf("validateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestBuildConnString 测试连接串拼接
func TestBuildConnString(t *testing.T) {
	cfg := DefaultConfig()
	got := buildConnString(cfg, &DBConfig{
		Host: "db", Port: 6543, User: "zot", Password: "secret", DBName: "pocketzot", SSLMode: "disable",
	})
	want := "host=db port=6543 user=zot password=secret dbname=pocketzot sslmode=disable connect_timeout=10"
	if got != want {
		t.Errorf("buildConnString() = %q, want %q", got, want)
	}
}

// TestClientPing 测试连接
func TestClientPing(t *testing.T) {
	client, err := New(testConfig(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer client.Close()

	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}

	client.Close()
	if err := client.Ping(context.Background()); err != ErrClientClosed {
		t.Errorf("Ping() after Close error = %v, want ErrClientClosed", err)
	}
}
