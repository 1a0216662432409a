package repository

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func TestPoolOptionsApply(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		opts    PoolOptions
		maxConn int32
		minConn int32
		appName string
	}{
		{
			name:    "configured sizes",
			url:     "postgres://localhost/clickpulse",
			opts:    PoolOptions{MaxConns: 8, MinConns: 1, MaxConnIdleTime: time.Minute},
			maxConn: 8,
			minConn: 1,
			appName: applicationName,
		},
		{
			name:    "url keeps its application name",
			url:     "postgres://localhost/clickpulse?application_name=ops&pool_max_conns=3",
			maxConn: 3,
			appName: "ops",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := pgxpool.ParseConfig(tt.url)
			if err != nil {
				t.Fatalf("ParseConfig: %v", err)
			}
			tt.opts.apply(cfg)
			if cfg.MaxConns != tt.maxConn || cfg.MinConns != tt.minConn {
				t.Fatalf("conns = %d/%d, want %d/%d", cfg.MaxConns, cfg.MinConns, tt.maxConn, tt.minConn)
			}
			if got := cfg.ConnConfig.RuntimeParams["application_name"]; got != tt.appName {
				t.Fatalf("application_name = %q, want %q", got, tt.appName)
			}
			if tt.opts.MaxConnIdleTime > 0 && cfg.MaxConnIdleTime != tt.opts.MaxConnIdleTime {
				t.Fatalf("MaxConnIdleTime = %v", cfg.MaxConnIdleTime)
			}
		})
	}
}
