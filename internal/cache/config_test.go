package cache

import (
	"strings"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "empty mode",
			cfg:     Config{},
			wantErr: "mode is required",
		},
		{
			name:    "unknown mode",
			cfg:     Config{Mode: "memcached"},
			wantErr: "unknown mode",
		},
		{
			name:    "redis without url",
			cfg:     Config{Mode: ModeRedis},
			wantErr: "redis.url is required",
		},
		{
			name: "redis with url",
			cfg:  Config{Mode: ModeRedis, Redis: RedisConfig{URL: "redis://localhost:6379/0"}},
		},
		{
			name:    "ha client without addresses",
			cfg:     Config{Mode: ModeHA},
			wantErr: "olric.addresses required",
		},
		{
			name:    "ha embedded without bind addr",
			cfg:     Config{Mode: ModeHA, Olric: OlricConfig{Embedded: true}},
			wantErr: "olric.bind_addr required",
		},
		{
			name: "ha embedded with bind addr",
			cfg:  Config{Mode: ModeHA, Olric: OlricConfig{Embedded: true, BindAddr: "127.0.0.1:7320"}},
		},
		{
			name:    "single without counters",
			cfg:     Config{Mode: ModeSingle, Ristretto: RistrettoConfig{MaxCost: 1 << 20}},
			wantErr: "num_counters must be positive",
		},
		{
			name:    "single without max cost",
			cfg:     Config{Mode: ModeSingle, Ristretto: RistrettoConfig{NumCounters: 1000}},
			wantErr: "max_cost must be positive",
		},
		{
			name: "single valid",
			cfg:  Config{Mode: ModeSingle, Ristretto: DefaultRistrettoConfig()},
		},
		{
			name: "disabled",
			cfg:  Config{Mode: ModeDisabled},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultOlricConfigDMapName(t *testing.T) {
	// Backends that fall back on an unset dmap_name read it from here.
	if got := DefaultOlricConfig().DMapName; got != "statsbridge" {
		t.Errorf("DMapName = %q, want statsbridge", got)
	}
}

func TestConfigEnabled(t *testing.T) {
	if (&Config{Mode: ModeDisabled}).Enabled() {
		t.Error("disabled mode reported as enabled")
	}
	if (&Config{}).Enabled() {
		t.Error("empty mode reported as enabled")
	}
	if !(&Config{Mode: ModeSingle}).Enabled() {
		t.Error("single mode reported as disabled")
	}
	if !(&Config{Mode: ModeRedis}).Enabled() {
		t.Error("redis mode reported as disabled")
	}
}
