package config

import (
	"os"
	"testing"
	"time"
)

func TestRequireEnv(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		value     string
		shouldSet bool
		wantPanic bool
	}{
		{
			name:      "variable set",
			key:       "TEST_VAR",
			value:     "test_value",
			shouldSet: true,
			wantPanic: false,
		},
		{
			name:      "variable not set",
			key:       "TEST_VAR_MISSING",
			shouldSet: false,
			wantPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldSet {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("requireEnv() should have panicked")
					}
				}()
			}

			result := requireEnv(tt.key)
			if !tt.wantPanic && result != tt.value {
				t.Errorf("requireEnv() = %v, want %v", result, tt.value)
			}
		})
	}
}

func TestRequireEnvInt(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		value     string
		expected  int
		wantPanic bool
	}{
		{
			name:      "valid integer",
			key:       "TEST_INT",
			value:     "42",
			expected:  42,
			wantPanic: false,
		},
		{
			name:      "invalid integer",
			key:       "TEST_INT_INVALID",
			value:     "not_a_number",
			wantPanic: true,
		},
		{
			name:      "missing variable",
			key:       "TEST_INT_MISSING",
			value:     "",
			wantPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("requireEnvInt() should have panicked")
					}
				}()
			}

			result := requireEnvInt(tt.key)
			if !tt.wantPanic && result != tt.expected {
				t.Errorf("requireEnvInt() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected []string
	}{
		{
			name:     "single value",
			value:    "value1",
			expected: []string{"value1"},
		},
		{
			name:     "multiple values",
			value:    "value1, value2, value3",
			expected: []string{"value1", "value2", "value3"},
		},
		{
			name:     "quoted values and empty parts",
			value:    `"a", ,'b',`,
			expected: []string{"a", "b"},
		},
		{
			name:     "empty string",
			value:    "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := splitAndTrim(tt.value)
			if len(result) != len(tt.expected) {
				t.Fatalf("splitAndTrim() length = %v, want %v", len(result), len(tt.expected))
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("splitAndTrim()[%d] = %v, want %v", i, result[i], tt.expected[i])
				}
			}
		})
	}
}

const testSecret = "0123456789abcdef0123456789abcdef"

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("KEEP_JWT_SECRET", testSecret)
	t.Setenv("KEEP_REDIS_ADDR", "localhost:6379")
	t.Setenv("KEEP_REDIS_DB", "0")
	t.Setenv("KEEP_REDIS_PASSWORD_REQUIRED", "false")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg := Load()

	if cfg.ListenPort != ":8080" {
		t.Errorf("ListenPort = %v, want :8080", cfg.ListenPort)
	}
	if cfg.StoreDriver != DriverRedis {
		t.Errorf("StoreDriver = %v, want %v", cfg.StoreDriver, DriverRedis)
	}
	if cfg.SessionCookie != "keep_session" {
		t.Errorf("SessionCookie = %v, want keep_session", cfg.SessionCookie)
	}
	if cfg.SessionTTL != 7*24*time.Hour {
		t.Errorf("SessionTTL = %v, want 168h", cfg.SessionTTL)
	}
	if cfg.FeedBuffer != 64 {
		t.Errorf("FeedBuffer = %v, want 64", cfg.FeedBuffer)
	}
	if cfg.OAuthEnabled() {
		t.Error("OAuthEnabled() = true, want false without client id")
	}
	if cfg.SyncFile != "" || cfg.SyncInterval != 5*time.Minute {
		t.Errorf("SyncFile = %q SyncInterval = %v, want disabled with 5m", cfg.SyncFile, cfg.SyncInterval)
	}
	if len(cfg.OAuthScopes) != 3 {
		t.Errorf("OAuthScopes = %v, want 3 default scopes", cfg.OAuthScopes)
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("KEEP_STORE_DRIVER", "SQLite")
	t.Setenv("KEEP_DATABASE_URL", "file:keep.db")
	t.Setenv("KEEP_PUBLIC_URL", "https://keep.domain.ext/")
	t.Setenv("KEEP_ALLOWED_ORIGINS", "https://a.ext, https://b.ext")

	cfg := Load()

	if cfg.StoreDriver != DriverSQLite {
		t.Errorf("StoreDriver = %v, want %v", cfg.StoreDriver, DriverSQLite)
	}
	if cfg.PublicURL != "https://keep.domain.ext" {
		t.Errorf("PublicURL = %v, want trailing slash trimmed", cfg.PublicURL)
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Errorf("AllowedOrigins = %v, want 2 entries", cfg.AllowedOrigins)
	}
}

func TestLoadPanicsOnInvalidConfig(t *testing.T) {
	setRequired(t)
	t.Setenv("KEEP_STORE_DRIVER", "postgres")

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Load() should have panicked without KEEP_DATABASE_URL")
		}
	}()

	Load()
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			StoreDriver: DriverRedis,
			JWTSecret:   testSecret,
			FeedBuffer:  1,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"memory driver", func(c *Config) { c.StoreDriver = DriverMemory }, false},
		{"unknown driver", func(c *Config) { c.StoreDriver = "mongo" }, true},
		{"sqlite without url", func(c *Config) { c.StoreDriver = DriverSQLite }, true},
		{"short secret", func(c *Config) { c.JWTSecret = "short" }, true},
		{"redis password required", func(c *Config) { c.RedisPasswordRequired = true }, true},
		{"oauth without endpoints", func(c *Config) { c.OAuthClientID = "client" }, true},
		{"zero feed buffer", func(c *Config) { c.FeedBuffer = 0 }, true},
		{"sync file", func(c *Config) {
			c.SyncFile, c.SyncOwner, c.SyncFormat, c.SyncInterval = "b.yaml", "alice", "services", time.Minute
		}, false},
		{"sync file without owner", func(c *Config) {
			c.SyncFile, c.SyncFormat, c.SyncInterval = "b.yaml", "bookmarks", time.Minute
		}, true},
		{"sync file with bad format", func(c *Config) {
			c.SyncFile, c.SyncOwner, c.SyncFormat, c.SyncInterval = "b.yaml", "alice", "opml", time.Minute
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRedacted(t *testing.T) {
	c := &Config{JWTSecret: testSecret, RedisPassword: "pw", DatabaseURL: "postgres://u:p@h/db"}
	r := c.Redacted()
	if r.JWTSecret == testSecret || r.RedisPassword == "pw" || r.DatabaseURL == c.DatabaseURL {
		t.Errorf("Redacted() leaked secrets: %+v", r)
	}
	if c.JWTSecret != testSecret {
		t.Error("Redacted() mutated the original config")
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{
			name:     "valid duration",
			key:      "TEST_DURATION",
			value:    "5s",
			def:      1 * time.Second,
			expected: 5 * time.Second,
		},
		{
			name:     "invalid duration uses default",
			key:      "TEST_DURATION_INVALID",
			value:    "invalid",
			def:      10 * time.Second,
			expected: 10 * time.Second,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_DURATION_MISSING",
			value:    "",
			def:      15 * time.Second,
			expected: 15 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			result := mustDuration(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      bool
		expected bool
	}{
		{
			name:     "true value",
			key:      "TEST_BOOL",
			value:    "true",
			def:      false,
			expected: true,
		},
		{
			name:     "false value",
			key:      "TEST_BOOL_FALSE",
			value:    "false",
			def:      true,
			expected: false,
		},
		{
			name:     "invalid value uses default",
			key:      "TEST_BOOL_INVALID",
			value:    "invalid",
			def:      true,
			expected: true,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_BOOL_MISSING",
			value:    "",
			def:      false,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			result := mustBool(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustBool() = %v, want %v", result, tt.expected)
			}
		})
	}
}
