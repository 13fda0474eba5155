package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBaseConfig() *Config {
	return &Config{
		App: AppConfig{
			Environment:   "development",
			PublicBaseURL: "https://store.example.com",
		},
		Store:   StoreConfig{Type: "sqlite", Path: "./data/test.db"},
		Cache:   CacheConfig{Type: "memory"},
		Billplz: BillplzConfig{MaxAttempts: 3},
		Orders:  OrderConfig{MaxQuantity: 10},
	}
}

func TestConfig_Validate_ValidConfig(t *testing.T) {
	require.NoError(t, validBaseConfig().Validate())
}

func TestConfig_Validate_InvalidEnvironment(t *testing.T) {
	cfg := validBaseConfig()
	cfg.App.Environment = "prod-ish"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APP_ENV")
}

func TestConfig_Validate_InvalidStoreType(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Store.Type = "oracle"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_DB_TYPE")
}

func TestConfig_Validate_ProductionRejectsUnsignedBypass(t *testing.T) {
	cfg := validBaseConfig()
	cfg.App.Environment = "production"
	cfg.Billplz.SecretKey = "secret"
	cfg.Billplz.SignatureKey = "sig"
	cfg.Billplz.AllowUnsigned = true

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BILLPLZ_ALLOW_UNSIGNED")
}

func TestConfig_Validate_ProductionRequiresKeys(t *testing.T) {
	cfg := validBaseConfig()
	cfg.App.Environment = "production"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BILLPLZ_SIGNATURE_KEY")
	assert.Contains(t, err.Error(), "BILLPLZ_SECRET_KEY")
}

func TestConfig_Validate_DevelopmentAllowsMissingKeys(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Billplz.AllowUnsigned = true

	assert.NoError(t, cfg.Validate())
	assert.True(t, cfg.AllowUnsignedWebhooks())
}

func TestConfig_Validate_UnsignedBypassOnlyInDevelopment(t *testing.T) {
	for _, env := range []string{"staging", "test", "production"} {
		t.Run(env, func(t *testing.T) {
			cfg := validBaseConfig()
			cfg.App.Environment = env
			cfg.Billplz.SecretKey = "secret"
			cfg.Billplz.AllowUnsigned = true

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "BILLPLZ_ALLOW_UNSIGNED")
			assert.False(t, cfg.AllowUnsignedWebhooks())
		})
	}
}

func TestStoreConfig_DSN(t *testing.T) {
	tests := []struct {
		name       string
		cfg        StoreConfig
		wantDriver string
		wantDSN    string
	}{
		{
			name:       "mysql default port",
			cfg:        StoreConfig{Type: "mysql", Host: "db", Name: "aecoin", User: "u", Password: "p"},
			wantDriver: "mysql",
			wantDSN:    "u:p@tcp(db:3306)/aecoin?parseTime=true&clientFoundRows=true",
		},
		{
			name:       "postgres",
			cfg:        StoreConfig{Type: "postgres", Host: "pg", Port: 6543, Name: "aecoin", User: "u", Password: "p", SSLMode: "require"},
			wantDriver: "postgres",
			wantDSN:    "postgres://u:p@pg:6543/aecoin?sslmode=require",
		},
		{
			name:       "sqlite",
			cfg:        StoreConfig{Type: "sqlite", Path: "/tmp/a.db"},
			wantDriver: "sqlite",
			wantDSN:    "/tmp/a.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			driver, dsn := tt.cfg.DSN()
			assert.Equal(t, tt.wantDriver, driver)
			assert.Equal(t, tt.wantDSN, dsn)
		})
	}
}

func TestAppConfig_GatewayURLs(t *testing.T) {
	app := AppConfig{PublicBaseURL: "https://store.example.com/"}

	assert.Equal(t, "https://store.example.com/api/v1/payments/billplz/callback", app.CallbackURL())
	assert.Equal(t, "https://store.example.com/api/v1/payments/billplz/redirect", app.RedirectURL())
}
