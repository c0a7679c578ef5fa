package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luxvision/cli"
)

func load(t *testing.T, args ...string) *Config {
	t.Helper()

	var c Config
	cmd := cli.NewCommand(viper.New(), EnvPrefix, &cli.Program{
		Name: "serve",
		Run:  func() error { return nil },
		Opts: c.Opts(),
	})
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return &c
}

func TestDefaults(t *testing.T) {
	c := load(t)

	assert.Equal(t, ":5000", c.Addr())
	assert.Equal(t, EnvDevelopment, c.Env)
	assert.Equal(t, DriverSQLite, c.DBDriver)
	assert.Equal(t, "http://localhost:5173", c.CORSOrigin)
	assert.Equal(t, 15*time.Minute, c.JWT.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, c.JWT.RefreshTTL)
	assert.Equal(t, "luxvision-api", c.JWT.Issuer)
	assert.Equal(t, "luxvision-client", c.JWT.Audience)
	assert.Equal(t, int64(5000), c.ShippingCost)
	assert.False(t, c.IsProduction())

	require.NoError(t, c.Validate())
	assert.NotEmpty(t, c.JWT.AccessSecret)
	assert.NotEqual(t, c.JWT.AccessSecret, c.JWT.RefreshSecret)
}

func TestLegacyEnv(t *testing.T) {
	t.Setenv("PORT", "8000")
	t.Setenv("NODE_ENV", "production")
	t.Setenv("JWT_SECRET", "a")
	t.Setenv("REFRESH_TOKEN_SECRET", "b")
	t.Setenv("CORS_ORIGIN", "https://luxvision.cg")
	// registered so t.Setenv restores them after LoadEnv copies the legacy values
	for _, name := range []string{"LUXVISION_HTTP_PORT", "LUXVISION_ENV", "LUXVISION_JWT_ACCESS_SECRET", "LUXVISION_JWT_REFRESH_SECRET", "LUXVISION_CORS_ORIGIN"} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}

	assert.False(t, LoadEnv(filepath.Join(t.TempDir(), "missing.env")))
	c := load(t)

	assert.Equal(t, ":8000", c.Addr())
	assert.True(t, c.IsProduction())
	assert.Equal(t, "a", c.JWT.AccessSecret)
	assert.Equal(t, "b", c.JWT.RefreshSecret)
	assert.Equal(t, "https://luxvision.cg", c.CORSOrigin)
	require.NoError(t, c.Validate())
}

func TestLoadEnvFile(t *testing.T) {
	t.Setenv("LUXVISION_MAIL_FROM", "")
	os.Unsetenv("LUXVISION_MAIL_FROM")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("LUXVISION_MAIL_FROM=shop@luxvision.cg\n"), 0o600))
	assert.True(t, LoadEnv(path))
	t.Cleanup(func() { os.Unsetenv("LUXVISION_MAIL_FROM") })

	c := load(t)
	assert.Equal(t, "shop@luxvision.cg", c.Mail.From)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		args []string
		ok   bool
	}{
		{"mongo driver", []string{"--db-driver", "mongo"}, true},
		{"unknown driver", []string{"--db-driver", "postgres"}, false},
		{"unknown mail provider", []string{"--mail-provider", "smtp"}, false},
		{"provider without token", []string{"--mail-provider", "postmark"}, false},
		{"provider with token", []string{"--mail-provider", "sendgrid", "--mail-token", "k"}, true},
		{"production without secrets", []string{"--env", "production"}, false},
		{"same secrets", []string{"--jwt-access-secret", "s", "--jwt-refresh-secret", "s"}, false},
		{"negative shipping", []string{"--shipping-cost", "-1"}, false},
		{"zero access ttl", []string{"--jwt-access-ttl", "0s"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := load(t, tt.args...).Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
