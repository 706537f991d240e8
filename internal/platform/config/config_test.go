package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const sample = `
version: "1"
mode: dev
timezone: Asia/Kolkata
database:
  host: localhost
  user: mess
  password: secret
  dbname: mess
auth:
  jwt_secret: dev-secret
  admin:
    id: admin
    password: admin123
`

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	require.Equal(t, ModeDev, cfg.Mode)
	require.Equal(t, 3306, cfg.DB.Port)
	require.Equal(t, ":8443", cfg.Server.Addr)
	require.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	require.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.Origins)
	require.Equal(t, "Asia/Kolkata", cfg.Location().String())
	require.False(t, cfg.TLSEnabled())
}

func TestParseEnvOverrides(t *testing.T) {
	t.Setenv("TIFFIN_DB_PASSWORD", "from-env")
	t.Setenv("TIFFIN_DB_PORT", "3307")
	t.Setenv("TIFFIN_NATS_URL", "nats://bus:4222")
	t.Setenv("TIFFIN_CORS_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.DB.Password)
	require.Equal(t, 3307, cfg.DB.Port)
	require.Equal(t, "nats://bus:4222", cfg.Nats.URL)
	require.Len(t, cfg.CORS.Origins, 2)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"bad mode", "mode: staging\ndatabase: {host: h, user: u, dbname: d}\nauth: {jwt_secret: s}\n"},
		{"missing db", "mode: dev\nauth: {jwt_secret: s}\n"},
		{"missing secret", "mode: dev\ndatabase: {host: h, user: u, dbname: d}\n"},
		{"short release secret", "mode: release\ndatabase: {host: h, user: u, dbname: d}\nauth: {jwt_secret: short}\n"},
		{"bad timezone", "mode: dev\ntimezone: Mars/Olympus\ndatabase: {host: h, user: u, dbname: d}\nauth: {jwt_secret: s}\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			require.Error(t, err)
		})
	}
}
