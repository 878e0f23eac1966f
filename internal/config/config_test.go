package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	type want struct {
		serverAddress string
		databaseDSN   string
		hashAlgorithm string
		shouldError   bool
		errContains   string
	}

	tests := []struct {
		name    string
		envVars map[string]string
		flags   []string
		want    want
	}{
		{
			name:    "default values",
			envVars: map[string]string{"SECRET_KEY": "secret"},
			flags:   []string{},
			want: want{
				serverAddress: "localhost:8080",
				hashAlgorithm: "sha256",
				shouldError:   false,
			},
		},
		{
			name: "environment variables only",
			envVars: map[string]string{
				"SERVER_ADDRESS": "localhost:8888",
				"DATABASE_DSN":   "postgres://env",
				"SECRET_KEY":     "secret",
				"HASH_ALGORITHM": "sha512",
			},
			flags: []string{},
			want: want{
				serverAddress: "localhost:8888",
				databaseDSN:   "postgres://env",
				hashAlgorithm: "sha512",
				shouldError:   false,
			},
		},
		{
			name:    "flags only",
			envVars: map[string]string{},
			flags:   []string{"-a", "localhost:9999", "-d", "postgres://flag", "-s", "secret"},
			want: want{
				serverAddress: "localhost:9999",
				databaseDSN:   "postgres://flag",
				hashAlgorithm: "sha256",
				shouldError:   false,
			},
		},
		{
			name: "environment variables override flags",
			envVars: map[string]string{
				"SERVER_ADDRESS": "env-server:7777",
				"DATABASE_DSN":   "postgres://env",
				"SECRET_KEY":     "env-secret",
			},
			flags: []string{"-a", "flag-server:8888", "-d", "postgres://flag", "-s", "flag-secret"},
			want: want{
				serverAddress: "env-server:7777",
				databaseDSN:   "postgres://env",
				hashAlgorithm: "sha256",
				shouldError:   false,
			},
		},
		{
			name:    "missing secret key",
			envVars: map[string]string{},
			flags:   []string{},
			want: want{
				shouldError: true,
				errContains: "secret key cannot be empty",
			},
		},
		{
			name: "unknown hash algorithm",
			envVars: map[string]string{
				"SECRET_KEY":     "secret",
				"HASH_ALGORITHM": "md5",
			},
			flags: []string{},
			want: want{
				shouldError: true,
				errContains: "hash algorithm",
			},
		},
		{
			name: "fuzzy threshold out of range",
			envVars: map[string]string{
				"SECRET_KEY":      "secret",
				"FUZZY_THRESHOLD": "1.5",
			},
			flags: []string{},
			want: want{
				shouldError: true,
				errContains: "fuzzy threshold",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)

			for key, value := range tt.envVars {
				os.Setenv(key, value)
			}

			os.Args = append([]string{"test"}, tt.flags...)

			cfg, err := ParseFlags()

			if tt.want.shouldError {
				require.Error(t, err, "expected error but got none")
				assert.Contains(t, err.Error(), tt.want.errContains)
			} else {
				require.NoError(t, err, "unexpected error")

				assert.Equal(t, tt.want.serverAddress, cfg.ServerAddress,
					"server address mismatch")
				assert.Equal(t, tt.want.databaseDSN, cfg.DatabaseDSN,
					"database DSN mismatch")
				assert.Equal(t, tt.want.hashAlgorithm, cfg.HashAlgorithm,
					"hash algorithm mismatch")
			}
		})
	}
}

func TestParseConfigDefaults(t *testing.T) {
	os.Clearenv()
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	os.Setenv("SECRET_KEY", "secret")
	os.Args = []string{"test"}

	cfg, err := ParseFlags()
	require.NoError(t, err)

	assert.Equal(t, 0.75, cfg.FuzzyThreshold)
	assert.Equal(t, 1000, cfg.ImportMaxItems)
	assert.Equal(t, 1000*1024, cfg.ImportMaxBytes)
	assert.Equal(t, 1000, cfg.QuotaPerOwner)
	assert.Equal(t, 100, cfg.ImportRate)
	assert.Equal(t, time.Hour, cfg.RateWindow)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.Empty(t, cfg.Categories)
}

func TestParseConfigCategoriesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.yaml")
	require.NoError(t, os.WriteFile(path, []byte("categories:\n  - CNCF\n  - DevOps\n  - Blog\n"), 0o600))

	os.Clearenv()
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	os.Setenv("SECRET_KEY", "secret")
	os.Setenv("CATEGORIES_FILE", path)
	os.Args = []string{"test"}

	cfg, err := ParseFlags()
	require.NoError(t, err)
	assert.Equal(t, []string{"CNCF", "DevOps", "Blog"}, cfg.Categories)
}

func TestParseConfigCategoriesFileMissing(t *testing.T) {
	os.Clearenv()
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	os.Setenv("SECRET_KEY", "secret")
	os.Setenv("CATEGORIES_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
	os.Args = []string{"test"}

	_, err := ParseFlags()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read categories file")
}
