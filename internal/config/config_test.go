package config

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 8088, cfg.Server.Port)
	assert.Equal(t, "uploads", cfg.Storage.UploadsDirectory)
	assert.False(t, cfg.Security.AllowFileDeletion)
	require.NoError(t, cfg.Validate())

	max, err := cfg.MaxUploadBytes()
	require.NoError(t, err)
	assert.Equal(t, int64(10*1024*1024), max)
}

func TestLoadConfig_CreatesDefaultFile(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"xml", "/etc/shopapp/shopapp.config.xml", "<ShopApp>"},
		{"yaml", "/etc/shopapp/shopapp.yaml", "uploadsDirectory: uploads"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := afero.NewMemMapFs()

			cfg, err := LoadConfig(fsys, tt.path)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join("/etc/shopapp", "uploads"), cfg.GetUploadDir())

			data, err := afero.ReadFile(fsys, tt.path)
			require.NoError(t, err)
			assert.Contains(t, string(data), tt.want)

			// The written file loads back to the same settings.
			again, err := LoadConfig(fsys, tt.path)
			require.NoError(t, err)
			assert.Equal(t, cfg.Server, again.Server)
			assert.Equal(t, cfg.Storage, again.Storage)
			assert.Equal(t, cfg.Security, again.Security)
			assert.Equal(t, cfg.Advanced, again.Advanced)
		})
	}
}

func TestLoadConfig_ReadsExistingFile(t *testing.T) {
	fsys := afero.NewMemMapFs()

	xmlDoc := `<?xml version="1.0" encoding="UTF-8"?>
<ShopApp>
  <Server>
    <Port>9000</Port>
    <BindAddress>127.0.0.1</BindAddress>
    <BodyLimit>50M</BodyLimit>
  </Server>
  <Storage>
    <UploadsDirectory>/srv/images</UploadsDirectory>
    <MaxUploadSize>5MiB</MaxUploadSize>
  </Storage>
  <Security>
    <AllowFileDeletion>true</AllowFileDeletion>
  </Security>
</ShopApp>`
	require.NoError(t, afero.WriteFile(fsys, "conf/app.xml", []byte(xmlDoc), 0o644))

	yamlDoc := `server:
  port: 9100
storage:
  uploadsDirectory: images
  maxUploadSize: 2MB
advanced:
  logLevel: debug
`
	require.NoError(t, afero.WriteFile(fsys, "conf/app.yml", []byte(yamlDoc), 0o644))

	cfg, err := LoadConfig(fsys, "conf/app.xml")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.GetServerAddr())
	assert.Equal(t, "/srv/images", cfg.GetUploadDir())
	assert.True(t, cfg.Security.AllowFileDeletion)
	// Elements absent from the file keep their defaults.
	assert.Equal(t, "info", cfg.Advanced.LogLevel)
	max, err := cfg.MaxUploadBytes()
	require.NoError(t, err)
	assert.Equal(t, int64(5*1024*1024), max)

	cfg, err = LoadConfig(fsys, "conf/app.yml")
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, filepath.Join("conf", "images"), cfg.GetUploadDir())
	assert.Equal(t, "debug", cfg.Advanced.LogLevel)
	max, err = cfg.MaxUploadBytes()
	require.NoError(t, err)
	assert.Equal(t, int64(2_000_000), max)
}

func TestLoadConfig_Malformed(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "bad.xml", []byte("<ShopApp><Server>"), 0o644))

	_, err := LoadConfig(fsys, "bad.xml")
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestApplyEnvironment(t *testing.T) {
	cfg := DefaultConfig()

	err := cfg.ApplyEnvironment([]string{
		"PORT=9090",
		"UPLOAD_DIR=/data/uploads",
		"LOG_LEVEL=warn",
		"HOME=/root",
		"LOG_LEVEL=debug",
	})
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.BindAddress)
	assert.Equal(t, "/data/uploads", cfg.GetUploadDir())
	assert.Equal(t, "10MiB", cfg.Storage.MaxUploadSize)
	assert.Equal(t, "debug", cfg.Advanced.LogLevel)
}

func TestApplyEnvironment_InvalidPort(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.ApplyEnvironment([]string{"PORT=eighty"})
	assert.ErrorContains(t, err, "invalid PORT")
	assert.Equal(t, 8088, cfg.Server.Port)
}

func TestLoadDotEnv(t *testing.T) {
	fsys := afero.NewMemMapFs()

	environ, err := LoadDotEnv(fsys, ".env")
	require.NoError(t, err)
	assert.Nil(t, environ)

	content := "# local overrides\nPORT=7070\nMAX_UPLOAD_SIZE=\"4MiB\"\n"
	require.NoError(t, afero.WriteFile(fsys, ".env", []byte(content), 0o644))

	environ, err = LoadDotEnv(fsys, ".env")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"PORT=7070", "MAX_UPLOAD_SIZE=4MiB"}, environ)

	// Real environment entries come last and take precedence.
	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnvironment(append(environ, "PORT=6060")))
	assert.Equal(t, 6060, cfg.Server.Port)
	assert.Equal(t, "4MiB", cfg.Storage.MaxUploadSize)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{"defaults", func(*AppConfig) {}, ""},
		{"port zero", func(c *AppConfig) { c.Server.Port = 0 }, "out of range"},
		{"port too high", func(c *AppConfig) { c.Server.Port = 70000 }, "out of range"},
		{"bad upload size", func(c *AppConfig) { c.Storage.MaxUploadSize = "ten megs" }, "invalid max upload size"},
		{"zero upload size", func(c *AppConfig) { c.Storage.MaxUploadSize = "0" }, "out of range"},
		{"bad body limit", func(c *AppConfig) { c.Server.BodyLimit = "lots" }, "invalid body limit"},
		{"body smaller than upload", func(c *AppConfig) { c.Server.BodyLimit = "1M" }, "smaller than max upload size"},
		{"bad log level", func(c *AppConfig) { c.Advanced.LogLevel = "verbose" }, "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
