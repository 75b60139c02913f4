// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deckproxy/internal/catalog"
	"github.com/pdiddy/deckproxy/pkg/types"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	require.NoError(t, setDefaults(types.DefaultPipelineConfig()))
}

func TestLoadConfigDefaults(t *testing.T) {
	resetViper(t)

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, types.DefaultPipelineConfig(), cfg)
}

func TestLoadConfigFile(t *testing.T) {
	resetViper(t)

	path := filepath.Join(t.TempDir(), "deckproxy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
validator:
  duplicates: warn
  max_copies: 4
report:
  format: csv
  max_rejected: 2
proxy:
  skip_warned: true
`), 0o644))
	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, types.DuplicateWarn, cfg.Validator.Duplicates)
	assert.Equal(t, 4, cfg.Validator.MaxCopies)
	assert.Equal(t, types.FormatCSV, cfg.Report.Format)
	assert.Equal(t, 2, cfg.Report.MaxRejected)
	assert.True(t, cfg.Proxy.SkipWarned)
	// Untouched keys keep their defaults.
	assert.Equal(t, 12, cfg.Validator.CryptMin)
	assert.InDelta(t, 63.5, cfg.Proxy.CardWidth, 1e-9)
}

func TestLoadConfigEnv(t *testing.T) {
	resetViper(t)
	viper.SetEnvPrefix("DECKPROXY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	t.Setenv("DECKPROXY_REPORT_MAX_REJECTED", "5")
	t.Setenv("DECKPROXY_LOADER_STRICT", "true")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Report.MaxRejected)
	assert.True(t, cfg.Loader.Strict)
}

func TestBindFlags(t *testing.T) {
	resetViper(t)

	require.NoError(t, checkCmd.Flags().Set("max-rejected", "7"))
	t.Cleanup(func() {
		checkCmd.Flags().Set("max-rejected", "-1")
		checkCmd.Flags().Lookup("max-rejected").Changed = false
	})
	require.NoError(t, bindFlags(checkCmd, checkFlags))

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Report.MaxRejected)

	err = bindFlags(checkCmd, map[string]string{"no-such-flag": "report.format"})
	assert.ErrorContains(t, err, "unknown flag")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l, err := newLogger(&buf, "debug", "json")
	require.NoError(t, err)
	l.Debug("pipeline.load.ok", "pages", 2)
	assert.Contains(t, buf.String(), `"msg":"pipeline.load.ok"`)
	assert.Contains(t, buf.String(), `"pages":2`)

	buf.Reset()
	l, err = newLogger(&buf, "warn", "text")
	require.NoError(t, err)
	l.Info("hidden")
	assert.Empty(t, buf.String())

	_, err = newLogger(&buf, "loud", "text")
	assert.Error(t, err)
	_, err = newLogger(&buf, "info", "xml")
	assert.Error(t, err)
}

func TestOpenCatalogDisabled(t *testing.T) {
	cat, err := openCatalog(t.Context(), types.CatalogConfig{}, nil)
	require.NoError(t, err)
	assert.Nil(t, cat)
}

func TestPrintCards(t *testing.T) {
	var buf bytes.Buffer
	printCards(&buf, []catalog.Card{
		{Key: "ansong1", Name: "Anson", Section: "crypt", Image: "images/ansong1.jpg"},
		{Key: "dreadfulcurse", Name: "dreadfulcurse", Image: "images/dreadfulcurse.png"},
	})
	out := buf.String()
	assert.Contains(t, out, "Rank")
	assert.Contains(t, out, "ansong1")
	assert.Contains(t, out, "images/dreadfulcurse.png")
	assert.Contains(t, out, "2 cards")
}
