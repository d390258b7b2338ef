package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "assets/tables/afi_scores.csv", cfg.Data.PrimaryPath)
	assert.Equal(t, []string{
		"data/raw/api_data_aadhar_enrolment/*.csv",
		"../data/raw/api_data_aadhar_enrolment/*.csv",
	}, cfg.Data.AuxiliaryPatterns)
	assert.Equal(t, 5, cfg.Data.AuxiliaryFileCap)
	assert.Equal(t, "Unknown", cfg.Data.Sentinel)
	assert.Equal(t, "assets/plots", cfg.Artifacts.Dir)
	assert.Equal(t, 95.0, cfg.Chart.CriticalZoneY)
	assert.Equal(t, []string{"AFI", "Bio_Score", "Overload_Score"}, cfg.Chart.HoverColumns)
	assert.Equal(t, 15, cfg.Report.RankingTop)
	assert.False(t, cfg.Redis.Enabled)
	assert.True(t, cfg.SQLite.Enabled)
}

func TestLoadFileEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data:\n  primaryPath: from-file.csv\n"), 0o644))
	t.Setenv("AFI_REPORT_DATA_PRIMARYPATH", "from-env.csv")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env.csv", cfg.Data.PrimaryPath)
}

func TestLoadFileValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data:\n  auxiliaryFileCap: 0\n"), 0o644))

	_, err := LoadFile(path)
	assert.ErrorContains(t, err, "auxiliaryFileCap")
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
