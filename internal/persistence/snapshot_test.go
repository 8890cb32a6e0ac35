package persistence_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fty-ops/alert-registry/internal/domain/entity"
	"github.com/fty-ops/alert-registry/internal/persistence"
	"github.com/fty-ops/alert-registry/internal/wire"
)

func sampleAlerts() []*entity.Alert {
	return []*entity.Alert{
		{
			Rule:        "Threshold",
			Element:     "Žluťoučký kůň супер",
			State:       entity.StateActive,
			Severity:    "CRITICAL",
			Description: `line one` + "\n" + `line two, with "quotes" and {"json":true}`,
			Metadata:    `{"nested":{"k":"v"}}`,
			Time:        100,
			TTL:         60,
			CTime:       90,
			LastSent:    95,
			Actions:     []string{"EMAIL", "SMS"},
		},
		{
			Rule:     "Connectivity",
			Element:  "store-7",
			State:    entity.StateResolved,
			Severity: "LOW",
			Time:     200,
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.toml")

	original := sampleAlerts()
	require.NoError(t, persistence.Save(path, original))

	loaded, err := persistence.Load(path)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, original[0].Description, loaded[0].Description)
	assert.Equal(t, original[0].Metadata, loaded[0].Metadata)
	assert.Equal(t, original[0].Element, loaded[0].Element)
	assert.Equal(t, original[1].Rule, loaded[1].Rule)
	assert.Equal(t, original[0].Actions, loaded[0].Actions)
}

func TestLoadFallsBackToLegacyFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.legacy")

	a := sampleAlerts()[0]
	raw := wire.EncodeFramed(a)
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	loaded, err := persistence.Load(path)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, a.Description, loaded[0].Description)
}

func TestLoadDropsDuplicateIdentities(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.toml")

	a := sampleAlerts()[0]
	dup := a.Clone()
	require.NoError(t, persistence.Save(path, []*entity.Alert{a, dup}))

	loaded, err := persistence.Load(path)
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := persistence.Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
