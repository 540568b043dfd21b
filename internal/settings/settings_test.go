// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleINI = "[/Script/Pal.PalGameWorldSettings]\n" +
	`OptionSettings=(Difficulty=None,DayTimeSpeedRate=1.000000,ExpRate=2.500000,ServerName="My, Quoted Server",ServerPlayerMaxNum=16,bEnableFastTravel=True,FutureUnknownKey=42)` + "\n"

func TestParseExtractsOptionBlock(t *testing.T) {
	f, err := Parse(sampleINI)
	require.NoError(t, err)

	name, ok := f.Get("ServerName")
	require.True(t, ok)
	assert.Equal(t, "My, Quoted Server", name, "comma inside quotes must not split the field")

	rate, ok := f.Get("ExpRate")
	require.True(t, ok)
	assert.Equal(t, "2.500000", rate)

	unknown, ok := f.Get("FutureUnknownKey")
	require.True(t, ok)
	assert.Equal(t, "42", unknown)
}

func TestParseEmptyFileYieldsDefaults(t *testing.T) {
	f, err := Parse("")
	require.NoError(t, err)

	assert.Equal(t, "None", f.GetOrDefault("Difficulty"))
	assert.Equal(t, "32", f.GetOrDefault("ServerPlayerMaxNum"))
}

func TestParseRejectsMalformedBlock(t *testing.T) {
	_, err := Parse("[/Script/Pal.PalGameWorldSettings]\nOptionSettings=Difficulty=None\n")
	assert.Error(t, err)
}

func TestSerializeRoundTrip(t *testing.T) {
	f, err := Parse(sampleINI)
	require.NoError(t, err)

	again, err := Parse(f.Serialize())
	require.NoError(t, err)
	assert.Equal(t, f.Values(), again.Values())

	assert.Contains(t, f.Serialize(), `ServerName="My, Quoted Server"`, "string values keep their quotes")
	assert.Contains(t, f.Serialize(), "FutureUnknownKey=42", "unknown keys survive a rewrite")
}

func TestSetValidatesAgainstSchema(t *testing.T) {
	f := Default()

	require.NoError(t, f.Set("ExpRate", "3"))
	v, _ := f.Get("ExpRate")
	assert.Equal(t, "3.000000", v, "floats are stored in canonical form")

	require.NoError(t, f.Set("bIsPvP", "true"))
	v, _ = f.Get("bIsPvP")
	assert.Equal(t, "True", v)

	require.NoError(t, f.Set("DeathPenalty", "itemandequipment"))
	v, _ = f.Get("DeathPenalty")
	assert.Equal(t, "ItemAndEquipment", v, "enums are case-folded to the canonical option")

	assert.Error(t, f.Set("ExpRate", "100"), "out of range")
	assert.Error(t, f.Set("ServerPlayerMaxNum", "abc"))
	assert.Error(t, f.Set("Difficulty", "Nightmare"))
	assert.Error(t, f.Set("NoSuchKey", "1"))
}

func TestManagerLoadMissingFile(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "nope", "PalWorldSettings.ini"), nil)

	f, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, "None", f.GetOrDefault("Difficulty"))
}

func TestManagerUpdatePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "PalWorldSettings.ini")
	require.NoError(t, os.WriteFile(path, []byte(sampleINI), 0o640))

	m := NewManager(path, nil)
	require.NoError(t, m.Update(map[string]string{
		"ServerName": "Renamed",
		"ExpRate":    "5",
	}))

	f, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, "Renamed", f.GetOrDefault("ServerName"))
	assert.Equal(t, "5.000000", f.GetOrDefault("ExpRate"))
	assert.Equal(t, "42", f.GetOrDefault("FutureUnknownKey"), "unknown keys preserved through an update")
}

func TestManagerUpdateAllOrNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "PalWorldSettings.ini")
	require.NoError(t, os.WriteFile(path, []byte(sampleINI), 0o640))

	m := NewManager(path, nil)
	err := m.Update(map[string]string{
		"ServerName": "Renamed",
		"ExpRate":    "bogus",
	})
	require.Error(t, err)

	f, lerr := m.Load()
	require.NoError(t, lerr)
	assert.Equal(t, "My, Quoted Server", f.GetOrDefault("ServerName"), "failed update leaves the file untouched")
}

type fakeLive struct {
	available bool
	values    map[string]any
	err       error
}

func (f *fakeLive) GetSettings(context.Context) (map[string]any, error) {
	return f.values, f.err
}

func (f *fakeLive) Available() (bool, error) {
	return f.available, nil
}

func TestManagerViewOverlaysLiveValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "PalWorldSettings.ini")
	require.NoError(t, os.WriteFile(path, []byte(sampleINI), 0o640))

	live := &fakeLive{available: true, values: map[string]any{
		"ServerName":         "Live Name",
		"ServerPlayerMaxNum": float64(16),
		"bEnableFastTravel":  true,
		"ExpRate":            2.5,
	}}
	m := NewManager(path, live)

	entries, err := m.View(context.Background())
	require.NoError(t, err)

	byKey := make(map[string]Entry, len(entries))
	for _, e := range entries {
		byKey[e.Key] = e
	}

	assert.Equal(t, "My, Quoted Server", byKey["ServerName"].Value)
	assert.Equal(t, "Live Name", byKey["ServerName"].LiveValue)
	assert.Equal(t, "16", byKey["ServerPlayerMaxNum"].LiveValue, "integral json numbers render without decimals")
	assert.Equal(t, "True", byKey["bEnableFastTravel"].LiveValue)
	assert.Equal(t, "2.500000", byKey["ExpRate"].LiveValue)
	assert.Empty(t, byKey["Difficulty"].LiveValue, "keys the server does not report stay file-only")
}

func TestManagerViewFileOnlyWhenServerDown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "PalWorldSettings.ini")
	require.NoError(t, os.WriteFile(path, []byte(sampleINI), 0o640))

	m := NewManager(path, &fakeLive{available: false})

	entries, err := m.View(context.Background())
	require.NoError(t, err)
	for _, e := range entries {
		assert.Empty(t, e.LiveValue)
	}
}
