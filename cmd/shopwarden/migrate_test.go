// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ShopWarden Contributors

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopwarden/shopwarden/internal/config"
	"github.com/shopwarden/shopwarden/pkg/errutil"
)

func TestParseForceVersion(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantVersion int
		wantErr     bool
		wantErrCode string
	}{
		{
			name:        "valid integer",
			input:       "3",
			wantVersion: 3,
		},
		{
			name:        "zero is valid",
			input:       "0",
			wantVersion: 0,
		},
		{
			name:        "non-numeric returns error",
			input:       "abc",
			wantErr:     true,
			wantErrCode: "INVALID_VERSION",
		},
		{
			name:        "float parses as integer (Sscanf stops at dot)",
			input:       "1.5",
			wantVersion: 1,
		},
		{
			name:        "trailing chars are ignored (Sscanf stops at non-digit)",
			input:       "3abc",
			wantVersion: 3,
		},
		{
			name:        "negative parses (rejected later by Force)",
			input:       "-1",
			wantVersion: -1,
		},
		{
			name:        "empty string returns error",
			input:       "",
			wantErr:     true,
			wantErrCode: "INVALID_VERSION",
		},
		{
			name:        "whitespace only returns error",
			input:       "   ",
			wantErr:     true,
			wantErrCode: "INVALID_VERSION",
		},
		{
			name:        "leading whitespace is handled",
			input:       "  42",
			wantVersion: 42,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, err := parseForceVersion(tt.input)

			if tt.wantErr {
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, tt.wantErrCode)
				assert.Equal(t, 0, version)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantVersion, version)
			}
		})
	}
}

func TestGetDatabaseURL(t *testing.T) {
	tests := []struct {
		name        string
		envValue    string
		setEnv      bool
		wantURL     string
		wantErr     bool
		wantErrCode string
	}{
		{
			name:        "returns error when not set",
			setEnv:      false,
			wantErr:     true,
			wantErrCode: "CONFIG_INVALID",
		},
		{
			name:        "returns error when empty string",
			envValue:    "",
			setEnv:      true,
			wantErr:     true,
			wantErrCode: "CONFIG_INVALID",
		},
		{
			name:     "returns URL when set",
			envValue: "postgres://localhost:5432/warden",
			setEnv:   true,
			wantURL:  "postgres://localhost:5432/warden",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setEnv {
				t.Setenv(config.EnvDatabaseURL, tt.envValue)
			} else {
				t.Setenv(config.EnvDatabaseURL, "")
			}

			url, err := getDatabaseURL()

			if tt.wantErr {
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, tt.wantErrCode)
				assert.Empty(t, url)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantURL, url)
			}
		})
	}
}

func TestMigrateCommand_Properties(t *testing.T) {
	cmd := NewMigrateCmd()

	assert.Equal(t, "migrate", cmd.Use)
	assert.Contains(t, cmd.Long, "PostgreSQL")

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"up", "down", "status", "force"}, names)
}

func TestMigrateUp_NoDatabaseURL(t *testing.T) {
	t.Setenv(config.EnvDatabaseURL, "")

	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"migrate", "up"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.EnvDatabaseURL)
}

func TestMigrateForce_InvalidVersionArg(t *testing.T) {
	t.Setenv(config.EnvDatabaseURL, "postgres://localhost:5432/warden")

	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"migrate", "force", "abc"})

	err := cmd.Execute()
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "INVALID_VERSION")
}
