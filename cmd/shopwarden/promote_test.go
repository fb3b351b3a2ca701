// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ShopWarden Contributors

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopwarden/shopwarden/pkg/errutil"
)

func TestPromoteCommand_Properties(t *testing.T) {
	cmd := NewPromoteCmd()

	assert.Contains(t, cmd.Use, "promote")
	assert.Contains(t, cmd.Long, "document set")
}

func TestPromoteCommand_RequiresArgument(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"promote"})

	require.Error(t, cmd.Execute())
}

func TestPromoteCommand_InvalidIdentityID(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"promote", "not-a-ulid"})

	err := cmd.Execute()
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "INVALID_IDENTITY_ID")
}
