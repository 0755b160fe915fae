// SPDX-FileCopyrightText: Copyright (C) 2024  The loki-network authors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tewinget/loki-network/core/rc"
)

const basicConfig = `
[Router]
DataDir = "/var/lib/lokinet"
Nickname = "fluffy"
`

func TestConfigDefaults(t *testing.T) {
	assert := assert.New(t)

	cfg, err := Load([]byte(basicConfig))
	require.NoError(t, err)

	assert.Equal(rc.DefaultNetIDString, cfg.Router.NetID)
	assert.Equal("fluffy", cfg.Router.Nickname)
	assert.Equal("NOTICE", cfg.Logging.Level)
	assert.False(cfg.Network.Testnet)

	id := cfg.NetID()
	def := rc.DefaultNetID()
	assert.True(id.Equal(&def))
}

func TestConfigValidation(t *testing.T) {
	assert := assert.New(t)

	_, err := Load(nil)
	assert.Error(err)

	_, err = Load([]byte(""))
	assert.Error(err, "missing Router block must be rejected")

	_, err = Load([]byte("[Router]\nDataDir = \"relative/path\"\n"))
	assert.Error(err)

	_, err = Load([]byte(basicConfig + "[Logging]\nLevel = \"LOUD\"\n"))
	assert.Error(err)

	_, err = Load([]byte(basicConfig + "[Logging]\nLevel = \"debug\"\n"))
	assert.NoError(err, "log level is case insensitive")

	// A Logging section that is present but leaves Level empty still
	// gets the default level.
	cfg, err := Load([]byte(basicConfig + "[Logging]\nFile = \"/tmp/x.log\"\n"))
	require.NoError(t, err)
	assert.Equal(defaultLogLevel, cfg.Logging.Level)

	long := "[Router]\nDataDir = \"/tmp\"\nNickname = \"0123456789012345678901234567890123\"\n"
	_, err = Load([]byte(long))
	assert.Error(err, "over-long nickname must be rejected")

	_, err = Load([]byte("[Router]\nDataDir = \"/tmp\"\nNetID = \"way-too-long-netid\"\n"))
	assert.Error(err)
}

func TestConfigApplyPolicy(t *testing.T) {
	assert := assert.New(t)

	origLifetime := rc.Lifetime
	defer func(bogons bool) {
		rc.BlockBogons = bogons
		rc.Lifetime = origLifetime
	}(rc.BlockBogons)

	cfg, err := Load([]byte(basicConfig))
	require.NoError(t, err)
	cfg.ApplyPolicy()
	assert.True(rc.BlockBogons)
	assert.Equal(origLifetime, rc.Lifetime)

	cfg, err = Load([]byte(basicConfig + "[Network]\nTestnet = true\n"))
	require.NoError(t, err)
	cfg.ApplyPolicy()
	assert.False(rc.BlockBogons)
	assert.Equal(time.Minute, rc.Lifetime)
}
