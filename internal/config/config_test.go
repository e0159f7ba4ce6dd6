/*
 * Copyright (c) 2024 Gates Solutions LLC.
 *
 *      This file is part of podpingd.
 *
 *     podpingd is free software: you can redistribute it and/or modify it under the terms of the GNU Lesser General Public License as published by the Free Software Foundation, either version 3 of the License, or (at your option) any later version.
 *
 *     podpingd is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU Lesser General Public License for more details.
 *
 *     You should have received a copy of the GNU Lesser General Public License along with podpingd. If not, see <https://www.gnu.org/licenses/>.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefault(t *testing.T) {
	settings, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), settings)
}

func TestLoad_EmptyPathReturnsDefault(t *testing.T) {
	settings, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), settings)
}

func TestLoad_ParsesWriterTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "podpingd.toml")
	doc := `
debug = true

[scanner]
batch_mode = true
batch_size = 25
rpc_endpoint = "https://api.hive.blog"

[writer]
enabled = true
type_ = "disk"
disk_path = "/var/lib/podpingd"
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	settings, err := Load(path)
	require.NoError(t, err)
	assert.True(t, settings.Debug)
	assert.True(t, settings.Scanner.BatchMode)
	assert.EqualValues(t, 25, settings.Scanner.BatchSize)
	assert.True(t, settings.Writer.Enabled)
	assert.Equal(t, WriterDisk, settings.Writer.Type)
	assert.Equal(t, "/var/lib/podpingd", settings.Writer.DiskPath)
}

func TestLoadCredentials_MissingVarsIsFatalInit(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")

	_, err := LoadCredentials()
	assert.Error(t, err)
}

func TestLoadCredentials_Present(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIA...")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")

	creds, err := LoadCredentials()
	require.NoError(t, err)
	assert.Equal(t, "AKIA...", creds.AccessKeyID)
	assert.Equal(t, "secret", creds.SecretAccessKey)
}
