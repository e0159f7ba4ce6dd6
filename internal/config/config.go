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

// Package config loads the recognized options of §6 from a TOML file,
// matching the toml struct-tag convention used throughout the teacher's
// node/cn and datasync/chaindatafetcher/kafka config types.
package config

import (
	"os"
	"time"

	"github.com/naoina/toml"

	"github.com/SilasVt/podpingd/internal/errs"
)

// WriterType selects the persistent Writer implementation, §6
// writer.type_.
type WriterType string

const (
	WriterDisk         WriterType = "disk"
	WriterObjectStorage WriterType = "object_storage"
)

// URLStyle mirrors §6 writer.object_storage_url_style.
type URLStyle string

const (
	URLStylePath        URLStyle = "path"
	URLStyleVirtualHost URLStyle = "virtual_host"
)

// ScannerSettings is the `[scanner]` TOML table.
type ScannerSettings struct {
	StartBlock    *uint64    `toml:"start_block,omitempty"`
	StartDatetime *time.Time `toml:"start_datetime,omitempty"`
	BatchMode     bool       `toml:"batch_mode"`
	BatchSize     uint64     `toml:"batch_size,omitempty"`
	RPCEndpoint   string     `toml:"rpc_endpoint"`
}

// WriterSettings is the `[writer]` TOML table.
type WriterSettings struct {
	Enabled                     bool       `toml:"enabled"`
	Type                        WriterType `toml:"type_,omitempty"`
	DisablePersistenceWarnings  bool       `toml:"disable_persistence_warnings"`
	DiskPath                    string     `toml:"disk_path,omitempty"`
	ObjectStorageBaseURL        string     `toml:"object_storage_base_url,omitempty"`
	ObjectStorageBucketName     string     `toml:"object_storage_bucket_name,omitempty"`
	ObjectStorageRegion         string     `toml:"object_storage_region,omitempty"`
	ObjectStorageURLStyle       URLStyle   `toml:"object_storage_url_style,omitempty"`
	ObjectStorageFailFast       bool       `toml:"object_storage_fail_fast"`
}

// HTTPSettings is a SPEC_FULL.md addition: the admin surface serving
// /healthz and /metrics (see internal/httpapi).
type HTTPSettings struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr,omitempty"`
}

// Settings is the top-level `podpingd.toml` document.
type Settings struct {
	Debug   bool            `toml:"debug"`
	Scanner ScannerSettings `toml:"scanner"`
	Writer  WriterSettings  `toml:"writer"`
	HTTP    HTTPSettings    `toml:"http"`
}

// Default returns the zero-config baseline: console writer, streaming
// mode, HTTP admin surface on :9301.
func Default() Settings {
	return Settings{
		Scanner: ScannerSettings{RPCEndpoint: "https://api.hive.blog"},
		Writer:  WriterSettings{Enabled: false},
		HTTP:    HTTPSettings{Enabled: true, Addr: ":9301"},
	}
}

// Load reads and decodes a TOML settings file, merging onto Default().
// A missing path is not an error: the zero-config baseline is returned, so
// the CLI can run with only flags/environment set.
func Load(path string) (Settings, error) {
	settings := Default()
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return Settings{}, errs.FatalInit(err, "reading config file "+path)
	}

	if err := toml.Unmarshal(data, &settings); err != nil {
		return Settings{}, errs.FatalInit(err, "parsing config file "+path)
	}
	return settings, nil
}

// Credentials is the AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY pair
// required by ObjectStorageWriter, sourced from the environment per §6.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
}

// LoadCredentials reads the object storage credentials from the
// environment. Missing either variable is FatalInit when the configured
// writer type is object_storage.
func LoadCredentials() (Credentials, error) {
	access, ok := os.LookupEnv("AWS_ACCESS_KEY_ID")
	if !ok || access == "" {
		return Credentials{}, errs.FatalInit(nil, "AWS_ACCESS_KEY_ID is not set")
	}
	secret, ok := os.LookupEnv("AWS_SECRET_ACCESS_KEY")
	if !ok || secret == "" {
		return Credentials{}, errs.FatalInit(nil, "AWS_SECRET_ACCESS_KEY is not set")
	}
	return Credentials{AccessKeyID: access, SecretAccessKey: secret}, nil
}
