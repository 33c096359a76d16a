/*
 Licensed to the Apache Software Foundation (ASF) under one
 or more contributor license agreements.  See the NOTICE file
 distributed with this work for additional information
 regarding copyright ownership.  The ASF licenses this file
 to you under the Apache License, Version 2.0 (the
 "License"); you may not use this file except in compliance
 with the License.  You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/apache/hadmin/pkg/common/configs"
	"github.com/apache/hadmin/pkg/log"
	"github.com/apache/hadmin/pkg/mapping"
	"github.com/apache/hadmin/pkg/rmadmin"
)

const (
	KeyConfDir           = "conf-dir"
	KeyCapacityScheduler = "capacity-scheduler"
	KeyQueuesFile        = "queues-file"
	KeyVersion           = "version"
	KeyLogLevel          = "log-level"
	KeyReloadEnabled     = "reload.enabled"
	KeyReloadCommand     = "reload.command"
	KeyReloadTimeout     = "reload.timeout"
	KeyServeAddress      = "serve.address"
	KeyServeInterval     = "serve.interval"

	settingsName = "hadmin"
)

type ReloadSettings struct {
	Enabled bool          `mapstructure:"enabled"`
	Command string        `mapstructure:"command"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type ServeSettings struct {
	Address  string        `mapstructure:"address"`
	Interval time.Duration `mapstructure:"interval"`
}

// Settings of the tool, read from hadmin.yaml, HADMIN_ environment variables and flags.
type Settings struct {
	ConfDir           string         `mapstructure:"conf-dir"`
	CapacityScheduler string         `mapstructure:"capacity-scheduler"`
	QueuesFile        string         `mapstructure:"queues-file"`
	Version           string         `mapstructure:"version"`
	LogLevel          string         `mapstructure:"log-level"`
	Reload            ReloadSettings `mapstructure:"reload"`
	Serve             ServeSettings  `mapstructure:"serve"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyConfDir, configs.DefaultConfDir)
	v.SetDefault(KeyCapacityScheduler, configs.CapacitySchedulerFile)
	v.SetDefault(KeyQueuesFile, configs.DefaultQueuesFile)
	v.SetDefault(KeyVersion, mapping.V2.String())
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyReloadEnabled, false)
	v.SetDefault(KeyReloadCommand, rmadmin.DefaultCommand)
	v.SetDefault(KeyReloadTimeout, rmadmin.DefaultTimeout)
	v.SetDefault(KeyServeAddress, ":9080")
	v.SetDefault(KeyServeInterval, defaultServeInterval)
	v.SetEnvPrefix(configs.SchedulerConfigEnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// loadSettings reads the optional settings file and binds the flags that were registered for a key.
// An explicitly named settings file must exist.
func loadSettings(v *viper.Viper, settingsFile string, flags *pflag.FlagSet) (*Settings, error) {
	if settingsFile != "" {
		v.SetConfigFile(settingsFile)
	} else {
		v.SetConfigName(settingsName)
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, "."+settingsName))
		}
		v.AddConfigPath(filepath.Join("/etc", settingsName))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if settingsFile != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	} else {
		log.Log(log.CLI).Debug("settings file loaded", zap.String("path", v.ConfigFileUsed()))
	}
	for _, key := range []string{KeyConfDir, KeyCapacityScheduler, KeyQueuesFile, KeyVersion, KeyLogLevel} {
		if flag := flags.Lookup(key); flag != nil {
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, err
			}
		}
	}
	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *Settings) resolve(name string) string {
	if filepath.IsAbs(name) || s.ConfDir == "" {
		return name
	}
	return filepath.Join(s.ConfDir, name)
}

// SchedulerPath returns the capacity scheduler file, relative names are inside the configuration directory.
func (s *Settings) SchedulerPath() string {
	return s.resolve(s.CapacityScheduler)
}

// QueuesPath returns the queue document edited by the editing commands.
func (s *Settings) QueuesPath() string {
	return s.resolve(s.QueuesFile)
}

func (s *Settings) MappingVersion() (mapping.Version, error) {
	return mapping.ParseVersion(s.Version)
}

// Reloader returns the command reloader when reloading is enabled.
func (s *Settings) Reloader() rmadmin.Reloader {
	if !s.Reload.Enabled {
		return &rmadmin.NopReloader{}
	}
	return rmadmin.NewCommandReloader(s.Reload.Command, s.Reload.Timeout)
}
