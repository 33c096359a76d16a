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
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/apache/hadmin/pkg/capacity"
	"github.com/apache/hadmin/pkg/common/configs"
	"github.com/apache/hadmin/pkg/editor"
	"github.com/apache/hadmin/pkg/log"
	"github.com/apache/hadmin/pkg/mapping"
	"github.com/apache/hadmin/pkg/rmadmin"
)

// rootOptions is shared by all commands, the settings are loaded before any command runs.
type rootOptions struct {
	settingsFile string
	settings     *Settings
	version      mapping.Version
	// reloader overrides the configured reloader, used in tests
	reloader rmadmin.Reloader
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&rootOptions{})
}

func newRootCmd(o *rootOptions) *cobra.Command {
	v := newViper()
	rootCmd := &cobra.Command{
		Use:           "hadmin",
		Short:         "Manage the Hadoop capacity scheduler queue configuration",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(v, o.settingsFile, cmd.Flags())
			if err != nil {
				return fmt.Errorf("failed to load settings: %w", err)
			}
			level, err := log.ParseLevel(settings.LogLevel)
			if err != nil {
				return err
			}
			log.InitAndSetLevel(level)
			if o.version, err = settings.MappingVersion(); err != nil {
				return err
			}
			o.settings = settings
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&o.settingsFile, "config", "", "settings file, default hadmin.yaml in $HOME/.hadmin or /etc/hadmin")
	flags.String(KeyConfDir, configs.DefaultConfDir, "Hadoop configuration directory")
	flags.String(KeyCapacityScheduler, configs.CapacitySchedulerFile, "capacity scheduler file, relative to the configuration directory")
	flags.String(KeyQueuesFile, configs.DefaultQueuesFile, "queue document edited by the queue and user commands")
	flags.StringP(KeyVersion, "V", mapping.V2.String(), "configuration format version: 1 (mapred) or 2 (yarn)")
	flags.String(KeyLogLevel, "info", "log level: debug, info, warn or error")

	// ====== Inspect the scheduler configuration
	rootCmd.AddCommand(newQueueStatCmd(o))
	rootCmd.AddCommand(newCheckCmd(o))
	rootCmd.AddCommand(newMappingCmd(o))
	rootCmd.AddCommand(newMetricsCmd(o))

	// ====== Write the scheduler configuration
	rootCmd.AddCommand(newGenQueuesCmd(o))
	rootCmd.AddCommand(newRenderCmd(o))

	// ====== Edit the queue document
	rootCmd.AddCommand(newUserAddCmd(o))
	rootCmd.AddCommand(newUserDelCmd(o))
	rootCmd.AddCommand(newQueueAddCmd(o))
	rootCmd.AddCommand(newQueueDelCmd(o))
	rootCmd.AddCommand(newQueueCapCmd(o))
	rootCmd.AddCommand(newQueueULimCmd(o))
	rootCmd.AddCommand(newQueueTPUCmd(o))
	rootCmd.AddCommand(newQueueStateCmd(o, "queueon", true))
	rootCmd.AddCommand(newQueueStateCmd(o, "queueoff", false))

	// ====== Run a server
	rootCmd.AddCommand(newServeCmd(o))

	return rootCmd
}

func (o *rootOptions) getReloader() rmadmin.Reloader {
	if o.reloader != nil {
		return o.reloader
	}
	return o.settings.Reloader()
}

func (o *rootOptions) loadScheduler() (*capacity.CapacityScheduler, error) {
	fc, err := configs.LoadFile(o.settings.SchedulerPath())
	if err != nil {
		return nil, err
	}
	return capacity.FromFlatConfig(fc, o.version)
}

// loadBase returns the current scheduler configuration, a missing file gives an empty configuration.
func (o *rootOptions) loadBase(path string) (*configs.FlatConfig, error) {
	fc, err := configs.LoadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return configs.NewFlatConfig(), nil
	}
	return fc, err
}

// writeScheduler writes the configuration into the scheduler file and asks the resource manager to
// reload it when requested.
func (o *rootOptions) writeScheduler(ctx context.Context, fc *configs.FlatConfig, reload bool) error {
	path := o.settings.SchedulerPath()
	if err := configs.SaveFile(path, fc); err != nil {
		return err
	}
	log.Log(log.CLI).Info("capacity scheduler configuration written",
		zap.String("path", path),
		zap.Int("keys", fc.Len()))
	if !reload {
		return nil
	}
	return o.getReloader().ReloadQueues(ctx)
}

// applyDocument renders the queue document into the scheduler file and reloads the queues.
func (o *rootOptions) applyDocument(ctx context.Context, doc editor.Document) error {
	base, err := o.loadBase(o.settings.SchedulerPath())
	if err != nil {
		return err
	}
	fc, err := doc.UpdateConfig(base, o.version)
	if err != nil {
		return err
	}
	return o.writeScheduler(ctx, fc, true)
}
