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
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/apache/hadmin/pkg/common/configs"
	"github.com/apache/hadmin/pkg/log"
	"github.com/apache/hadmin/pkg/metrics"
	"github.com/apache/hadmin/pkg/webservice"
)

const defaultServeInterval = 10 * time.Second

func newServeCmd(o *rootOptions) *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a read-only REST view and metrics of the capacity scheduler configuration.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd, o)
		},
	}
	serveCmd.Flags().String("address", "", "listen address, overrides serve.address")
	return serveCmd
}

func serve(cmd *cobra.Command, o *rootOptions) error {
	address := o.settings.Serve.Address
	if flag := cmd.Flags().Lookup("address"); flag != nil && flag.Changed {
		address = flag.Value.String()
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	interval := o.settings.Serve.Interval
	if interval <= 0 {
		interval = defaultServeInterval
	}
	path := o.settings.SchedulerPath()
	watcher := configs.CreateConfigWatcher(path, interval)
	watcher.RegisterCallback(metrics.NewUpdater(o.version))
	watcher.Run(ctx)

	ws := webservice.NewWebApp(address, path, o.version)
	ws.StartWebApp()
	log.Log(log.CLI).Info("serving capacity scheduler configuration",
		zap.String("path", path),
		zap.String("address", address))
	<-ctx.Done()
	return ws.StopWebApp()
}
