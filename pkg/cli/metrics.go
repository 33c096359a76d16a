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
	"github.com/spf13/cobra"

	"github.com/apache/hadmin/pkg/metrics"
)

func newMetricsCmd(o *rootOptions) *cobra.Command {
	var textfile string
	metricsCmd := &cobra.Command{
		Use:   "metrics",
		Short: "Print the queue configuration as prometheus metrics.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := o.loadScheduler()
			if err != nil {
				return err
			}
			metrics.Update(cs)
			if textfile != "" {
				return metrics.WriteToTextfile(textfile)
			}
			return metrics.WriteText(cmd.OutOrStdout())
		},
	}
	metricsCmd.Flags().StringVar(&textfile, "textfile", "", "write into a file for the node exporter textfile collector")
	return metricsCmd
}
