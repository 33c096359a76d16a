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

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/apache/hadmin/pkg/capacity"
	"github.com/apache/hadmin/pkg/common/configs"
	"github.com/apache/hadmin/pkg/editor"
	"github.com/apache/hadmin/pkg/generator"
	"github.com/apache/hadmin/pkg/log"
)

const stdoutPath = "-"

var errApplyWithOutput = errors.New("--apply only works when writing the capacity scheduler file")

func newGenQueuesCmd(o *rootOptions) *cobra.Command {
	var apply bool
	genQueuesCmd := &cobra.Command{
		Use:   "genqueues <definitions-dir> [output]",
		Short: "Generate the queue tree from a directory of queue definitions.",
		Long: `Generate the queue tree from a directory of YAML queue definitions, one file per queue.
Capacities are derived from the weights of sibling queues. The keys of the queues are written over the
current capacity scheduler configuration, other keys are kept. Use "-" as output to print the result.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := outputArg(args, 1)
			if apply && output != "" {
				return errApplyWithOutput
			}
			defs, err := generator.LoadDir(args[0])
			if err != nil {
				return err
			}
			root, err := generator.Generate(defs)
			if err != nil {
				return err
			}
			cs := capacity.NewCapacityScheduler(o.version)
			cs.SetRoot(root)
			base, err := o.loadBase(o.settings.SchedulerPath())
			if err != nil {
				return err
			}
			// without a root definition the root queue keeps its current settings
			if !generator.DefinesRoot(defs) {
				if err = cs.InheritRoot(base); err != nil {
					return err
				}
			}
			log.Log(log.CLI).Info("queues generated", zap.Int("definitions", len(defs)))
			return o.writeResult(cmd, output, cs.UpdateConfig(base), apply)
		},
	}
	genQueuesCmd.Flags().BoolVar(&apply, "apply", false, "reload the queues in the resource manager after writing")
	return genQueuesCmd
}

func newRenderCmd(o *rootOptions) *cobra.Command {
	var apply bool
	renderCmd := &cobra.Command{
		Use:   "render [output]",
		Short: "Render the queue document into the capacity scheduler configuration.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := outputArg(args, 0)
			if apply && output != "" {
				return errApplyWithOutput
			}
			doc, err := editor.LoadDocument(o.settings.QueuesPath())
			if err != nil {
				return err
			}
			base, err := o.loadBase(o.settings.SchedulerPath())
			if err != nil {
				return err
			}
			fc, err := doc.UpdateConfig(base, o.version)
			if err != nil {
				return err
			}
			return o.writeResult(cmd, output, fc, apply)
		},
	}
	renderCmd.Flags().BoolVar(&apply, "apply", false, "reload the queues in the resource manager after writing")
	return renderCmd
}

func outputArg(args []string, idx int) string {
	if len(args) > idx {
		return args[idx]
	}
	return ""
}

// writeResult writes to stdout, to the named file or by default to the capacity scheduler file.
func (o *rootOptions) writeResult(cmd *cobra.Command, output string, fc *configs.FlatConfig, apply bool) error {
	switch output {
	case stdoutPath:
		return fc.WriteXML(cmd.OutOrStdout())
	case "":
		return o.writeScheduler(cmd.Context(), fc, apply)
	default:
		return configs.SaveFile(output, fc)
	}
}
