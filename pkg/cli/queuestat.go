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
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/apache/hadmin/pkg/capacity"
	"github.com/apache/hadmin/pkg/common"
	"github.com/apache/hadmin/pkg/common/security"
	"github.com/apache/hadmin/pkg/mapping"
)

type queueStatOptions struct {
	output        outputOptions
	user          string
	groups        []string
	resolveGroups bool
}

func newQueueStatCmd(o *rootOptions) *cobra.Command {
	qo := &queueStatOptions{}
	queueStatCmd := &cobra.Command{
		Use:   "queuestat [queue]",
		Short: "List the queues with their capacities, state and ACLs.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := common.RootQueue
			if len(args) == 1 {
				start = args[0]
			}
			return queueStat(cmd, o, qo, start)
		},
	}
	qo.output.addFlags(queueStatCmd)
	queueStatCmd.Flags().StringVar(&qo.user, "user", "", "only list the queues the user can submit to")
	queueStatCmd.Flags().StringSliceVar(&qo.groups, "group", nil, "groups of the user")
	queueStatCmd.Flags().BoolVar(&qo.resolveGroups, "resolve-groups", false, "look up the groups of the user on this host")
	return queueStatCmd
}

func queueStat(cmd *cobra.Command, o *rootOptions, qo *queueStatOptions, start string) error {
	cs, err := o.loadScheduler()
	if err != nil {
		return err
	}
	paths, err := cs.QueueList(start)
	if err != nil {
		return err
	}
	groups := qo.groups
	if qo.user != "" && qo.resolveGroups {
		ug, err := security.NewOSResolver().GetUserGroup(qo.user)
		if err != nil {
			return err
		}
		groups = append(groups, ug.Groups...)
	}
	rows := make([]table.Row, 0, len(paths))
	for _, path := range paths {
		if qo.user != "" && !cs.CanSubmit(path, qo.user, groups) {
			continue
		}
		rows = append(rows, queueRow(cs, path))
	}
	header := table.Row{"Queue", "Capacity", "Max Capacity", "Absolute Capacity", "User Limit Factor", "State", "Users", "Admins"}
	return qo.output.render(cmd, header, rows)
}

func queueRow(cs *capacity.CapacityScheduler, path string) table.Row {
	queue := cs.GetQueue(path)
	return table.Row{
		path,
		common.FormatFloat(queue.Capacity()),
		common.FormatFloat(queue.MaxCapacity()),
		common.FormatFloat(cs.AbsoluteCapacity(path)),
		common.FormatFloat(queue.UserLimitFactor()),
		mapping.StateString(cs.Version(), queue.IsRunning()),
		queue.SubmitACLString(),
		queue.AdminACLString(),
	}
}
