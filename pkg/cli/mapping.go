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
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/apache/hadmin/pkg/common"
	"github.com/apache/hadmin/pkg/mapping"
)

type mappingOptions struct {
	output outputOptions
	owner  string
	queue  string
}

func newMappingCmd(o *rootOptions) *cobra.Command {
	mo := &mappingOptions{}
	mappingCmd := &cobra.Command{
		Use:   "mapping [attribute]",
		Short: "Show the configuration key of an attribute, or all keys of the version.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return listMapping(cmd, o, mo)
			}
			return resolveMapping(cmd, o, mo, mapping.Attribute(args[0]))
		},
	}
	mo.output.addFlags(mappingCmd)
	mappingCmd.Flags().StringVar(&mo.owner, "owner", "", "owner of the key: scheduler or queues")
	mappingCmd.Flags().StringVar(&mo.queue, "queue", "", "substitute the queue path in a queue key")
	return mappingCmd
}

func resolveMapping(cmd *cobra.Command, o *rootOptions, mo *mappingOptions, attr mapping.Attribute) error {
	if !mapping.IsKnownAttribute(attr) {
		return fmt.Errorf("unknown attribute %q", attr)
	}
	var key string
	var err error
	switch {
	case mo.queue != "":
		path := common.QueueFQN(mo.queue)
		if err = common.CheckQueuePath(path); err != nil {
			return err
		}
		key, err = mapping.ResolveQueueKey(attr, o.version, common.QueueRelativePath(path))
	case mo.owner != "":
		var owner mapping.Owner
		if owner, err = mapping.ParseOwner(mo.owner); err != nil {
			return err
		}
		key, err = mapping.Resolve(attr, o.version, owner)
	default:
		key, err = mapping.Resolve(attr, o.version)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), key)
	return nil
}

func listMapping(cmd *cobra.Command, o *rootOptions, mo *mappingOptions) error {
	rows := make([]table.Row, 0)
	for _, attr := range mapping.Attributes(o.version) {
		for _, owner := range mapping.Owners(attr, o.version) {
			key, err := mapping.Resolve(attr, o.version, owner)
			if err != nil {
				return err
			}
			rows = append(rows, table.Row{attr, owner, key})
		}
	}
	return mo.output.render(cmd, table.Row{"Attribute", "Owner", "Key"}, rows)
}
