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
	"fmt"

	"github.com/spf13/cobra"
)

var errCheckFailed = errors.New("capacity scheduler configuration failed the sanity checks")

func newCheckCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "sc",
		Aliases: []string{"check"},
		Short:   "Check that child capacities add up to 100 and maximum capacities are not below capacities.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return check(cmd, o)
		},
	}
}

// check prints one line per failing queue, the command fails if any line was printed.
func check(cmd *cobra.Command, o *rootOptions) error {
	cs, err := o.loadScheduler()
	if err != nil {
		return err
	}
	failed := false
	for _, path := range cs.CheckCapacities() {
		failed = true
		fmt.Fprintf(cmd.OutOrStdout(), "%s: child capacities do not add up to 100\n", path)
	}
	for _, path := range cs.CheckMaximumCapacities() {
		failed = true
		fmt.Fprintf(cmd.OutOrStdout(), "%s: maximum capacity is below capacity\n", path)
	}
	if failed {
		return errCheckFailed
	}
	return nil
}
