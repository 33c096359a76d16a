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

	"github.com/spf13/cobra"

	"github.com/apache/hadmin/pkg/common/security"
	"github.com/apache/hadmin/pkg/editor"
)

type editOptions struct {
	apply bool
}

func (eo *editOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&eo.apply, "apply", false, "render the document into the capacity scheduler file and reload the queues")
}

// edit runs the change in a session on the queue document, the document is only written when the
// change succeeds.
func (o *rootOptions) edit(cmd *cobra.Command, eo *editOptions, change func(*editor.Session) error) error {
	var doc editor.Document
	err := editor.WithSession(o.settings.QueuesPath(), func(s *editor.Session) error {
		if err := change(s); err != nil {
			return err
		}
		doc = s.Document()
		return nil
	})
	if err != nil || !eo.apply {
		return err
	}
	return o.applyDocument(cmd.Context(), doc)
}

func newUserAddCmd(o *rootOptions) *cobra.Command {
	eo := &editOptions{}
	var admin bool
	var passwd string
	userAddCmd := &cobra.Command{
		Use:   "useradd <user> <queue>",
		Short: "Allow a user to submit to a queue, or to administer it with --admin.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, queue := args[0], args[1]
			if passwd != "" {
				if err := checkPasswdUser(passwd, user); err != nil {
					return err
				}
			}
			return o.edit(cmd, eo, func(s *editor.Session) error {
				if admin {
					return s.AddAdmin(user, queue)
				}
				return s.AddUser(user, queue)
			})
		},
	}
	eo.addFlags(userAddCmd)
	userAddCmd.Flags().BoolVar(&admin, "admin", false, "change the administrators instead of the users")
	userAddCmd.Flags().StringVar(&passwd, "passwd", "", "passwd file the user must be listed in")
	return userAddCmd
}

func checkPasswdUser(path, user string) error {
	users, err := security.LoadPasswd(path)
	if err != nil {
		return err
	}
	for _, known := range users {
		if known == user {
			return nil
		}
	}
	return fmt.Errorf("user %s is not listed in %s", user, path)
}

func newUserDelCmd(o *rootOptions) *cobra.Command {
	eo := &editOptions{}
	var admin bool
	userDelCmd := &cobra.Command{
		Use:   "userdel <user> <queue>",
		Short: "Remove a user from the users of a queue, or from the administrators with --admin.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.edit(cmd, eo, func(s *editor.Session) error {
				if admin {
					return s.DelAdmin(args[0], args[1])
				}
				return s.DelUser(args[0], args[1])
			})
		},
	}
	eo.addFlags(userDelCmd)
	userDelCmd.Flags().BoolVar(&admin, "admin", false, "change the administrators instead of the users")
	return userDelCmd
}

func newQueueAddCmd(o *rootOptions) *cobra.Command {
	eo := &editOptions{}
	queueAddCmd := &cobra.Command{
		Use:   "queueadd <queue> <user>",
		Short: "Add a queue with zero capacity, the user becomes its first user and administrator.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.edit(cmd, eo, func(s *editor.Session) error {
				return s.AddQueue(args[0], args[1])
			})
		},
	}
	eo.addFlags(queueAddCmd)
	return queueAddCmd
}

func newQueueDelCmd(o *rootOptions) *cobra.Command {
	eo := &editOptions{}
	queueDelCmd := &cobra.Command{
		Use:   "queuedel <queue>",
		Short: "Remove a queue without child queues.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.edit(cmd, eo, func(s *editor.Session) error {
				return s.DelQueue(args[0])
			})
		},
	}
	eo.addFlags(queueDelCmd)
	return queueDelCmd
}

func newQueueCapCmd(o *rootOptions) *cobra.Command {
	eo := &editOptions{}
	var maximum bool
	queueCapCmd := &cobra.Command{
		Use:   "queuecap <queue> <capacity>",
		Short: "Set the capacity of a queue, or the maximum capacity with --max.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.edit(cmd, eo, func(s *editor.Session) error {
				if maximum {
					return s.SetMaxCapacity(args[0], args[1])
				}
				return s.SetCapacity(args[0], args[1])
			})
		},
	}
	eo.addFlags(queueCapCmd)
	queueCapCmd.Flags().BoolVar(&maximum, "max", false, "set the maximum capacity")
	return queueCapCmd
}

func newQueueULimCmd(o *rootOptions) *cobra.Command {
	eo := &editOptions{}
	queueULimCmd := &cobra.Command{
		Use:   "queueulim <queue> <factor>",
		Short: "Set the user limit factor of a queue.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.edit(cmd, eo, func(s *editor.Session) error {
				return s.SetUserLimitFactor(args[0], args[1])
			})
		},
	}
	eo.addFlags(queueULimCmd)
	return queueULimCmd
}

func newQueueTPUCmd(o *rootOptions) *cobra.Command {
	eo := &editOptions{}
	queueTPUCmd := &cobra.Command{
		Use:   "queuetpu <queue> <tasks>",
		Short: "Set the maximum number of active tasks per user of a queue.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.edit(cmd, eo, func(s *editor.Session) error {
				return s.SetUserLimit(args[0], args[1])
			})
		},
	}
	eo.addFlags(queueTPUCmd)
	return queueTPUCmd
}

func newQueueStateCmd(o *rootOptions, use string, running bool) *cobra.Command {
	eo := &editOptions{}
	short := "Start a queue."
	if !running {
		short = "Stop a queue."
	}
	queueStateCmd := &cobra.Command{
		Use:   use + " <queue>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.edit(cmd, eo, func(s *editor.Session) error {
				return s.SetRunning(args[0], running)
			})
		},
	}
	eo.addFlags(queueStateCmd)
	return queueStateCmd
}
