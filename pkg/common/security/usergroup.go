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

package security

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/user"
	"strings"

	"go.uber.org/zap"

	"github.com/apache/hadmin/pkg/log"
)

// UserGroup is a user with the groups it belongs to, primary group first.
type UserGroup struct {
	User   string
	Groups []string
}

// Resolver looks up users and groups. The lookup methods are replaceable to allow testing without
// depending on the accounts of the host.
type Resolver struct {
	lookup        func(userName string) (*user.User, error)
	lookupGroupID func(gid string) (*user.Group, error)
	groupIds      func(osUser *user.User) ([]string, error)
}

// NewOSResolver returns a resolver backed by the operating system account database.
func NewOSResolver() *Resolver {
	return &Resolver{
		lookup:        user.Lookup,
		lookupGroupID: user.LookupGroupId,
		groupIds: func(osUser *user.User) ([]string, error) {
			return osUser.GroupIds()
		},
	}
}

// GetUserGroup resolves the user and its groups. Groups that cannot be resolved are listed by ID.
func (r *Resolver) GetUserGroup(userName string) (UserGroup, error) {
	if userName == "" {
		return UserGroup{}, fmt.Errorf("empty user cannot resolve")
	}
	ug := UserGroup{User: userName}
	osUser, err := r.lookup(userName)
	if err != nil {
		log.Log(log.Config).Debug("Error resolving user: does not exist",
			zap.String("userName", userName),
			zap.Error(err))
		return ug, err
	}
	// resolve the primary group and add it first
	if group, err := r.lookupGroupID(osUser.Gid); err != nil {
		ug.Groups = append(ug.Groups, osUser.Gid)
	} else {
		ug.Groups = append(ug.Groups, group.Name)
	}
	gids, err := r.groupIds(osUser)
	if err != nil {
		return ug, err
	}
	for _, gid := range gids {
		// skip the primary group if it is in the list
		if gid == osUser.Gid {
			continue
		}
		if group, err := r.lookupGroupID(gid); err != nil {
			ug.Groups = append(ug.Groups, gid)
		} else {
			ug.Groups = append(ug.Groups, group.Name)
		}
	}
	return ug, nil
}

// UsersFromPasswd returns the user names listed in a passwd formatted document.
// Comments and blank lines are skipped.
func UsersFromPasswd(r io.Reader) ([]string, error) {
	users := make([]string, 0)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, _, _ := strings.Cut(line, ":")
		if name != "" {
			users = append(users, name)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// LoadPasswd reads the user names from a passwd file.
func LoadPasswd(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return UsersFromPasswd(file)
}
