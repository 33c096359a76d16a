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
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/apache/hadmin/pkg/common"
	"github.com/apache/hadmin/pkg/log"
)

const (
	WildCard  = "*"
	Separator = ","
	Space     = " "
)

// User and group regexp, must allow at least what the resource manager allows in an ACL.
var userNameRegExp = regexp.MustCompile("^[_a-zA-Z][a-zA-Z0-9_.@-]*[$]?$")
var groupRegExp = regexp.MustCompile("^[_a-zA-Z][a-zA-Z0-9_-]*$")

// ACL is a queue access control list in the resource manager format: a comma separated user list,
// optionally followed by a space and a comma separated group list. A single "*" allows everyone.
type ACL struct {
	users      map[string]bool
	groups     map[string]bool
	allAllowed bool
}

// the ACL allows all access, set the flag
func (a *ACL) setAllAllowed(part string) {
	part = strings.TrimSpace(part)
	a.allAllowed = part == WildCard
}

// set the user list in the ACL, invalid user names are ignored
func (a *ACL) setUsers(userList []string) {
	a.users = make(map[string]bool)
	// list could be empty
	if len(userList) == 0 {
		return
	}
	// special case if the user list is just the wildcard
	if len(userList) == 1 && userList[0] == WildCard {
		a.allAllowed = true
		return
	}
	for _, user := range userList {
		user = strings.TrimSpace(user)
		// skip an empty user (happens if ACL is just groups)
		if user == "" || user == WildCard {
			continue
		}
		if userNameRegExp.MatchString(user) {
			a.users[user] = true
		} else {
			log.Log(log.Config).Info("ignoring user in ACL definition",
				zap.String("user", user))
		}
	}
}

// set the group list in the ACL, invalid group names are ignored
func (a *ACL) setGroups(groupList []string) {
	a.groups = make(map[string]bool)
	if len(groupList) == 0 {
		return
	}
	if a.allAllowed {
		log.Log(log.Config).Debug("ignoring group list in ACL: wildcard set")
		return
	}
	for _, group := range groupList {
		group = strings.TrimSpace(group)
		if group == "" || group == WildCard {
			continue
		}
		if groupRegExp.MatchString(group) {
			a.groups[group] = true
		} else {
			log.Log(log.Config).Info("ignoring group in ACL",
				zap.String("group", group))
		}
	}
}

// IsValidUserName returns true if the name is allowed as a user in an ACL.
func IsValidUserName(name string) bool {
	return userNameRegExp.MatchString(name)
}

// NewACL parses an ACL value as it is stored in the scheduler configuration.
// An empty or blank value is an ACL without members.
func NewACL(aclStr string) (ACL, error) {
	acl := ACL{
		users:  make(map[string]bool),
		groups: make(map[string]bool),
	}
	if strings.TrimSpace(aclStr) == "" {
		return acl, nil
	}
	// before trimming check: no more than one space separating users and groups
	fields := strings.Split(aclStr, Space)
	if len(fields) > 2 {
		return acl, fmt.Errorf("multiple spaces found in ACL: '%s'", aclStr)
	}
	acl.setAllAllowed(aclStr)
	acl.setUsers(strings.Split(fields[0], Separator))
	if len(fields) == 2 {
		acl.setGroups(strings.Split(fields[1], Separator))
	}
	return acl, nil
}

// NewUserACL creates an ACL listing the given users, invalid names and the wildcard are ignored.
func NewUserACL(users ...string) ACL {
	acl := ACL{
		users:  make(map[string]bool),
		groups: make(map[string]bool),
	}
	for _, user := range users {
		if user = strings.TrimSpace(user); userNameRegExp.MatchString(user) {
			acl.users[user] = true
		}
	}
	return acl
}

// AllowAll returns true if the ACL is the wildcard.
func (a ACL) AllowAll() bool {
	return a.allAllowed
}

// IsEmpty returns true if the ACL has no members and is not the wildcard.
func (a ACL) IsEmpty() bool {
	return !a.allAllowed && len(a.users) == 0 && len(a.groups) == 0
}

// Users returns the sorted user list.
func (a ACL) Users() []string {
	return sortedKeys(a.users)
}

// Groups returns the sorted group list.
func (a ACL) Groups() []string {
	return sortedKeys(a.groups)
}

// HasUser returns true if the user is listed explicitly.
func (a ACL) HasUser(user string) bool {
	return a.users[user]
}

// AddUser adds a user to the ACL.
func (a *ACL) AddUser(user string) error {
	if !userNameRegExp.MatchString(user) {
		return fmt.Errorf("%w: %q", common.ErrorInvalidMember, user)
	}
	if a.users[user] {
		return fmt.Errorf("%w: %s", common.ErrorDuplicateMember, user)
	}
	if a.users == nil {
		a.users = make(map[string]bool)
	}
	a.users[user] = true
	return nil
}

// RemoveUser removes a user from the ACL.
func (a *ACL) RemoveUser(user string) error {
	if !a.users[user] {
		return fmt.Errorf("%w: %s", common.ErrorMemberNotFound, user)
	}
	delete(a.users, user)
	return nil
}

// Clone returns a copy of the ACL that shares no state with the original.
func (a ACL) Clone() ACL {
	clone := ACL{
		users:      make(map[string]bool, len(a.users)),
		groups:     make(map[string]bool, len(a.groups)),
		allAllowed: a.allAllowed,
	}
	for user := range a.users {
		clone.users[user] = true
	}
	for group := range a.groups {
		clone.groups[group] = true
	}
	return clone
}

// Equal compares the members of two ACLs.
func (a ACL) Equal(other ACL) bool {
	if a.allAllowed != other.allAllowed || len(a.users) != len(other.users) || len(a.groups) != len(other.groups) {
		return false
	}
	for user := range a.users {
		if !other.users[user] {
			return false
		}
	}
	for group := range a.groups {
		if !other.groups[group] {
			return false
		}
	}
	return true
}

// Render returns the ACL in the scheduler configuration format.
// An ACL without members renders as the wildcard for a queue with children, and as a single space for
// a leaf queue: the resource manager rejects an empty leaf ACL value.
func (a ACL) Render(hasChildren bool) string {
	if a.allAllowed {
		return WildCard
	}
	if len(a.users) == 0 && len(a.groups) == 0 {
		if hasChildren {
			return WildCard
		}
		return Space
	}
	value := strings.Join(a.Users(), Separator)
	if len(a.groups) > 0 {
		value += Space + strings.Join(a.Groups(), Separator)
	}
	return value
}

// String returns the ACL as a leaf queue would render it.
func (a ACL) String() string {
	return a.Render(false)
}

// CheckAccess returns true if the user, or one of the groups, is allowed by the ACL.
func (a ACL) CheckAccess(user string, groups []string) bool {
	if a.allAllowed {
		return true
	}
	if a.users[user] {
		return true
	}
	for _, group := range groups {
		if a.groups[group] {
			return true
		}
	}
	return false
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
