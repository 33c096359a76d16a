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
	"errors"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/apache/hadmin/pkg/common"
)

func TestACLCreate(t *testing.T) {
	tests := []struct {
		input      string
		users      []string
		groups     []string
		allAllowed bool
	}{
		{"", []string{}, []string{}, false},
		{" ", []string{}, []string{}, false},
		{"*", []string{}, []string{}, true},
		{"alice", []string{"alice"}, []string{}, false},
		{"bob,alice", []string{"alice", "bob"}, []string{}, false},
		{"bob,alice ", []string{"alice", "bob"}, []string{}, false},
		{"alice hadoop", []string{"alice"}, []string{"hadoop"}, false},
		{" hadoop,yarn", []string{}, []string{"hadoop", "yarn"}, false},
		{"alice,,*,bob", []string{"alice", "bob"}, []string{}, false},
		{"alice,b@d!", []string{"alice"}, []string{}, false},
	}
	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			acl, err := NewACL(test.input)
			assert.NilError(t, err, "ACL parse should not have failed")
			assert.DeepEqual(t, acl.Users(), test.users)
			assert.DeepEqual(t, acl.Groups(), test.groups)
			assert.Equal(t, acl.AllowAll(), test.allAllowed)
		})
	}
}

func TestNewACLErrorCase(t *testing.T) {
	_, err := NewACL("alice group1 group2")
	assert.ErrorContains(t, err, "multiple spaces")
}

func TestACLRender(t *testing.T) {
	empty, err := NewACL("")
	assert.NilError(t, err)
	assert.Equal(t, empty.Render(true), "*", "empty parent ACL must render as wildcard")
	assert.Equal(t, empty.Render(false), " ", "empty leaf ACL must render as a space")

	acl, err := NewACL("carol,alice,alice hadoop")
	assert.NilError(t, err)
	assert.Equal(t, acl.Render(false), "alice,carol hadoop")
	assert.Equal(t, acl.Render(true), "alice,carol hadoop")

	wild, err := NewACL("*")
	assert.NilError(t, err)
	assert.Equal(t, wild.Render(false), "*")
	assert.Equal(t, NewUserACL("bob", "alice").String(), "alice,bob")
}

func TestACLMembers(t *testing.T) {
	acl := NewUserACL("alice")
	assert.Assert(t, acl.HasUser("alice"))
	err := acl.AddUser("alice")
	assert.Assert(t, errors.Is(err, common.ErrorDuplicateMember), "expected duplicate error, got %v", err)
	assert.DeepEqual(t, acl.Users(), []string{"alice"})

	assert.NilError(t, acl.AddUser("bob"))
	assert.DeepEqual(t, acl.Users(), []string{"alice", "bob"})
	err = acl.AddUser("not valid")
	assert.Assert(t, errors.Is(err, common.ErrorInvalidMember), "expected invalid member error, got %v", err)

	err = acl.RemoveUser("carol")
	assert.Assert(t, errors.Is(err, common.ErrorMemberNotFound), "expected member not found, got %v", err)
	assert.NilError(t, acl.RemoveUser("alice"))
	assert.DeepEqual(t, acl.Users(), []string{"bob"})

	var zero ACL
	assert.Assert(t, zero.IsEmpty())
	assert.NilError(t, zero.AddUser("dave"))
	assert.Assert(t, !zero.IsEmpty())
}

func TestACLCloneAndEqual(t *testing.T) {
	acl, err := NewACL("alice,bob hadoop")
	assert.NilError(t, err)
	clone := acl.Clone()
	assert.Assert(t, acl.Equal(clone))
	assert.NilError(t, clone.AddUser("carol"))
	assert.Assert(t, !acl.Equal(clone), "clone must not share members with the original")
	assert.Assert(t, !acl.HasUser("carol"))

	wild, err := NewACL("*")
	assert.NilError(t, err)
	assert.Assert(t, !wild.Equal(ACL{}))
	assert.Assert(t, NewUserACL().Equal(ACL{}))
}

func TestACLAccess(t *testing.T) {
	tests := []struct {
		acl     string
		user    string
		groups  []string
		allowed bool
	}{
		{"", "alice", nil, false},
		{"*", "alice", nil, true},
		{"alice", "alice", nil, true},
		{"alice", "bob", []string{"hadoop"}, false},
		{"alice hadoop", "bob", []string{"users", "hadoop"}, true},
		{" hadoop", "bob", []string{"users"}, false},
	}
	for _, test := range tests {
		acl, err := NewACL(test.acl)
		assert.NilError(t, err)
		assert.Equal(t, acl.CheckAccess(test.user, test.groups), test.allowed, "acl %q user %s", test.acl, test.user)
	}
}
