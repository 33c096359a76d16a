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

package capacity

import (
	"errors"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/apache/hadmin/pkg/common"
	"github.com/apache/hadmin/pkg/common/security"
	"github.com/apache/hadmin/pkg/mapping"
)

// creates root -> dev -> (a, b), root -> default with the given capacities
func newTestScheduler(t *testing.T, version mapping.Version, devCap, defaultCap, aCap, bCap float64) *CapacityScheduler {
	cs := NewCapacityScheduler(version)
	dev := NewQueue("dev")
	assert.NilError(t, dev.SetCapacity(devCap))
	dev.SetAdmins(security.NewUserACL("alice"))
	def := NewQueue("default")
	assert.NilError(t, def.SetCapacity(defaultCap))
	assert.NilError(t, def.SetMaxCapacity(defaultCap))
	def.SetUsers(security.NewUserACL("bob", "carol"))
	def.SetRunning(false)
	assert.NilError(t, cs.AddQueue("root", dev))
	assert.NilError(t, cs.AddQueue("root", def))
	a := NewQueue("a")
	assert.NilError(t, a.SetCapacity(aCap))
	assert.NilError(t, a.SetUserLimitFactor(2))
	b := NewQueue("b")
	assert.NilError(t, b.SetCapacity(bCap))
	assert.NilError(t, cs.AddQueue("dev", a))
	assert.NilError(t, cs.AddQueue("root.dev", b))
	return cs
}

func TestGetQueue(t *testing.T) {
	cs := newTestScheduler(t, mapping.V2, 60, 40, 50, 50)
	assert.Equal(t, cs.Version(), mapping.V2)
	assert.Equal(t, cs.GetQueue("root"), cs.Root())
	assert.Equal(t, cs.GetQueue("").Name(), "root")
	assert.Equal(t, cs.GetQueue("root.dev.a").Name(), "a")
	assert.Equal(t, cs.GetQueue("dev.b").Name(), "b")
	assert.Assert(t, cs.GetQueue("root.dev.c") == nil)
	assert.Assert(t, cs.GetQueue("root.missing.a") == nil)
}

func TestQueueList(t *testing.T) {
	cs := newTestScheduler(t, mapping.V2, 60, 40, 50, 50)
	names, err := cs.QueueList("root")
	assert.NilError(t, err)
	assert.DeepEqual(t, names, []string{"root", "root.default", "root.dev", "root.dev.a", "root.dev.b"})
	names, err = cs.QueueList("dev")
	assert.NilError(t, err)
	assert.DeepEqual(t, names, []string{"root.dev", "root.dev.a", "root.dev.b"})
	_, err = cs.QueueList("root.missing")
	assert.Assert(t, errors.Is(err, common.ErrorUnknownQueue), "got %v", err)
}

func TestWalkOrder(t *testing.T) {
	cs := newTestScheduler(t, mapping.V2, 60, 40, 50, 50)
	var paths []string
	cs.Walk(func(path string, _ *Queue) {
		paths = append(paths, path)
	})
	assert.DeepEqual(t, paths, []string{"root", "root.dev", "root.dev.a", "root.dev.b", "root.default"})
}

func TestCheckCapacities(t *testing.T) {
	cs := NewCapacityScheduler(mapping.V2)
	for _, name := range []string{"a", "b", "c"} {
		queue := NewQueue(name)
		assert.NilError(t, queue.SetCapacity(30))
		assert.NilError(t, cs.AddQueue("root", queue))
	}
	assert.DeepEqual(t, cs.CheckCapacities(), []string{"root"})
	assert.NilError(t, cs.GetQueue("root.c").SetCapacity(40))
	assert.DeepEqual(t, cs.CheckCapacities(), []string{})

	// fractional shares within the tolerance pass
	cs = NewCapacityScheduler(mapping.V2)
	for _, name := range []string{"a", "b", "c"} {
		queue := NewQueue(name)
		assert.NilError(t, queue.SetCapacity(100.0/3.0))
		assert.NilError(t, cs.AddQueue("root", queue))
	}
	assert.DeepEqual(t, cs.CheckCapacities(), []string{})

	cs = newTestScheduler(t, mapping.V2, 60, 30, 50, 40)
	assert.DeepEqual(t, cs.CheckCapacities(), []string{"root", "root.dev"})
}

func TestCheckMaximumCapacities(t *testing.T) {
	cs := newTestScheduler(t, mapping.V2, 60, 40, 50, 50)
	assert.DeepEqual(t, cs.CheckMaximumCapacities(), []string{})
	assert.NilError(t, cs.GetQueue("root.dev.a").SetMaxCapacity(20))
	assert.NilError(t, cs.GetQueue("root.default").SetMaxCapacity(39.5))
	assert.DeepEqual(t, cs.CheckMaximumCapacities(), []string{"root.default", "root.dev.a"})
}

func TestAddQueue(t *testing.T) {
	cs := NewCapacityScheduler(mapping.V2)
	err := cs.AddQueue("root.missing", NewQueue("a"))
	assert.Assert(t, errors.Is(err, common.ErrorUnknownQueue), "got %v", err)
	assert.NilError(t, cs.AddQueue("", NewQueue("a")))
	err = cs.AddQueue("root", NewQueue("a"))
	assert.Assert(t, errors.Is(err, common.ErrorQueueExists), "got %v", err)
	err = cs.AddQueue("root", NewQueue("a.b"))
	assert.Assert(t, errors.Is(err, common.InvalidQueueName), "got %v", err)
}

func TestRemoveQueue(t *testing.T) {
	cs := newTestScheduler(t, mapping.V2, 60, 40, 50, 50)
	err := cs.RemoveQueue("root")
	assert.Assert(t, errors.Is(err, common.ErrorRootQueue), "got %v", err)
	err = cs.RemoveQueue("root.dev")
	assert.Assert(t, errors.Is(err, common.ErrorQueueNotEmpty), "got %v", err)
	err = cs.RemoveQueue("root.nope")
	assert.Assert(t, errors.Is(err, common.ErrorUnknownQueue), "got %v", err)
	assert.NilError(t, cs.RemoveQueue("dev.a"))
	assert.NilError(t, cs.RemoveQueue("root.dev.b"))
	assert.Assert(t, cs.GetQueue("root.dev").IsLeaf())
	assert.NilError(t, cs.RemoveQueue("root.dev"))
	names, err := cs.QueueList("root")
	assert.NilError(t, err)
	assert.DeepEqual(t, names, []string{"root", "root.default"})
}

func TestSetRoot(t *testing.T) {
	cs := NewCapacityScheduler(mapping.V1)
	root := NewQueue("top")
	assert.NilError(t, root.AddChild(NewQueue("a")))
	cs.SetRoot(root)
	assert.Equal(t, cs.Root().Name(), "root")
	assert.Equal(t, cs.GetQueue("root.a").Name(), "a")
}

func TestCanSubmit(t *testing.T) {
	cs := newTestScheduler(t, mapping.V2, 60, 40, 50, 50)
	// an unrestricted root lets everybody in everywhere
	assert.Assert(t, cs.CanSubmit("root.default", "dave", nil))

	cs.Root().SetUsers(security.NewUserACL("hadoop"))
	analysts, err := security.NewACL(" analysts")
	assert.NilError(t, err)
	cs.GetQueue("root.dev").SetUsers(analysts)

	tests := []struct {
		path   string
		user   string
		groups []string
		want   bool
	}{
		{"root.default", "bob", nil, true},
		{"root.default", "dave", nil, false},
		{"root.default", "hadoop", nil, true},
		{"root.dev.a", "erin", []string{"analysts"}, true},
		{"root.dev.a", "erin", []string{"ops"}, false},
		{"dev.b", "hadoop", nil, true},
		{"root.missing", "hadoop", nil, false},
	}
	for _, tt := range tests {
		assert.Equal(t, cs.CanSubmit(tt.path, tt.user, tt.groups), tt.want, "%s %s %v", tt.path, tt.user, tt.groups)
	}
}

func TestCanAdminister(t *testing.T) {
	cs := newTestScheduler(t, mapping.V2, 60, 40, 50, 50)
	cs.Root().SetAdmins(security.NewUserACL("hadoop"))
	assert.Assert(t, cs.CanAdminister("root.dev.a", "alice", nil), "admin of the parent")
	assert.Assert(t, cs.CanAdminister("root.dev.a", "hadoop", nil), "admin of the root")
	assert.Assert(t, !cs.CanAdminister("root.default", "alice", nil))
}

func TestAbsoluteCapacity(t *testing.T) {
	cs := newTestScheduler(t, mapping.V2, 60, 40, 50, 25)
	assert.Equal(t, cs.AbsoluteCapacity("root"), 100.0)
	assert.Equal(t, cs.AbsoluteCapacity("root.dev"), 60.0)
	assert.Equal(t, cs.AbsoluteCapacity("dev.a"), 30.0)
	assert.Equal(t, cs.AbsoluteCapacity("root.dev.b"), 15.0)
	assert.Equal(t, cs.AbsoluteCapacity("root.missing"), 0.0)
}
