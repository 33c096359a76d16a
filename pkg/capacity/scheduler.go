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
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/apache/hadmin/pkg/common"
	"github.com/apache/hadmin/pkg/common/security"
	"github.com/apache/hadmin/pkg/log"
	"github.com/apache/hadmin/pkg/mapping"
)

// CapacityEpsilon is the tolerance used when checking that child capacities add up to 100.
const CapacityEpsilon = 1e-9

// MaxDepth limits the depth of a queue tree read from a configuration.
const MaxDepth = 100

// CapacityScheduler is the queue tree of one scheduler configuration in a given key namespace version.
type CapacityScheduler struct {
	root    *Queue
	version mapping.Version
}

// NewCapacityScheduler creates a tree with only the root queue.
func NewCapacityScheduler(version mapping.Version) *CapacityScheduler {
	return &CapacityScheduler{
		root:    NewQueue(common.RootQueue),
		version: version,
	}
}

// Version returns the key namespace version the tree is read from and written to.
func (cs *CapacityScheduler) Version() mapping.Version {
	return cs.version
}

// Root returns the root queue, never nil.
func (cs *CapacityScheduler) Root() *Queue {
	return cs.root
}

// SetRoot replaces the whole tree, the queue is renamed to the root queue.
func (cs *CapacityScheduler) SetRoot(root *Queue) {
	root.name = common.RootQueue
	cs.root = root
}

// GetQueue returns the queue for the path or nil if any part of the path does not exist.
// The path may leave out the root queue.
func (cs *CapacityScheduler) GetQueue(path string) *Queue {
	parts := strings.Split(common.QueueFQN(path), common.DOT)
	queue := cs.root
	for _, part := range parts[1:] {
		if queue = queue.Child(part); queue == nil {
			return nil
		}
	}
	return queue
}

// Walk visits the queue tree depth first, parents before children, in configuration order.
func (cs *CapacityScheduler) Walk(visit func(path string, queue *Queue)) {
	walk(common.RootQueue, cs.root, visit)
}

func walk(path string, queue *Queue, visit func(path string, queue *Queue)) {
	visit(path, queue)
	for _, child := range queue.children {
		walk(common.JoinQueuePath(path, child.name), child, visit)
	}
}

// QueueList returns the sorted paths of the queue and all its descendants. Unlike GetQueue a missing
// start queue is an error: ErrorUnknownQueue.
func (cs *CapacityScheduler) QueueList(start string) ([]string, error) {
	fqn := common.QueueFQN(start)
	queue := cs.GetQueue(fqn)
	if queue == nil {
		return nil, fmt.Errorf("%w: %s", common.ErrorUnknownQueue, fqn)
	}
	names := make([]string, 0)
	walk(fqn, queue, func(path string, _ *Queue) {
		names = append(names, path)
	})
	sort.Strings(names)
	return names, nil
}

// CheckCapacities returns the sorted paths of the parent queues whose children's capacities do not
// add up to 100.
func (cs *CapacityScheduler) CheckCapacities() []string {
	failed := make([]string, 0)
	cs.Walk(func(path string, queue *Queue) {
		if queue.IsLeaf() {
			return
		}
		sum := 0.0
		for _, child := range queue.children {
			sum += child.capacity
		}
		if math.Abs(sum-100.0) > CapacityEpsilon {
			log.Log(log.Capacity).Debug("child capacities do not add up to 100",
				zap.String("queue", path),
				zap.Float64("sum", sum))
			failed = append(failed, path)
		}
	})
	sort.Strings(failed)
	return failed
}

// CheckMaximumCapacities returns the sorted paths of the queues with a maximum capacity lower than
// the capacity.
func (cs *CapacityScheduler) CheckMaximumCapacities() []string {
	failed := make([]string, 0)
	cs.Walk(func(path string, queue *Queue) {
		if queue.maxCapacity < queue.capacity {
			failed = append(failed, path)
		}
	})
	sort.Strings(failed)
	return failed
}

// AddQueue adds the queue as the last child of the parent. Fails with ErrorUnknownQueue for a missing
// parent, ErrorQueueExists for a duplicate name and InvalidQueueName.
func (cs *CapacityScheduler) AddQueue(parentPath string, queue *Queue) error {
	parent := cs.GetQueue(parentPath)
	if parent == nil {
		return fmt.Errorf("%w: %s", common.ErrorUnknownQueue, common.QueueFQN(parentPath))
	}
	if err := parent.AddChild(queue); err != nil {
		return err
	}
	log.Log(log.Capacity).Debug("queue added",
		zap.String("parent", common.QueueFQN(parentPath)),
		zap.String("queue", queue.name))
	return nil
}

// RemoveQueue removes a leaf queue. The root queue cannot be removed: ErrorRootQueue, a parent queue
// fails with ErrorQueueNotEmpty.
func (cs *CapacityScheduler) RemoveQueue(path string) error {
	fqn := common.QueueFQN(path)
	if fqn == common.RootQueue {
		return fmt.Errorf("%w: remove", common.ErrorRootQueue)
	}
	queue := cs.GetQueue(fqn)
	if queue == nil {
		return fmt.Errorf("%w: %s", common.ErrorUnknownQueue, fqn)
	}
	if !queue.IsLeaf() {
		return fmt.Errorf("%w: %s", common.ErrorQueueNotEmpty, fqn)
	}
	if _, err := cs.GetQueue(common.QueueParent(fqn)).RemoveChild(queue.name); err != nil {
		return err
	}
	log.Log(log.Capacity).Debug("queue removed",
		zap.String("queue", fqn))
	return nil
}

// CanSubmit returns true if the submit ACL of the queue, or of one of its ancestors, allows the
// user or one of the groups. A queue with children and an empty ACL allows everybody.
func (cs *CapacityScheduler) CanSubmit(path, user string, groups []string) bool {
	return cs.checkAccess(path, user, groups, (*Queue).Users)
}

// CanAdminister checks the administer ACLs the same way CanSubmit checks the submit ACLs.
func (cs *CapacityScheduler) CanAdminister(path, user string, groups []string) bool {
	return cs.checkAccess(path, user, groups, (*Queue).Admins)
}

func (cs *CapacityScheduler) checkAccess(path, user string, groups []string, aclOf func(*Queue) security.ACL) bool {
	if cs.GetQueue(path) == nil {
		return false
	}
	for fqn := common.QueueFQN(path); fqn != ""; fqn = common.QueueParent(fqn) {
		queue := cs.GetQueue(fqn)
		acl := aclOf(queue)
		if !queue.IsLeaf() && acl.IsEmpty() {
			return true
		}
		if acl.CheckAccess(user, groups) {
			return true
		}
	}
	return false
}

// AbsoluteCapacity returns the share of the whole cluster guaranteed to the queue in percent: the
// product of the capacities along the path. Unknown queues have no capacity.
func (cs *CapacityScheduler) AbsoluteCapacity(path string) float64 {
	if cs.GetQueue(path) == nil {
		return 0
	}
	abs := 100.0
	for fqn := common.QueueFQN(path); fqn != common.RootQueue; fqn = common.QueueParent(fqn) {
		abs = abs * cs.GetQueue(fqn).Capacity() / 100.0
	}
	return abs
}
