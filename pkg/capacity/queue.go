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

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/apache/hadmin/pkg/common"
	"github.com/apache/hadmin/pkg/common/security"
)

const (
	DefaultCapacity        = 100.0
	DefaultMaxCapacity     = 100.0
	DefaultUserLimitFactor = 1.0
)

// Queue is one node in the scheduler queue tree. A queue exclusively owns its children.
type Queue struct {
	name            string
	admins          security.ACL
	users           security.ACL
	capacity        float64
	maxCapacity     float64
	userLimitFactor float64
	running         bool
	children        []*Queue
}

// NewQueue creates a running leaf queue with full capacity and empty ACLs.
func NewQueue(name string) *Queue {
	return &Queue{
		name:            name,
		admins:          security.NewUserACL(),
		users:           security.NewUserACL(),
		capacity:        DefaultCapacity,
		maxCapacity:     DefaultMaxCapacity,
		userLimitFactor: DefaultUserLimitFactor,
		running:         true,
	}
}

// Name returns the queue name, the last segment of the queue path.
func (q *Queue) Name() string {
	return q.name
}

// Capacity returns the guaranteed share, in percent of the parent.
func (q *Queue) Capacity() float64 {
	return q.capacity
}

// SetCapacity sets the guaranteed share, in percent of the parent.
func (q *Queue) SetCapacity(value float64) error {
	if !isPercentage(value) {
		return &common.RangeError{Field: "capacity", Value: value, Min: 0, Max: 100}
	}
	q.capacity = value
	return nil
}

// isPercentage returns false for NaN, infinities and values outside 0 to 100.
func isPercentage(value float64) bool {
	return !math.IsNaN(value) && value >= 0 && value <= 100
}

// MaxCapacity returns the ceiling share, in percent of the parent.
func (q *Queue) MaxCapacity() float64 {
	return q.maxCapacity
}

// SetMaxCapacity sets the ceiling share, in percent of the parent.
func (q *Queue) SetMaxCapacity(value float64) error {
	if !isPercentage(value) {
		return &common.RangeError{Field: "maximum-capacity", Value: value, Min: 0, Max: 100}
	}
	q.maxCapacity = value
	return nil
}

// UserLimitFactor returns the multiple of the queue capacity a single user may use.
func (q *Queue) UserLimitFactor() float64 {
	return q.userLimitFactor
}

// SetUserLimitFactor sets the multiple of the queue capacity a single user may use.
func (q *Queue) SetUserLimitFactor(value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return &common.RangeError{Field: "user-limit-factor", Value: value, Min: 0, Unbounded: true}
	}
	q.userLimitFactor = value
	return nil
}

// IsRunning returns false for a stopped queue that does not accept submissions.
func (q *Queue) IsRunning() bool {
	return q.running
}

// SetRunning changes the queue state, a stopped queue keeps running applications.
func (q *Queue) SetRunning(running bool) {
	q.running = running
}

// Admins returns a copy of the administer ACL.
func (q *Queue) Admins() security.ACL {
	return q.admins.Clone()
}

// SetAdmins replaces the administer ACL with a copy.
func (q *Queue) SetAdmins(acl security.ACL) {
	q.admins = acl.Clone()
}

// Users returns a copy of the submit ACL.
func (q *Queue) Users() security.ACL {
	return q.users.Clone()
}

// SetUsers replaces the submit ACL with a copy.
func (q *Queue) SetUsers(acl security.ACL) {
	q.users = acl.Clone()
}

// AdminACLString returns the administer ACL as stored in the configuration.
func (q *Queue) AdminACLString() string {
	return q.admins.Render(!q.IsLeaf())
}

// SubmitACLString returns the submit ACL as stored in the configuration.
func (q *Queue) SubmitACLString() string {
	return q.users.Render(!q.IsLeaf())
}

// IsLeaf returns true for a queue without children.
func (q *Queue) IsLeaf() bool {
	return len(q.children) == 0
}

// Children returns the child queues in configuration order.
func (q *Queue) Children() []*Queue {
	children := make([]*Queue, len(q.children))
	copy(children, q.children)
	return children
}

// Child returns the direct child with the name or nil.
func (q *Queue) Child(name string) *Queue {
	for _, child := range q.children {
		if child.name == name {
			return child
		}
	}
	return nil
}

// AddChild appends a child queue, the name must be valid and unique among the children.
func (q *Queue) AddChild(child *Queue) error {
	if child == nil {
		return fmt.Errorf("cannot add nil queue to %s", q.name)
	}
	if !common.QueueNameRegExp.MatchString(child.name) {
		return fmt.Errorf("%w: %q", common.InvalidQueueName, child.name)
	}
	if q.Child(child.name) != nil {
		return fmt.Errorf("%w: %s.%s", common.ErrorQueueExists, q.name, child.name)
	}
	q.children = append(q.children, child)
	return nil
}

// RemoveChild removes a direct child, the removed queue is returned.
func (q *Queue) RemoveChild(name string) (*Queue, error) {
	for i, child := range q.children {
		if child.name == name {
			q.children = append(q.children[:i], q.children[i+1:]...)
			return child, nil
		}
	}
	return nil, fmt.Errorf("%w: %s.%s", common.ErrorUnknownQueue, q.name, name)
}

// Clone returns a deep copy of the queue and all its descendants.
func (q *Queue) Clone() *Queue {
	clone := *q
	clone.admins = q.admins.Clone()
	clone.users = q.users.Clone()
	clone.children = make([]*Queue, 0, len(q.children))
	for _, child := range q.children {
		clone.children = append(clone.children, child.Clone())
	}
	return &clone
}

var queueCompare = cmp.Options{cmp.AllowUnexported(Queue{}), cmpopts.EquateEmpty()}

// Equal compares two queue trees: names, ACLs, capacities, state and children in order.
func Equal(a, b *Queue) bool {
	return cmp.Equal(a, b, queueCompare)
}

// Diff returns a readable difference between two queue trees, empty if they are equal.
func Diff(a, b *Queue) string {
	return cmp.Diff(a, b, queueCompare)
}
