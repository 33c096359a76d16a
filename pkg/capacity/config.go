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
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/apache/hadmin/pkg/common"
	"github.com/apache/hadmin/pkg/common/configs"
	"github.com/apache/hadmin/pkg/common/security"
	"github.com/apache/hadmin/pkg/log"
	"github.com/apache/hadmin/pkg/mapping"
)

// the queue scoped attributes written for every queue in the tree
var queueAttributes = []mapping.Attribute{
	mapping.Admins,
	mapping.Users,
	mapping.Capacity,
	mapping.MaxCapacity,
	mapping.UserLimitFactor,
	mapping.State,
}

// mustQueueKey resolves a key from the static mapping tables, a failure is a programming error.
func mustQueueKey(attr mapping.Attribute, version mapping.Version, relPath string) string {
	key, err := mapping.ResolveQueueKey(attr, version, relPath)
	if err != nil {
		panic(err)
	}
	return key
}

// v1 keeps all queue paths in one scheduler wide key
func v1QueueNamesKey() string {
	key, err := mapping.Resolve(mapping.SubQueues, mapping.V1, mapping.OwnerScheduler)
	if err != nil {
		panic(err)
	}
	return key
}

// FromFlatConfig builds the queue tree from a flat configuration.
func FromFlatConfig(cfg *configs.FlatConfig, version mapping.Version) (*CapacityScheduler, error) {
	root, err := ReadQueue(cfg, version, common.RootQueue)
	if err != nil {
		return nil, err
	}
	return &CapacityScheduler{root: root, version: version}, nil
}

// ReadQueue builds the subtree starting at the queue path from a flat configuration.
// Missing keys take the queue defaults, a missing sub queue list makes the queue a leaf.
func ReadQueue(cfg *configs.FlatConfig, version mapping.Version, path string) (*Queue, error) {
	if len(mapping.Attributes(version)) == 0 {
		return nil, fmt.Errorf("%w: %s", common.ErrorUnsupportedVersion, version)
	}
	r := &reader{cfg: cfg, version: version}
	if version == mapping.V1 {
		r.v1Names = common.SplitCSV(cfg.GetOrDefault(v1QueueNamesKey(), ""))
	}
	return r.readQueue(common.QueueFQN(path), 1)
}

// InheritRoot reads the attributes of the root queue from the configuration and applies them to the
// root of the tree, the children of the root are not changed. Attributes missing from the
// configuration take the queue defaults. The v1 root has no keys and is left as is.
func (cs *CapacityScheduler) InheritRoot(cfg *configs.FlatConfig) error {
	if cs.version == mapping.V1 {
		return nil
	}
	root := NewQueue(common.RootQueue)
	root.children = cs.root.children
	r := &reader{cfg: cfg, version: cs.version}
	if err := r.readAttributes(root, ""); err != nil {
		return err
	}
	cs.root = root
	return nil
}

type reader struct {
	cfg     *configs.FlatConfig
	version mapping.Version
	v1Names []string
}

func (r *reader) childNames(fqn string) []string {
	if r.version == mapping.V1 {
		names := make([]string, 0)
		for _, name := range r.v1Names {
			if common.QueueParent(name) == fqn {
				names = append(names, common.QueueLeafName(name))
			}
		}
		return names
	}
	key := mustQueueKey(mapping.SubQueues, r.version, common.QueueRelativePath(fqn))
	return common.SplitCSV(r.cfg.GetOrDefault(key, ""))
}

func (r *reader) readQueue(fqn string, depth int) (*Queue, error) {
	if depth > MaxDepth {
		return nil, fmt.Errorf("queue tree deeper than %d levels at %s", MaxDepth, fqn)
	}
	queue := NewQueue(common.QueueLeafName(fqn))
	for _, name := range r.childNames(fqn) {
		child, err := r.readQueue(common.JoinQueuePath(fqn, name), depth+1)
		if err != nil {
			return nil, err
		}
		if err = queue.AddChild(child); err != nil {
			return nil, err
		}
	}
	// the v1 root queue is implicit and has no keys of its own
	if r.version == mapping.V1 && fqn == common.RootQueue {
		return queue, nil
	}
	if err := r.readAttributes(queue, common.QueueRelativePath(fqn)); err != nil {
		return nil, err
	}
	log.Log(log.Capacity).Debug("queue read from configuration",
		zap.String("queue", fqn),
		zap.Int("children", len(queue.children)))
	return queue, nil
}

func (r *reader) readAttributes(queue *Queue, relPath string) error {
	setters := []struct {
		attr mapping.Attribute
		set  func(float64) error
	}{
		{mapping.Capacity, queue.SetCapacity},
		{mapping.MaxCapacity, queue.SetMaxCapacity},
		{mapping.UserLimitFactor, queue.SetUserLimitFactor},
	}
	for _, setter := range setters {
		key := mustQueueKey(setter.attr, r.version, relPath)
		value, err := r.cfg.Get(key)
		if errors.Is(err, common.ErrorKeyNotFound) {
			continue
		}
		number, err := common.ParseFloat(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if err = setter.set(number); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	key := mustQueueKey(mapping.State, r.version, relPath)
	if value, err := r.cfg.Get(key); err == nil {
		running, err := mapping.ParseState(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		queue.running = running
	}
	var err error
	if queue.admins, err = r.readACL(mapping.Admins, relPath, queue.IsLeaf()); err != nil {
		return err
	}
	queue.users, err = r.readACL(mapping.Users, relPath, queue.IsLeaf())
	return err
}

func (r *reader) readACL(attr mapping.Attribute, relPath string, leaf bool) (security.ACL, error) {
	key := mustQueueKey(attr, r.version, relPath)
	acl, err := security.NewACL(r.cfg.GetOrDefault(key, ""))
	if err != nil {
		return acl, fmt.Errorf("%s: %w", key, err)
	}
	// an empty parent ACL is written as the wildcard
	if !leaf && acl.AllowAll() {
		return security.NewUserACL(), nil
	}
	return acl, nil
}

// ToFlatConfig writes every key of every queue in the tree, parents before children.
// The sub queue list is always written, also when it is empty.
func (cs *CapacityScheduler) ToFlatConfig() *configs.FlatConfig {
	fc := configs.NewFlatConfig()
	v1Names := make([]string, 0)
	cs.Walk(func(path string, queue *Queue) {
		relPath := common.QueueRelativePath(path)
		if cs.version == mapping.V1 {
			if path == common.RootQueue {
				return
			}
			v1Names = append(v1Names, relPath)
		} else {
			names := make([]string, 0, len(queue.children))
			for _, child := range queue.children {
				names = append(names, child.name)
			}
			fc.Set(mustQueueKey(mapping.SubQueues, cs.version, relPath), strings.Join(names, security.Separator))
		}
		writeQueue(fc, cs.version, relPath, queue)
	})
	if cs.version == mapping.V1 {
		fc.Set(v1QueueNamesKey(), strings.Join(v1Names, security.Separator))
	}
	return fc
}

func writeQueue(fc *configs.FlatConfig, version mapping.Version, relPath string, queue *Queue) {
	for _, attr := range queueAttributes {
		key := mustQueueKey(attr, version, relPath)
		switch attr {
		case mapping.Admins:
			fc.Set(key, queue.AdminACLString())
		case mapping.Users:
			fc.Set(key, queue.SubmitACLString())
		case mapping.Capacity:
			fc.Set(key, queue.capacity)
		case mapping.MaxCapacity:
			fc.Set(key, queue.maxCapacity)
		case mapping.UserLimitFactor:
			fc.Set(key, queue.userLimitFactor)
		case mapping.State:
			fc.Set(key, mapping.StateString(version, queue.running))
		}
	}
}

// QueuePaths returns the sorted paths of all queues defined in a flat configuration. Values are not
// checked, cycles and overly deep trees are cut off.
func QueuePaths(cfg *configs.FlatConfig, version mapping.Version) []string {
	paths := []string{common.RootQueue}
	if version == mapping.V1 {
		for _, name := range common.SplitCSV(cfg.GetOrDefault(v1QueueNamesKey(), "")) {
			paths = append(paths, common.QueueFQN(name))
		}
		return common.SortedUnique(paths)
	}
	if !mapping.Supports(mapping.SubQueues, version, mapping.OwnerQueues) {
		return paths
	}
	seen := map[string]bool{common.RootQueue: true}
	for i := 0; i < len(paths); i++ {
		if common.QueueDepth(paths[i]) >= MaxDepth {
			continue
		}
		key := mustQueueKey(mapping.SubQueues, version, common.QueueRelativePath(paths[i]))
		for _, name := range common.SplitCSV(cfg.GetOrDefault(key, "")) {
			child := common.JoinQueuePath(paths[i], name)
			if !seen[child] {
				seen[child] = true
				paths = append(paths, child)
			}
		}
	}
	sort.Strings(paths)
	return paths
}

// UpdateConfig returns a copy of the base configuration updated with the tree: the queue keys of
// queues no longer in the tree are removed, the keys of the tree are written. Keys that do not
// belong to a queue are kept.
func (cs *CapacityScheduler) UpdateConfig(base *configs.FlatConfig) *configs.FlatConfig {
	updated := base.Clone()
	for _, path := range QueuePaths(base, cs.version) {
		if cs.GetQueue(path) != nil {
			continue
		}
		relPath := common.QueueRelativePath(path)
		for _, attr := range mapping.Attributes(cs.version) {
			if !mapping.Supports(attr, cs.version, mapping.OwnerQueues) {
				continue
			}
			updated.Remove(mustQueueKey(attr, cs.version, relPath))
		}
		log.Log(log.Capacity).Debug("removed keys of deleted queue",
			zap.String("queue", path))
	}
	updated.Merge(cs.ToFlatConfig())
	return updated
}
