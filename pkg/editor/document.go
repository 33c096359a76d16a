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

package editor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/apache/hadmin/pkg/capacity"
	"github.com/apache/hadmin/pkg/common"
	"github.com/apache/hadmin/pkg/common/configs"
	"github.com/apache/hadmin/pkg/common/security"
	"github.com/apache/hadmin/pkg/mapping"
)

// QueueEntry is the editable description of one queue. Users and admins are sorted comma separated
// lists. Numbers are not range checked until the document is turned into a queue tree.
type QueueEntry struct {
	Users           string  `yaml:"users"`
	Admins          string  `yaml:"admins"`
	Capacity        float64 `yaml:"capacity"`
	MaxCapacity     float64 `yaml:"max-capacity"`
	MaxTasksPerUser int     `yaml:"max-tpu"`
	UserLimitFactor float64 `yaml:"user-limit-factor"`
	State           string  `yaml:"state,omitempty"`
}

// Document maps queue names, relative to the root queue, to their entries. The root queue itself
// is optional and uses the name "root".
type Document map[string]*QueueEntry

// docKey normalises a queue name to the key used in the document
func docKey(name string) string {
	fqn := common.QueueFQN(name)
	if fqn == common.RootQueue {
		return common.RootQueue
	}
	return common.QueueRelativePath(fqn)
}

// ParseDocument reads a YAML document, queue names are normalised.
func ParseDocument(content []byte) (Document, error) {
	raw := make(map[string]*QueueEntry)
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true) // Enable strict unmarshaling behavior
	if err := decoder.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	doc := make(Document, len(raw))
	for name, entry := range raw {
		if entry == nil {
			entry = &QueueEntry{}
		}
		key := docKey(name)
		if _, ok := doc[key]; ok {
			return nil, fmt.Errorf("%w: %s listed twice", common.ErrorQueueExists, key)
		}
		doc[key] = entry
	}
	return doc, nil
}

// LoadDocument reads the document from a file.
func LoadDocument(path string) (Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := ParseDocument(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Marshal returns the YAML form of the document, queues in name order.
func (d Document) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(map[string]*QueueEntry(d)); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the document to the file, replacing it atomically.
func (d Document) Save(path string) error {
	content, err := d.Marshal()
	if err != nil {
		return err
	}
	return configs.WriteFileAtomic(path, content, 0o644)
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	clone := make(Document, len(d))
	for name, entry := range d {
		copied := *entry
		clone[name] = &copied
	}
	return clone
}

// Names returns the sorted queue names of the document.
func (d Document) Names() []string {
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ToScheduler builds the queue tree described by the document. Parents are inferred from the dotted
// names and must be listed, the root queue is always present.
func (d Document) ToScheduler(version mapping.Version) (*capacity.CapacityScheduler, error) {
	cs := capacity.NewCapacityScheduler(version)
	names := d.Names()
	// parents before children
	sort.SliceStable(names, func(i, j int) bool {
		return common.QueueDepth(names[i]) < common.QueueDepth(names[j])
	})
	for _, name := range names {
		fqn := common.QueueFQN(name)
		queue := cs.Root()
		if fqn != common.RootQueue {
			queue = capacity.NewQueue(common.QueueLeafName(fqn))
		}
		if err := d[name].apply(queue); err != nil {
			return nil, fmt.Errorf("queue %s: %w", fqn, err)
		}
		if fqn == common.RootQueue {
			continue
		}
		if err := cs.AddQueue(common.QueueParent(fqn), queue); err != nil {
			return nil, fmt.Errorf("queue %s: %w", fqn, err)
		}
	}
	return cs, nil
}

func (e *QueueEntry) apply(queue *capacity.Queue) error {
	if err := queue.SetCapacity(e.Capacity); err != nil {
		return err
	}
	if err := queue.SetMaxCapacity(e.MaxCapacity); err != nil {
		return err
	}
	if err := queue.SetUserLimitFactor(e.UserLimitFactor); err != nil {
		return err
	}
	if e.State != "" {
		running, err := mapping.ParseState(e.State)
		if err != nil {
			return err
		}
		queue.SetRunning(running)
	}
	queue.SetUsers(security.NewUserACL(common.SplitCSV(e.Users)...))
	queue.SetAdmins(security.NewUserACL(common.SplitCSV(e.Admins)...))
	return nil
}

// ToFlatConfig renders the document in the key namespace of the version. The maximum tasks per user
// are only written for versions that define the key.
func (d Document) ToFlatConfig(version mapping.Version) (*configs.FlatConfig, error) {
	cs, err := d.ToScheduler(version)
	if err != nil {
		return nil, err
	}
	fc := cs.ToFlatConfig()
	if err = d.addTasksPerUser(fc, version); err != nil {
		return nil, err
	}
	return fc, nil
}

func (d Document) addTasksPerUser(fc *configs.FlatConfig, version mapping.Version) error {
	if !mapping.Supports(mapping.MaxTasksPerUser, version, mapping.OwnerQueues) {
		return nil
	}
	for name, entry := range d {
		if common.QueueFQN(name) == common.RootQueue {
			continue
		}
		key, err := mapping.ResolveQueueKey(mapping.MaxTasksPerUser, version, name)
		if err != nil {
			return err
		}
		fc.Set(key, entry.MaxTasksPerUser)
	}
	return nil
}

// HasRoot returns true if the document has an entry for the root queue.
func (d Document) HasRoot() bool {
	for name := range d {
		if common.QueueFQN(name) == common.RootQueue {
			return true
		}
	}
	return false
}

// UpdateConfig renders the document over an existing scheduler configuration: keys of queues no
// longer in the document are removed, keys not owned by a queue are kept. Without a root entry the
// root queue keeps the attributes stored in the base configuration.
func (d Document) UpdateConfig(base *configs.FlatConfig, version mapping.Version) (*configs.FlatConfig, error) {
	cs, err := d.ToScheduler(version)
	if err != nil {
		return nil, err
	}
	if !d.HasRoot() {
		if err = cs.InheritRoot(base); err != nil {
			return nil, fmt.Errorf("root queue: %w", err)
		}
	}
	updated := cs.UpdateConfig(base)
	if err = d.addTasksPerUser(updated, version); err != nil {
		return nil, err
	}
	return updated, nil
}
