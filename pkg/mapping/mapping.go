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

package mapping

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/apache/hadmin/pkg/common"
	"github.com/apache/hadmin/pkg/log"
)

// Placeholder is replaced by the queue path in queue scoped key templates.
const Placeholder = "____"

// Version of the scheduler configuration key namespace.
type Version int

const (
	// V1 is the legacy job tracker namespace: mapred.queue.* and mapred.capacity-scheduler.*
	V1 Version = 1
	// V2 is the resource manager namespace: yarn.scheduler.capacity.*
	V2 Version = 2
)

func (v Version) String() string {
	return fmt.Sprintf("%d", int(v))
}

// ParseVersion accepts the version number, optionally prefixed with a "v", or the namespace name.
func ParseVersion(value string) (Version, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "v1", "mapred":
		return V1, nil
	case "2", "v2", "yarn":
		return V2, nil
	}
	return 0, fmt.Errorf("%w: %q", common.ErrorUnsupportedVersion, value)
}

// Owner defines where an attribute lives: in the scheduler wide namespace or repeated per queue.
type Owner int

const (
	OwnerScheduler Owner = iota
	OwnerQueues
)

func (o Owner) String() string {
	switch o {
	case OwnerScheduler:
		return "scheduler"
	case OwnerQueues:
		return "queues"
	}
	return fmt.Sprintf("Owner(%d)", int(o))
}

func ParseOwner(value string) (Owner, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "scheduler":
		return OwnerScheduler, nil
	case "queues", "queue":
		return OwnerQueues, nil
	}
	return 0, fmt.Errorf("%w: %q", common.ErrorInvalidOwner, value)
}

// Attribute is the abstract name of a scheduler setting.
type Attribute string

const (
	Admins           Attribute = "admins"
	Users            Attribute = "users"
	Capacity         Attribute = "capacity"
	MaxCapacity      Attribute = "max-capacity"
	UserLimitFactor  Attribute = "user-limit-factor"
	State            Attribute = "state"
	SubQueues        Attribute = "queues"
	MaxJobs          Attribute = "max-jobs"
	MaxTasksPerQueue Attribute = "max-tpq"
	MaxTasksPerUser  Attribute = "max-tpu"
)

type templates map[Owner]string

var keyTables map[Version]map[Attribute]templates

func init() {
	keyTables = map[Version]map[Attribute]templates{
		V1: {
			Admins:          {OwnerQueues: "mapred.queue.____.acl-administer-jobs"},
			Users:           {OwnerQueues: "mapred.queue.____.acl-submit-job"},
			Capacity:        {OwnerQueues: "mapred.capacity-scheduler.queue.____.capacity"},
			MaxCapacity:     {OwnerQueues: "mapred.capacity-scheduler.queue.____.maximum-capacity"},
			UserLimitFactor: {
				OwnerScheduler: "mapred.capacity-scheduler.default-user-limit-factor",
				OwnerQueues:    "mapred.capacity-scheduler.queue.____.user-limit-factor",
			},
			State:            {OwnerQueues: "mapred.queue.____.state"},
			SubQueues:        {OwnerScheduler: "mapred.queue.names"},
			MaxJobs:          {OwnerScheduler: "mapred.capacity-scheduler.maximum-system-jobs"},
			MaxTasksPerQueue: {OwnerScheduler: "mapred.capacity-scheduler.default-maximum-active-tasks-per-queue"},
			MaxTasksPerUser: {
				OwnerScheduler: "mapred.capacity-scheduler.default-maximum-active-tasks-per-user",
				OwnerQueues:    "mapred.capacity-scheduler.queue.____.maximum-initialized-active-tasks-per-user",
			},
		},
		V2: {
			Admins:      {OwnerQueues: "yarn.scheduler.capacity.root.____.acl_administer_queue"},
			Users:       {OwnerQueues: "yarn.scheduler.capacity.root.____.acl_submit_applications"},
			Capacity:    {OwnerQueues: "yarn.scheduler.capacity.root.____.capacity"},
			MaxCapacity: {OwnerQueues: "yarn.scheduler.capacity.root.____.maximum-capacity"},
			UserLimitFactor: {
				OwnerScheduler: "yarn.scheduler.capacity.root.default.user-limit-factor",
				OwnerQueues:    "yarn.scheduler.capacity.root.____.user-limit-factor",
			},
			State:     {OwnerQueues: "yarn.scheduler.capacity.root.____.state"},
			SubQueues: {OwnerQueues: "yarn.scheduler.capacity.root.____.queues"},
			MaxJobs:   {OwnerScheduler: "yarn.scheduler.capacity.maximum-applications"},
		},
	}
}

// SupportedVersions returns the known versions in ascending order.
func SupportedVersions() []Version {
	versions := make([]Version, 0, len(keyTables))
	for version := range keyTables {
		versions = append(versions, version)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions
}

// Attributes returns the attributes defined for the version in sorted order.
func Attributes(version Version) []Attribute {
	table := keyTables[version]
	attrs := make([]Attribute, 0, len(table))
	for attr := range table {
		attrs = append(attrs, attr)
	}
	sort.Slice(attrs, func(i, j int) bool { return attrs[i] < attrs[j] })
	return attrs
}

// Owners returns the owners that define the attribute for the version, scheduler first.
func Owners(attr Attribute, version Version) []Owner {
	owners := make([]Owner, 0, 2)
	for _, owner := range []Owner{OwnerScheduler, OwnerQueues} {
		if _, ok := keyTables[version][attr][owner]; ok {
			owners = append(owners, owner)
		}
	}
	return owners
}

// Supports returns true if the attribute is defined for the version and owner.
func Supports(attr Attribute, version Version, owner Owner) bool {
	_, ok := keyTables[version][attr][owner]
	return ok
}

// IsKnownAttribute returns true if any version defines the attribute.
func IsKnownAttribute(attr Attribute) bool {
	for _, table := range keyTables {
		if _, ok := table[attr]; ok {
			return true
		}
	}
	return false
}

// Resolve returns the key template of the attribute. The owner may be left out if the attribute has
// exactly one owner in the version. Queue scoped templates contain the Placeholder.
func Resolve(attr Attribute, version Version, owner ...Owner) (string, error) {
	table, ok := keyTables[version]
	if !ok {
		return "", fmt.Errorf("%w: %s", common.ErrorUnsupportedVersion, version)
	}
	tmpl, ok := table[attr]
	if !ok {
		return "", fmt.Errorf("%w: %s in version %s", common.ErrorUnsupportedAttribute, attr, version)
	}
	if len(owner) == 0 {
		if len(tmpl) > 1 {
			return "", fmt.Errorf("%w: %s in version %s", common.ErrorAmbiguousOwner, attr, version)
		}
		for _, key := range tmpl {
			return key, nil
		}
	}
	key, ok := tmpl[owner[0]]
	if !ok {
		log.Log(log.Mapping).Debug("attribute not defined for owner",
			zap.String("attribute", string(attr)),
			zap.Stringer("version", version),
			zap.Stringer("owner", owner[0]))
		return "", fmt.Errorf("%w: %s has no %s key in version %s", common.ErrorInvalidOwner, attr, owner[0], version)
	}
	return key, nil
}

// Substitute replaces the placeholder in the template with the queue path relative to the root queue.
// An empty path refers to the root queue: the placeholder is removed together with its separator.
func Substitute(template, queuePath string) string {
	if queuePath != "" {
		return strings.ReplaceAll(template, Placeholder, queuePath)
	}
	template = strings.ReplaceAll(template, common.DOT+Placeholder, "")
	return strings.ReplaceAll(template, Placeholder+common.DOT, "")
}

// ResolveQueueKey resolves the queue scoped key of the attribute for the queue path relative to
// the root queue.
func ResolveQueueKey(attr Attribute, version Version, queuePath string) (string, error) {
	key, err := Resolve(attr, version, OwnerQueues)
	if err != nil {
		return "", err
	}
	return Substitute(key, queuePath), nil
}

// StateString renders the running state in the format of the version.
func StateString(version Version, running bool) string {
	state := "RUNNING"
	if !running {
		state = "STOPPED"
	}
	if version == V1 {
		return strings.ToLower(state)
	}
	return state
}

// ParseState parses a running state in either format.
func ParseState(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "running":
		return true, nil
	case "stopped":
		return false, nil
	}
	return false, fmt.Errorf("unknown queue state %q", value)
}
