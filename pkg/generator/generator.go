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

package generator

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/apache/hadmin/pkg/capacity"
	"github.com/apache/hadmin/pkg/common"
	"github.com/apache/hadmin/pkg/common/security"
	"github.com/apache/hadmin/pkg/log"
)

// MaxDepth is the deepest queue level generated, the root queue is level 1.
const MaxDepth = 100

// Generate builds a queue tree from the definitions. Queues are placed level by level so the total
// weight of all siblings is known when the capacity of a queue is computed: a queue with weight w
// among siblings with total weight W gets a capacity of w/W*100. The user limit of a definition is
// stored as a user limit factor relative to that capacity.
// A definition for the root queue itself is optional, only its ACLs, state and maximum are used.
func Generate(defs []Definition) (*capacity.Queue, error) {
	var errs error
	for _, def := range defs {
		errs = multierr.Append(errs, def.Validate())
	}
	if errs != nil {
		return nil, errs
	}

	root := capacity.NewQueue(common.RootQueue)
	placed := map[string]*capacity.Queue{common.RootQueue: root}
	unplaced := make(map[string]string)
	pending := make([]Definition, 0, len(defs))
	seen := make(map[string]bool)
	totals := make(map[string]float64)
	for _, def := range defs {
		switch {
		case seen[def.Name]:
			unplaced[def.Name] = "duplicate definition"
		case def.Name == common.RootQueue:
			seen[def.Name] = true
			if err := apply(root, def); err != nil {
				return nil, err
			}
		case common.QueueDepth(def.Name) > MaxDepth:
			seen[def.Name] = true
			unplaced[def.Name] = fmt.Sprintf("deeper than %d levels", MaxDepth)
		default:
			seen[def.Name] = true
			totals[common.QueueParent(def.Name)] += def.Capacity.Weight
			pending = append(pending, def)
		}
	}

	for level := 2; level <= MaxDepth && len(pending) > 0; level++ {
		remaining := pending[:0]
		for _, def := range pending {
			if common.QueueDepth(def.Name) != level {
				remaining = append(remaining, def)
				continue
			}
			parent := placed[common.QueueParent(def.Name)]
			if parent == nil {
				unplaced[def.Name] = "parent queue " + common.QueueParent(def.Name) + " not defined"
				continue
			}
			queue, err := newQueue(def, totals[common.QueueParent(def.Name)])
			if err != nil {
				return nil, err
			}
			if err = parent.AddChild(queue); err != nil {
				return nil, err
			}
			placed[def.Name] = queue
			log.Log(log.Generator).Debug("queue generated",
				zap.String("queue", def.Name),
				zap.Float64("capacity", queue.Capacity()),
				zap.Float64("userLimitFactor", queue.UserLimitFactor()))
		}
		pending = remaining
	}
	for _, def := range pending {
		unplaced[def.Name] = "not reached"
	}

	if len(unplaced) > 0 {
		names := make([]string, 0, len(unplaced))
		for name, reason := range unplaced {
			names = append(names, name+" ("+reason+")")
		}
		sort.Strings(names)
		return nil, fmt.Errorf("%w: %s", common.ErrorGenerationIncomplete, strings.Join(names, ", "))
	}
	return root, nil
}

func newQueue(def Definition, totalWeight float64) (*capacity.Queue, error) {
	queue := capacity.NewQueue(common.QueueLeafName(def.Name))
	capMin := def.Capacity.Weight / totalWeight * 100.0
	if err := queue.SetCapacity(capMin); err != nil {
		return nil, fmt.Errorf("queue %s: %w", def.Name, err)
	}
	if def.UserLimit != nil {
		if err := queue.SetUserLimitFactor(*def.UserLimit / capMin); err != nil {
			return nil, fmt.Errorf("queue %s: %w", def.Name, err)
		}
	}
	return queue, apply(queue, def)
}

// apply sets the values that do not depend on the siblings
func apply(queue *capacity.Queue, def Definition) error {
	if err := queue.SetMaxCapacity(def.Capacity.Max); err != nil {
		return fmt.Errorf("queue %s: %w", def.Name, err)
	}
	queue.SetRunning(def.Running)
	queue.SetUsers(security.NewUserACL(def.Users...))
	queue.SetAdmins(security.NewUserACL(def.Admins...))
	return nil
}

// DefinesRoot returns true if one of the definitions is for the root queue.
func DefinesRoot(defs []Definition) bool {
	for _, def := range defs {
		if def.Name == common.RootQueue {
			return true
		}
	}
	return false
}
