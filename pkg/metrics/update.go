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

package metrics

import (
	"time"

	"go.uber.org/zap"

	"github.com/apache/hadmin/pkg/capacity"
	"github.com/apache/hadmin/pkg/common/configs"
	"github.com/apache/hadmin/pkg/common/security"
	"github.com/apache/hadmin/pkg/log"
	"github.com/apache/hadmin/pkg/mapping"
)

// Update replaces all queue values with the values of the tree and reruns the sanity checks.
func Update(cs *capacity.CapacityScheduler) {
	queues := GetQueueMetrics()
	queues.Reset()
	count := 0
	cs.Walk(func(path string, queue *capacity.Queue) {
		count++
		queues.SetQueueCapacity(path, CapacityConfigured, queue.Capacity())
		queues.SetQueueCapacity(path, CapacityMaximum, queue.MaxCapacity())
		queues.SetQueueCapacity(path, CapacityAbsolute, cs.AbsoluteCapacity(path))
		queues.SetQueueUserLimitFactor(path, queue.UserLimitFactor())
		queues.SetQueueRunning(path, queue.IsRunning())
		queues.SetQueueACLMembers(path, ACLSubmit, aclSize(queue.Users()))
		queues.SetQueueACLMembers(path, ACLAdminister, aclSize(queue.Admins()))
	})

	config := GetConfigMetrics()
	config.SetQueueCount(count)
	config.SetCheckFailures(CheckCapacity, len(cs.CheckCapacities()))
	config.SetCheckFailures(CheckMaxCapacity, len(cs.CheckMaximumCapacities()))
	config.SetLastUpdate(time.Now())
	log.Log(log.Metrics).Debug("queue metrics updated", zap.Int("queues", count))
}

func aclSize(acl security.ACL) int {
	if acl.AllowAll() {
		return -1
	}
	return len(acl.Users()) + len(acl.Groups())
}

// Updater refreshes the metrics each time the watched scheduler configuration changes.
type Updater struct {
	version mapping.Version
}

func NewUpdater(version mapping.Version) *Updater {
	return &Updater{version: version}
}

func (u *Updater) DoReloadConfiguration(fc *configs.FlatConfig) error {
	cs, err := capacity.FromFlatConfig(fc, u.version)
	if err != nil {
		GetConfigMetrics().IncReload(ReloadFailure)
		return err
	}
	Update(cs)
	GetConfigMetrics().IncReload(ReloadSuccess)
	return nil
}
