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

package dao

type QueueDAOInfo struct {
	QueueName        string         `json:"queuename"` // no omitempty, queue name should not be empty
	QueuePath        string         `json:"queuepath"`
	Capacity         float64        `json:"capacity"`
	MaxCapacity      float64        `json:"maxCapacity"`
	AbsoluteCapacity float64        `json:"absoluteCapacity"`
	UserLimitFactor  float64        `json:"userLimitFactor"`
	State            string         `json:"state"`
	IsLeaf           bool           `json:"isLeaf"` // no omitempty, a false value gives a quick way to understand whether it's leaf.
	SubmitACL        string         `json:"submitACL,omitempty"`
	AdminACL         string         `json:"adminACL,omitempty"`
	Children         []QueueDAOInfo `json:"children,omitempty"`
}

type CheckDAOInfo struct {
	Healthy             bool     `json:"healthy"` // no omitempty, a false value gives a quick way to understand the result.
	CapacityFailures    []string `json:"capacityFailures"`
	MaxCapacityFailures []string `json:"maxCapacityFailures"`
}

type MappingDAOInfo struct {
	Attribute string `json:"attribute"`
	Version   int    `json:"version"`
	Owner     string `json:"owner"`
	Key       string `json:"key"`
	Queue     string `json:"queue,omitempty"`
}
