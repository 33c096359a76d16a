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

package common

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/apache/hadmin/pkg/log"
)

const (
	RootQueue = "root"
	// DOT separates the parts of a queue path
	DOT = "."
)

// A queue name is one segment of a queue path.
var QueueNameRegExp = regexp.MustCompile("^[a-zA-Z0-9_-]{1,64}$")

// QueueFQN returns the fully qualified path of a queue: the path always starts with the root queue.
// An empty name is the root queue.
func QueueFQN(name string) string {
	name = strings.Trim(strings.TrimSpace(name), DOT)
	if name == "" || name == RootQueue {
		return RootQueue
	}
	if strings.HasPrefix(name, RootQueue+DOT) {
		return name
	}
	return RootQueue + DOT + name
}

// QueueParent returns the fully qualified path of the parent of a queue.
// The parent of the root queue is the empty string.
func QueueParent(name string) string {
	fqn := QueueFQN(name)
	idx := strings.LastIndex(fqn, DOT)
	if idx < 0 {
		return ""
	}
	return fqn[:idx]
}

// QueueLeafName returns the last segment of a queue path.
func QueueLeafName(name string) string {
	fqn := QueueFQN(name)
	return fqn[strings.LastIndex(fqn, DOT)+1:]
}

// QueueRelativePath returns the path of a queue below the root queue: "root.a.b" becomes "a.b" and
// the root queue itself becomes the empty string.
func QueueRelativePath(name string) string {
	fqn := QueueFQN(name)
	if fqn == RootQueue {
		return ""
	}
	return strings.TrimPrefix(fqn, RootQueue+DOT)
}

// QueueDepth returns the number of segments in the fully qualified path, the root queue has depth 1.
func QueueDepth(name string) int {
	return len(strings.Split(QueueFQN(name), DOT))
}

// JoinQueuePath appends a child segment to a queue path.
func JoinQueuePath(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + DOT + child
}

// CheckQueuePath checks every segment of the path against the queue name rules.
func CheckQueuePath(name string) error {
	for _, part := range strings.Split(QueueFQN(name), DOT) {
		if !QueueNameRegExp.MatchString(part) {
			return fmt.Errorf("%w: %q in %s", InvalidQueueName, part, name)
		}
	}
	return nil
}

// SplitCSV splits a comma separated list, trimming white space and dropping empty entries.
func SplitCSV(list string) []string {
	result := make([]string, 0)
	for _, part := range strings.Split(list, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

// SortedUnique returns a sorted copy of the list with duplicates removed.
func SortedUnique(list []string) []string {
	seen := make(map[string]bool, len(list))
	result := make([]string, 0, len(list))
	for _, item := range list {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}
	sort.Strings(result)
	return result
}

// FormatFloat renders a float the way the scheduler configuration expects: whole numbers keep a
// trailing ".0", all others use the shortest representation.
func FormatFloat(value float64) string {
	str := strconv.FormatFloat(value, 'f', -1, 64)
	if !strings.ContainsAny(str, ".eEnN") {
		str += ".0"
	}
	return str
}

// ParseFloat parses a numeric configuration value, white space is ignored.
func ParseFloat(value string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(value), 64)
}

func WaitFor(interval time.Duration, timeout time.Duration, condition func() bool) error {
	deadline := time.Now().Add(timeout)
	for {
		if time.Now().After(deadline) {
			return fmt.Errorf("timeout waiting for condition")
		}
		if condition() {
			return nil
		}
		time.Sleep(interval)
		continue
	}
}

// Generate a new uuid. The chance that we generate a collision is really small.
func GetNewUUID() string {
	return uuid.NewString()
}

func GetBoolEnvVar(key string, defaultVal bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			log.Log(log.Config).Debug("Failed to parse environment variable, using default value",
				zap.String("name", key),
				zap.String("value", value),
				zap.Bool("default", defaultVal))
			return defaultVal
		}
		return boolValue
	}
	return defaultVal
}
