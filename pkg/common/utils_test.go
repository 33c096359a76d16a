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
	"errors"
	"os"
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

const (
	testKey = "testKey"
)

func TestQueueFQN(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"", "root"},
		{"root", "root"},
		{"dev", "root.dev"},
		{"root.dev", "root.dev"},
		{" .dev.team. ", "root.dev.team"},
		{"rootless", "root.rootless"},
	}
	for _, test := range tests {
		got := QueueFQN(test.name)
		assert.Equal(t, got, test.want, "unexpected fully qualified name for %q", test.name)
	}
}

func TestQueueParent(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"root", ""},
		{"", ""},
		{"dev", "root"},
		{"root.dev.team", "root.dev"},
	}
	for _, test := range tests {
		got := QueueParent(test.name)
		assert.Equal(t, got, test.want, "unexpected parent for %q", test.name)
	}
}

func TestQueuePathParts(t *testing.T) {
	assert.Equal(t, QueueLeafName("root.dev.team"), "team")
	assert.Equal(t, QueueLeafName("root"), "root")
	assert.Equal(t, QueueRelativePath("root.dev.team"), "dev.team")
	assert.Equal(t, QueueRelativePath("root"), "")
	assert.Equal(t, QueueDepth("root"), 1)
	assert.Equal(t, QueueDepth("root.dev.team"), 3)
	assert.Equal(t, JoinQueuePath("", "dev"), "dev")
	assert.Equal(t, JoinQueuePath("root", "dev"), "root.dev")
}

func TestCheckQueuePath(t *testing.T) {
	assert.NilError(t, CheckQueuePath("root.dev_1.team-a"))
	err := CheckQueuePath("root.dev team")
	assert.Assert(t, errors.Is(err, InvalidQueueName), "expected invalid queue name, got %v", err)
	err = CheckQueuePath("root..dev")
	assert.Assert(t, errors.Is(err, InvalidQueueName), "expected invalid queue name for empty segment, got %v", err)
}

func TestSplitCSV(t *testing.T) {
	assert.DeepEqual(t, SplitCSV(""), []string{})
	assert.DeepEqual(t, SplitCSV(" "), []string{})
	assert.DeepEqual(t, SplitCSV("a, b,,c "), []string{"a", "b", "c"})
}

func TestSortedUnique(t *testing.T) {
	assert.DeepEqual(t, SortedUnique([]string{"c", "a", "c", "b"}), []string{"a", "b", "c"})
	assert.DeepEqual(t, SortedUnique(nil), []string{})
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{100, "100.0"},
		{0, "0.0"},
		{25.5, "25.5"},
		{1.0 / 3.0, "0.3333333333333333"},
		{2, "2.0"},
	}
	for _, test := range tests {
		assert.Equal(t, FormatFloat(test.value), test.want)
	}
}

func TestParseFloat(t *testing.T) {
	value, err := ParseFloat(" 42.5 ")
	assert.NilError(t, err)
	assert.Equal(t, value, 42.5)
	_, err = ParseFloat("abc")
	assert.Assert(t, err != nil, "expected parse failure")
}

func TestWaitFor(t *testing.T) {
	calls := 0
	err := WaitFor(time.Millisecond, time.Second, func() bool {
		calls++
		return calls == 3
	})
	assert.NilError(t, err)
	assert.Equal(t, calls, 3)
	err = WaitFor(time.Millisecond, 10*time.Millisecond, func() bool { return false })
	assert.ErrorContains(t, err, "timeout")
}

func TestGetNewUUID(t *testing.T) {
	first := GetNewUUID()
	second := GetNewUUID()
	assert.Equal(t, len(first), 36)
	assert.Assert(t, first != second, "uuids should differ")
}

func TestGetBoolEnvVar(t *testing.T) {
	testCases := []struct {
		name     string
		value    string
		set      bool
		def      bool
		expected bool
	}{
		{"unset default true", "", false, true, true},
		{"unset default false", "", false, false, false},
		{"set true", "true", true, false, true},
		{"set false", "false", true, true, false},
		{"invalid uses default", "nope", true, true, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			os.Unsetenv(testKey)
			if tc.set {
				t.Setenv(testKey, tc.value)
			}
			assert.Equal(t, GetBoolEnvVar(testKey, tc.def), tc.expected)
		})
	}
}

func TestRangeError(t *testing.T) {
	err := error(&RangeError{Field: "capacity", Value: 120, Min: 0, Max: 100})
	assert.Assert(t, errors.Is(err, ErrorRange))
	assert.Equal(t, err.Error(), "capacity must be between 0 and 100, got 120")
	err = &RangeError{Field: "user-limit-factor", Value: -1, Min: 0, Unbounded: true}
	assert.Equal(t, err.Error(), "user-limit-factor must be at least 0, got -1")
}
