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

package webservice

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/apache/hadmin/pkg/common/configs"
	"github.com/apache/hadmin/pkg/mapping"
	"github.com/apache/hadmin/pkg/webservice/dao"
)

const unmarshalError = "Failed to unmarshal response from response body"

// root: default (40), dev (60, max 50) -> a (50), b (40)
func writeTestConfig(t *testing.T) string {
	fc := configs.NewFlatConfig()
	fc.Set("yarn.scheduler.capacity.root.queues", "default,dev")
	fc.Set("yarn.scheduler.capacity.root.default.capacity", "40.0")
	fc.Set("yarn.scheduler.capacity.root.default.state", "STOPPED")
	fc.Set("yarn.scheduler.capacity.root.default.acl_submit_applications", "alice,bob")
	fc.Set("yarn.scheduler.capacity.root.dev.capacity", "60.0")
	fc.Set("yarn.scheduler.capacity.root.dev.maximum-capacity", "50.0")
	fc.Set("yarn.scheduler.capacity.root.dev.queues", "a,b")
	fc.Set("yarn.scheduler.capacity.root.dev.a.capacity", "50.0")
	fc.Set("yarn.scheduler.capacity.root.dev.a.user-limit-factor", "2.0")
	fc.Set("yarn.scheduler.capacity.root.dev.b.capacity", "40.0")
	path := filepath.Join(t.TempDir(), configs.CapacitySchedulerFile)
	assert.NilError(t, configs.SaveFile(path, fc))
	return path
}

func serve(t *testing.T, target string) *httptest.ResponseRecorder {
	req, err := http.NewRequest("GET", target, nil)
	assert.NilError(t, err, "Create new http request failed.")
	rr := httptest.NewRecorder()
	newRouter().ServeHTTP(rr, req)
	return rr
}

func TestGetQueues(t *testing.T) {
	NewWebApp(":0", writeTestConfig(t), mapping.V2)
	rr := serve(t, "/ws/v1/queues")
	assert.Equal(t, rr.Code, http.StatusOK)
	assert.Equal(t, rr.Header().Get("Content-Type"), "application/json; charset=UTF-8")

	var root dao.QueueDAOInfo
	assert.NilError(t, json.Unmarshal(rr.Body.Bytes(), &root), unmarshalError)
	assert.Equal(t, root.QueuePath, "root")
	assert.Assert(t, !root.IsLeaf)
	assert.Equal(t, len(root.Children), 2)
	def := root.Children[0]
	assert.Equal(t, def.QueuePath, "root.default")
	assert.Equal(t, def.State, "STOPPED")
	assert.Equal(t, def.SubmitACL, "alice,bob")
	dev := root.Children[1]
	assert.Equal(t, dev.AbsoluteCapacity, 60.0)
	assert.Equal(t, dev.Children[0].QueuePath, "root.dev.a")
	assert.Equal(t, dev.Children[0].AbsoluteCapacity, 30.0)
	assert.Equal(t, dev.Children[0].UserLimitFactor, 2.0)
}

func TestGetQueue(t *testing.T) {
	NewWebApp(":0", writeTestConfig(t), mapping.V2)
	rr := serve(t, "/ws/v1/queues/dev.a")
	assert.Equal(t, rr.Code, http.StatusOK)
	var info dao.QueueDAOInfo
	assert.NilError(t, json.Unmarshal(rr.Body.Bytes(), &info), unmarshalError)
	assert.Equal(t, info.QueueName, "a")
	assert.Equal(t, info.QueuePath, "root.dev.a")
	assert.Equal(t, info.AbsoluteCapacity, 30.0)
	assert.Assert(t, info.IsLeaf)

	rr = serve(t, "/ws/v1/queues/root.dev.missing")
	assert.Equal(t, rr.Code, http.StatusNotFound)
	var apiErr dao.YAPIError
	assert.NilError(t, json.Unmarshal(rr.Body.Bytes(), &apiErr), unmarshalError)
	assert.Equal(t, apiErr.StatusCode, http.StatusNotFound)
	assert.Equal(t, apiErr.Message, "queue not found: root.dev.missing")

	rr = serve(t, "/ws/v1/queues/root.dev$")
	assert.Equal(t, rr.Code, http.StatusBadRequest)
}

func TestGetCheck(t *testing.T) {
	NewWebApp(":0", writeTestConfig(t), mapping.V2)
	rr := serve(t, "/ws/v1/check")
	assert.Equal(t, rr.Code, http.StatusOK)
	var check dao.CheckDAOInfo
	assert.NilError(t, json.Unmarshal(rr.Body.Bytes(), &check), unmarshalError)
	assert.Assert(t, !check.Healthy)
	assert.DeepEqual(t, check.CapacityFailures, []string{"root.dev"})
	assert.DeepEqual(t, check.MaxCapacityFailures, []string{"root.dev"})
}

func TestGetConfig(t *testing.T) {
	NewWebApp(":0", writeTestConfig(t), mapping.V2)
	rr := serve(t, "/ws/v1/config")
	assert.Equal(t, rr.Code, http.StatusOK)
	assert.Equal(t, rr.Header().Get("Content-Type"), "application/xml; charset=UTF-8")
	fc, err := configs.ParseXML(rr.Body)
	assert.NilError(t, err)
	value, err := fc.Get("yarn.scheduler.capacity.root.dev.queues")
	assert.NilError(t, err)
	assert.Equal(t, value, "a,b")
}

func TestMissingConfig(t *testing.T) {
	NewWebApp(":0", filepath.Join(t.TempDir(), "missing.xml"), mapping.V2)
	rr := serve(t, "/ws/v1/queues")
	assert.Equal(t, rr.Code, http.StatusInternalServerError)
	rr = serve(t, "/ws/v1/config")
	assert.Equal(t, rr.Code, http.StatusInternalServerError)
}

func TestGetMapping(t *testing.T) {
	NewWebApp(":0", writeTestConfig(t), mapping.V2)
	tests := []struct {
		name   string
		target string
		code   int
		key    string
		owner  string
	}{
		{"queue key", "/ws/v1/mapping/capacity?queue=root.dev.a", http.StatusOK, "yarn.scheduler.capacity.root.dev.a.capacity", "queues"},
		{"root queue key", "/ws/v1/mapping/queues?queue=root", http.StatusOK, "yarn.scheduler.capacity.root.queues", "queues"},
		{"single owner", "/ws/v1/mapping/max-jobs", http.StatusOK, "yarn.scheduler.capacity.maximum-applications", "scheduler"},
		{"explicit owner", "/ws/v1/mapping/user-limit-factor?owner=scheduler", http.StatusOK, "yarn.scheduler.capacity.root.default.user-limit-factor", "scheduler"},
		{"version 1", "/ws/v1/mapping/queues?version=1", http.StatusOK, "mapred.queue.names", "scheduler"},
		{"template", "/ws/v1/mapping/state", http.StatusOK, "yarn.scheduler.capacity.root.____.state", "queues"},
		{"ambiguous owner", "/ws/v1/mapping/user-limit-factor", http.StatusBadRequest, "", ""},
		{"unknown attribute", "/ws/v1/mapping/colour", http.StatusBadRequest, "", ""},
		{"unsupported version", "/ws/v1/mapping/capacity?version=3", http.StatusBadRequest, "", ""},
		{"unsupported attribute", "/ws/v1/mapping/max-tpu?version=2", http.StatusNotFound, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(t, tt.target)
			assert.Equal(t, rr.Code, tt.code, rr.Body.String())
			if tt.code != http.StatusOK {
				return
			}
			var info dao.MappingDAOInfo
			assert.NilError(t, json.Unmarshal(rr.Body.Bytes(), &info), unmarshalError)
			assert.Equal(t, info.Key, tt.key)
			assert.Equal(t, info.Owner, tt.owner)
		})
	}
}

func TestGetMetrics(t *testing.T) {
	NewWebApp(":0", writeTestConfig(t), mapping.V2)
	rr := serve(t, "/ws/v1/metrics")
	assert.Equal(t, rr.Code, http.StatusOK)
	assert.Assert(t, strings.Contains(rr.Body.String(), `hadmin_queue_capacity_percent{queue="root.dev.a",type="absolute"} 30`))
}

func TestStartStopWebApp(t *testing.T) {
	m := NewWebApp("127.0.0.1:0", writeTestConfig(t), mapping.V2)
	assert.NilError(t, m.StopWebApp(), "stop before start")
	m.StartWebApp()
	assert.NilError(t, m.StopWebApp(), "Error when closing webapp service.")
}
