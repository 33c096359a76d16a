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

package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/apache/hadmin/pkg/common"
	"github.com/apache/hadmin/pkg/common/configs"
	"github.com/apache/hadmin/pkg/rmadmin"
)

type testEnv struct {
	t            *testing.T
	dir          string
	settingsFile string
	reloader     *rmadmin.NopReloader
}

func newTestEnv(t *testing.T) *testEnv {
	dir := t.TempDir()
	settingsFile := filepath.Join(dir, "hadmin.yaml")
	content := "conf-dir: " + dir + "\nlog-level: error\n"
	assert.NilError(t, os.WriteFile(settingsFile, []byte(content), 0o600))
	return &testEnv{t: t, dir: dir, settingsFile: settingsFile, reloader: &rmadmin.NopReloader{}}
}

func (e *testEnv) run(args ...string) (string, error) {
	cmd := newRootCmd(&rootOptions{reloader: e.reloader})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", e.settingsFile}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (e *testEnv) schedulerPath() string {
	return filepath.Join(e.dir, configs.CapacitySchedulerFile)
}

func (e *testEnv) writeScheduler(values map[string]string) {
	fc := configs.NewFlatConfig()
	for key, value := range values {
		fc.Set(key, value)
	}
	assert.NilError(e.t, configs.SaveFile(e.schedulerPath(), fc))
}

func (e *testEnv) loadScheduler() *configs.FlatConfig {
	fc, err := configs.LoadFile(e.schedulerPath())
	assert.NilError(e.t, err)
	return fc
}

// root (hadoop): default (40, stopped, alice and bob), dev (60, max 50, carol) -> a (50), b (40)
var testScheduler = map[string]string{
	"yarn.scheduler.capacity.maximum-applications":                 "10000",
	"yarn.scheduler.capacity.root.queues":                          "default,dev",
	"yarn.scheduler.capacity.root.acl_submit_applications":         "hadoop",
	"yarn.scheduler.capacity.root.default.capacity":                "40.0",
	"yarn.scheduler.capacity.root.default.state":                   "STOPPED",
	"yarn.scheduler.capacity.root.default.acl_submit_applications": "alice,bob",
	"yarn.scheduler.capacity.root.dev.capacity":                    "60.0",
	"yarn.scheduler.capacity.root.dev.maximum-capacity":            "50.0",
	"yarn.scheduler.capacity.root.dev.acl_submit_applications":     "carol",
	"yarn.scheduler.capacity.root.dev.queues":                      "a,b",
	"yarn.scheduler.capacity.root.dev.a.capacity":                  "50.0",
	"yarn.scheduler.capacity.root.dev.a.user-limit-factor":         "2.0",
	"yarn.scheduler.capacity.root.dev.b.capacity":                  "40.0",
}

func TestQueueStat(t *testing.T) {
	e := newTestEnv(t)
	e.writeScheduler(testScheduler)

	out, err := e.run("queuestat", "--output", "csv")
	assert.NilError(t, err)
	assert.Assert(t, strings.HasPrefix(strings.ToLower(out), "queue,capacity,max capacity,absolute capacity,user limit factor,state,users,admins\n"), out)
	assert.Assert(t, strings.Contains(out, "root.dev.a,50.0,100.0,30.0,2.0,RUNNING,"), out)
	assert.Assert(t, strings.Contains(out, "root.default,40.0,100.0,40.0,1.0,STOPPED,"), out)

	out, err = e.run("queuestat", "dev", "--output", "csv", "--hide-header")
	assert.NilError(t, err)
	assert.Equal(t, strings.Count(out, "\n"), 3, out)
	assert.Assert(t, !strings.Contains(out, "root.default"), out)

	out, err = e.run("queuestat", "--output", "csv", "--user", "alice")
	assert.NilError(t, err)
	assert.Assert(t, strings.Contains(out, "root.default,"), out)
	assert.Assert(t, !strings.Contains(out, "root.dev"), out)

	out, err = e.run("queuestat", "--output", "csv", "--user", "erin", "--group", "analysts")
	assert.NilError(t, err)
	assert.Equal(t, strings.Count(out, "\n"), 1, "only the header: %s", out)

	_, err = e.run("queuestat", "missing")
	assert.Assert(t, errors.Is(err, common.ErrorUnknownQueue), "got %v", err)
	_, err = e.run("queuestat", "--output", "json")
	assert.ErrorContains(t, err, "invalid output format")
}

func TestCheck(t *testing.T) {
	e := newTestEnv(t)
	e.writeScheduler(testScheduler)
	out, err := e.run("sc")
	assert.Assert(t, errors.Is(err, errCheckFailed), "got %v", err)
	assert.Equal(t, out, "root.dev: child capacities do not add up to 100\nroot.dev: maximum capacity is below capacity\n")

	e.writeScheduler(map[string]string{
		"yarn.scheduler.capacity.root.queues":           "default",
		"yarn.scheduler.capacity.root.default.capacity": "100",
	})
	out, err = e.run("sc")
	assert.NilError(t, err)
	assert.Equal(t, out, "")

	_, err = newTestEnv(t).run("sc")
	assert.Assert(t, errors.Is(err, os.ErrNotExist), "missing scheduler file: %v", err)
}

func TestMappingCmd(t *testing.T) {
	e := newTestEnv(t)
	out, err := e.run("mapping", "capacity", "--queue", "dev.a")
	assert.NilError(t, err)
	assert.Equal(t, out, "yarn.scheduler.capacity.root.dev.a.capacity\n")

	out, err = e.run("mapping", "queues", "-V", "1")
	assert.NilError(t, err)
	assert.Equal(t, out, "mapred.queue.names\n")

	out, err = e.run("mapping", "user-limit-factor", "--owner", "scheduler")
	assert.NilError(t, err)
	assert.Equal(t, out, "yarn.scheduler.capacity.root.default.user-limit-factor\n")

	_, err = e.run("mapping", "user-limit-factor")
	assert.Assert(t, errors.Is(err, common.ErrorAmbiguousOwner), "got %v", err)
	_, err = e.run("mapping", "colour")
	assert.ErrorContains(t, err, "unknown attribute")

	out, err = e.run("mapping", "--output", "csv")
	assert.NilError(t, err)
	assert.Assert(t, strings.Contains(out, "capacity,queues,yarn.scheduler.capacity.root.____.capacity\n"), out)
	assert.Assert(t, strings.Contains(out, "user-limit-factor,scheduler,yarn.scheduler.capacity.root.default.user-limit-factor\n"), out)
}

func TestEditCommands(t *testing.T) {
	e := newTestEnv(t)
	steps := [][]string{
		{"queueadd", "dev", "alice"},
		{"queuecap", "dev", "100"},
		{"queuecap", "dev", "100", "--max"},
		{"useradd", "bob", "dev"},
		{"useradd", "carol", "dev", "--admin"},
		{"userdel", "alice", "dev"},
		{"queueulim", "dev", "2"},
		{"queuetpu", "dev", "25"},
		{"queueoff", "dev"},
	}
	for _, step := range steps {
		_, err := e.run(step...)
		assert.NilError(t, err, "step %v", step)
	}
	assert.Equal(t, e.reloader.Calls, 0)

	out, err := e.run("render", "-")
	assert.NilError(t, err)
	fc, err := configs.ParseXML(strings.NewReader(out))
	assert.NilError(t, err)
	assert.Equal(t, fc.GetOrDefault("yarn.scheduler.capacity.root.queues", ""), "dev")
	assert.Equal(t, fc.GetOrDefault("yarn.scheduler.capacity.root.dev.acl_submit_applications", ""), "bob")
	assert.Equal(t, fc.GetOrDefault("yarn.scheduler.capacity.root.dev.acl_administer_queue", ""), "alice,carol")
	assert.Equal(t, fc.GetOrDefault("yarn.scheduler.capacity.root.dev.user-limit-factor", ""), "2.0")
	assert.Equal(t, fc.GetOrDefault("yarn.scheduler.capacity.root.dev.state", ""), "STOPPED")

	_, err = e.run("queueon", "dev", "--apply")
	assert.NilError(t, err)
	assert.Equal(t, e.reloader.Calls, 1)
	fc = e.loadScheduler()
	assert.Equal(t, fc.GetOrDefault("yarn.scheduler.capacity.root.dev.state", ""), "RUNNING")

	_, err = e.run("userdel", "bob", "dev")
	assert.Assert(t, errors.Is(err, common.ErrorLastMember), "got %v", err)
	_, err = e.run("queuedel", "missing")
	assert.Assert(t, errors.Is(err, common.ErrorUnknownQueue), "got %v", err)
	_, err = e.run("queuecap", "dev", "lots")
	assert.Assert(t, err != nil)
	_, err = e.run("render", "-", "--apply")
	assert.Assert(t, errors.Is(err, errApplyWithOutput), "got %v", err)

	_, err = e.run("queuedel", "dev", "--apply")
	assert.NilError(t, err)
	assert.Equal(t, e.reloader.Calls, 2)
	fc = e.loadScheduler()
	assert.Assert(t, !fc.Contains("yarn.scheduler.capacity.root.dev.capacity"))
}

func TestRenderKeepsSchedulerKeys(t *testing.T) {
	e := newTestEnv(t)
	e.writeScheduler(testScheduler)
	_, err := e.run("queueadd", "ops", "dave")
	assert.NilError(t, err)
	_, err = e.run("queuecap", "ops", "100")
	assert.NilError(t, err)
	_, err = e.run("render")
	assert.NilError(t, err)
	assert.Equal(t, e.reloader.Calls, 0)

	fc := e.loadScheduler()
	assert.Equal(t, fc.GetOrDefault("yarn.scheduler.capacity.maximum-applications", ""), "10000")
	assert.Equal(t, fc.GetOrDefault("yarn.scheduler.capacity.root.queues", ""), "ops")
	assert.Assert(t, !fc.Contains("yarn.scheduler.capacity.root.dev.a.capacity"), "queues not in the document are removed")
	assert.Equal(t, fc.GetOrDefault("yarn.scheduler.capacity.root.acl_submit_applications", ""), "hadoop")
}

func TestUserAddPasswd(t *testing.T) {
	e := newTestEnv(t)
	passwd := filepath.Join(e.dir, "passwd")
	assert.NilError(t, os.WriteFile(passwd, []byte("root:x:0:0:root:/root:/bin/bash\nalice:x:1000:1000::/home/alice:/bin/bash\n"), 0o600))
	_, err := e.run("queueadd", "dev", "root")
	assert.NilError(t, err)
	_, err = e.run("useradd", "alice", "dev", "--passwd", passwd)
	assert.NilError(t, err)
	_, err = e.run("useradd", "mallory", "dev", "--passwd", passwd)
	assert.ErrorContains(t, err, "not listed")
}

func TestGenQueues(t *testing.T) {
	e := newTestEnv(t)
	defs := filepath.Join(e.dir, "queues.d")
	assert.NilError(t, os.Mkdir(defs, 0o755))
	assert.NilError(t, os.WriteFile(filepath.Join(defs, "dev.yml"), []byte("users: [alice]\ncapacity:\n  weight: 1\n"), 0o600))
	assert.NilError(t, os.WriteFile(filepath.Join(defs, "ops.yaml"), []byte("capacity:\n  weight: 3\n"), 0o600))
	assert.NilError(t, os.WriteFile(filepath.Join(defs, "README"), []byte("not a definition"), 0o600))

	out, err := e.run("genqueues", defs, "-")
	assert.NilError(t, err)
	fc, err := configs.ParseXML(strings.NewReader(out))
	assert.NilError(t, err)
	assert.Equal(t, fc.GetOrDefault("yarn.scheduler.capacity.root.queues", ""), "dev,ops")
	assert.Equal(t, fc.GetOrDefault("yarn.scheduler.capacity.root.dev.capacity", ""), "25.0")
	assert.Equal(t, fc.GetOrDefault("yarn.scheduler.capacity.root.ops.capacity", ""), "75.0")

	e.writeScheduler(testScheduler)
	_, err = e.run("genqueues", defs, "--apply")
	assert.NilError(t, err)
	assert.Equal(t, e.reloader.Calls, 1)
	fc = e.loadScheduler()
	assert.Equal(t, fc.GetOrDefault("yarn.scheduler.capacity.maximum-applications", ""), "10000")
	assert.Equal(t, fc.GetOrDefault("yarn.scheduler.capacity.root.queues", ""), "dev,ops")
	assert.Assert(t, !fc.Contains("yarn.scheduler.capacity.root.default.state"))
	assert.Equal(t, fc.GetOrDefault("yarn.scheduler.capacity.root.acl_submit_applications", ""), "hadoop",
		"root keeps its ACL without a root definition")

	output := filepath.Join(e.dir, "generated.yaml")
	_, err = e.run("genqueues", defs, output)
	assert.NilError(t, err)
	fc, err = configs.LoadFile(output)
	assert.NilError(t, err)
	assert.Equal(t, fc.GetOrDefault("yarn.scheduler.capacity.root.ops.capacity", ""), "75.0")
}

func TestMetricsCmd(t *testing.T) {
	e := newTestEnv(t)
	e.writeScheduler(testScheduler)
	out, err := e.run("metrics")
	assert.NilError(t, err)
	assert.Assert(t, strings.Contains(out, `hadmin_queue_capacity_percent{queue="root.dev",type="configured"} 60`), out)

	textfile := filepath.Join(e.dir, "hadmin.prom")
	_, err = e.run("metrics", "--textfile", textfile)
	assert.NilError(t, err)
	content, err := os.ReadFile(textfile)
	assert.NilError(t, err)
	assert.Assert(t, strings.Contains(string(content), `hadmin_check_failures{check="max_capacity"} 1`))
}

func TestReloadFailure(t *testing.T) {
	e := newTestEnv(t)
	e.reloader.Err = common.ErrorReloadFailed
	_, err := e.run("queueadd", "dev", "alice", "--apply")
	assert.Assert(t, errors.Is(err, common.ErrorReloadFailed), "got %v", err)
	// the document and the scheduler file are still written
	_, err = os.Stat(e.schedulerPath())
	assert.NilError(t, err)
	out, err := e.run("render", "-")
	assert.NilError(t, err)
	assert.Assert(t, strings.Contains(out, "yarn.scheduler.capacity.root.dev.capacity"))
}
