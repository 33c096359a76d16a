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

package rmadmin

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/apache/hadmin/pkg/common"
	"github.com/apache/hadmin/pkg/log"
)

// DefaultCommand asks the resource manager to re-read the capacity scheduler configuration.
const DefaultCommand = "yarn rmadmin -refreshQueues"

// DefaultTimeout bounds a single reload call.
const DefaultTimeout = 2 * time.Minute

// Reloader makes the resource manager pick up a changed queue configuration.
type Reloader interface {
	ReloadQueues(ctx context.Context) error
}

// CommandReloader runs an external command, by default the yarn admin client.
// A failed reload is reported to the caller and never retried.
type CommandReloader struct {
	command string
	args    []string
	timeout time.Duration
	// lookPath and run are replaced in tests
	lookPath func(file string) (string, error)
	run      func(ctx context.Context, path string, args []string) ([]byte, error)
}

// NewCommandReloader splits the command line on white space, an empty line uses DefaultCommand.
func NewCommandReloader(commandLine string, timeout time.Duration) *CommandReloader {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		fields = strings.Fields(DefaultCommand)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &CommandReloader{
		command:  fields[0],
		args:     fields[1:],
		timeout:  timeout,
		lookPath: exec.LookPath,
		run:      runCommand,
	}
}

func runCommand(ctx context.Context, path string, args []string) ([]byte, error) {
	return exec.CommandContext(ctx, path, args...).CombinedOutput()
}

// CommandLine returns the command as it will be executed.
func (r *CommandReloader) CommandLine() string {
	return strings.Join(append([]string{r.command}, r.args...), " ")
}

func (r *CommandReloader) ReloadQueues(ctx context.Context) error {
	path, err := r.lookPath(r.command)
	if err != nil {
		return fmt.Errorf("%w: command %s not found: %v", common.ErrorReloadFailed, r.command, err)
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	start := time.Now()
	output, err := r.run(ctx, path, r.args)
	if err != nil {
		log.Log(log.Reload).Error("queue reload failed",
			zap.String("command", r.CommandLine()),
			zap.ByteString("output", output),
			zap.Error(err))
		return fmt.Errorf("%w: %s: %v: %s", common.ErrorReloadFailed, r.CommandLine(), err, strings.TrimSpace(string(output)))
	}
	log.Log(log.Reload).Info("queues reloaded",
		zap.String("command", r.CommandLine()),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// NopReloader does not contact the resource manager, it only counts the calls.
type NopReloader struct {
	Calls int
	Err   error
}

func (r *NopReloader) ReloadQueues(_ context.Context) error {
	r.Calls++
	log.Log(log.Reload).Debug("queue reload skipped", zap.Int("calls", r.Calls))
	return r.Err
}
