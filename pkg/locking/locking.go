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

package locking

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	godeadlock "github.com/sasha-s/go-deadlock"

	"github.com/apache/hadmin/pkg/common"
	"github.com/apache/hadmin/pkg/log"
)

const (
	EnvDeadlockDetectionEnabled = "HADMIN_DEADLOCK_DETECTION_ENABLED"
	EnvDeadlockTimeoutSeconds   = "HADMIN_DEADLOCK_TIMEOUT_SECONDS"
	EnvExitOnDeadlock           = "HADMIN_DEADLOCK_EXIT"
	EnvDisableLockOrder         = "HADMIN_DEADLOCK_DISABLE_ORDER"

	defaultTimeoutSeconds = 60
)

var (
	once             sync.Once
	trackingEnabled  atomic.Bool
	timeoutSeconds   atomic.Int32
	deadlockDetected atomic.Bool
	testingMode      atomic.Bool
	exitOnDeadlock   atomic.Bool
)

type errorBuf struct {
	data string
	sync.Mutex
}

func (b *errorBuf) Write(p []byte) (n int, err error) {
	b.Lock()
	defer b.Unlock()
	b.data += string(p)
	return len(p), nil
}

func (b *errorBuf) flush() string {
	b.Lock()
	defer b.Unlock()
	data := b.data
	b.data = ""
	return data
}

var logBuf = &errorBuf{}

func init() {
	once.Do(reInit)
}

func reInit() {
	enabled := common.GetBoolEnvVar(EnvDeadlockDetectionEnabled, false)
	trackingEnabled.Store(enabled)
	timeoutSec, err := strconv.ParseInt(os.Getenv(EnvDeadlockTimeoutSeconds), 10, 32)
	if err != nil || timeoutSec <= 0 {
		timeoutSec = defaultTimeoutSeconds
	}
	timeoutSeconds.Store(int32(timeoutSec))
	exitOnDeadlock.Store(common.GetBoolEnvVar(EnvExitOnDeadlock, false))
	disableOrder := common.GetBoolEnvVar(EnvDisableLockOrder, false)

	godeadlock.Opts.Disable = !enabled
	godeadlock.Opts.DeadlockTimeout = time.Duration(timeoutSec) * time.Second
	godeadlock.Opts.LogBuf = logBuf
	godeadlock.Opts.OnPotentialDeadlock = onPotentialDeadlock
	godeadlock.Opts.DisableLockOrderDetection = disableOrder

	if enabled {
		// printed directly so the banner shows regardless of the log level
		_, _ = fmt.Fprintf(os.Stderr, "=== Deadlock detection enabled (timeout: %d seconds, exit on deadlock: %t, locking order disabled: %t) ===\n", timeoutSec, exitOnDeadlock.Load(), disableOrder)
	}
}

func onPotentialDeadlock() {
	deadlockDetected.Store(true)
	log.Log(log.Locking).Error("POTENTIAL DEADLOCK: " + logBuf.flush())
	if exitOnDeadlock.Load() && !testingMode.Load() {
		os.Exit(1)
	}
}

func IsTrackingEnabled() bool {
	return trackingEnabled.Load()
}

func GetDeadlockTimeoutSeconds() int {
	return int(timeoutSeconds.Load())
}

func IsDeadlockDetected() bool {
	return deadlockDetected.Load()
}

// Mutex behaves as a sync.Mutex, with deadlock detection when tracking is enabled.
type Mutex struct {
	godeadlock.Mutex
}

// RWMutex behaves as a sync.RWMutex, with deadlock detection when tracking is enabled.
type RWMutex struct {
	godeadlock.RWMutex
}
