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

package configs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/apache/hadmin/pkg/locking"
	"github.com/apache/hadmin/pkg/log"
)

// ConfigLoader loads the watched file, replaceable in tests.
var ConfigLoader = LoadFile

// ConfigWatcher polls a configuration file and calls the reloader each time the content changes.
type ConfigWatcher struct {
	path     string
	reloader ConfigReloader
	interval time.Duration
	checksum string
	soloChan chan interface{}
	lock     *locking.Mutex
	failLog  *log.RateLimitedLogger
}

// interface for the actual reload function
type ConfigReloader interface {
	DoReloadConfiguration(fc *FlatConfig) error
}

func CreateConfigWatcher(path string, interval time.Duration) *ConfigWatcher {
	return &ConfigWatcher{
		path:     path,
		interval: interval,
		soloChan: make(chan interface{}, 1),
		lock:     &locking.Mutex{},
		failLog:  log.RateLimitedLog(log.Config, time.Minute),
	}
}

func (cw *ConfigWatcher) RegisterCallback(reloader ConfigReloader) {
	cw.lock.Lock()
	defer cw.lock.Unlock()
	cw.reloader = reloader
}

// returns true if config file state remains same,
// returns false if config file state changed or could not be read
func (cw *ConfigWatcher) runOnce() bool {
	cw.lock.Lock()
	defer cw.lock.Unlock()

	newConfig, err := ConfigLoader(cw.path)
	if err != nil {
		cw.failLog.Warn("failed to load configuration file, ignore reloading configuration",
			zap.String("path", cw.path),
			zap.Error(err))
		return false
	}
	checksum := newConfig.Checksum()
	if checksum == cw.checksum {
		log.Log(log.Config).Debug("configuration file unchanged")
		return true
	}
	log.Log(log.Config).Debug("configuration file changed",
		zap.String("path", cw.path),
		zap.String("checksum", checksum))
	if cw.reloader != nil {
		if err = cw.reloader.DoReloadConfiguration(newConfig); err != nil {
			log.Log(log.Config).Warn("configuration reload failed",
				zap.String("path", cw.path),
				zap.Error(err))
			return false
		}
		log.Log(log.Config).Debug("configuration is successfully reloaded")
	}
	cw.checksum = checksum
	return false
}

// Run checks the file once and then on every interval until the context is done.
// If the watcher is already running this is a noop.
func (cw *ConfigWatcher) Run(ctx context.Context) {
	select {
	case cw.soloChan <- 0:
		cw.runOnce()
		go func() {
			ticker := time.NewTicker(cw.interval)
			defer func() {
				ticker.Stop()
				<-cw.soloChan
			}()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					cw.runOnce()
				}
			}
		}()
	default:
		log.Log(log.Config).Info("config watcher is already running")
	}
}
