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
	"io"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

const (
	// Namespace for all metrics inside hadmin
	Namespace = "hadmin"
)

var once sync.Once
var m *Metrics

// Metrics holds the collectors for the queue configuration, all registered on a private registry.
type Metrics struct {
	registry *prometheus.Registry
	queues   *QueueMetrics
	config   *ConfigMetrics
}

func init() {
	once.Do(func() {
		registry := prometheus.NewRegistry()
		m = &Metrics{
			registry: registry,
			queues:   initQueueMetrics(registry),
			config:   initConfigMetrics(registry),
		}
	})
}

func GetQueueMetrics() *QueueMetrics {
	return m.queues
}

func GetConfigMetrics() *ConfigMetrics {
	return m.config
}

// Registry returns the registry all hadmin collectors are registered on.
func Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteText writes all metric families in the text exposition format.
func WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return err
	}
	encoder := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, family := range families {
		if err = encoder.Encode(family); err != nil {
			return err
		}
	}
	return nil
}

// WriteToTextfile writes the metrics into a file for the node exporter textfile collector.
// The file is replaced atomically.
func WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// Reset clears all queue and check values, counters are kept.
func Reset() {
	m.queues.Reset()
	m.config.Reset()
}
