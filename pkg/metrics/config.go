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

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.uber.org/zap"

	"github.com/apache/hadmin/pkg/log"
)

const (
	CheckCapacity    = "capacity"
	CheckMaxCapacity = "max_capacity"

	ReloadSuccess = "success"
	ReloadFailure = "failure"
)

// ConfigMetrics describes the configuration as a whole.
type ConfigMetrics struct {
	queues        prometheus.Gauge
	checkFailures *prometheus.GaugeVec
	reloads       *prometheus.CounterVec
	lastUpdate    prometheus.Gauge
}

func initConfigMetrics(registry prometheus.Registerer) *ConfigMetrics {
	c := &ConfigMetrics{}

	c.queues = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "queues",
			Help:      "Number of queues in the configuration including the root queue.",
		})

	c.checkFailures = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "check_failures",
			Help:      "Number of queues failing a sanity check. Check includes `capacity` and `max_capacity`.",
		}, []string{"check"})

	c.reloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "reloads_total",
			Help:      "Number of configuration reloads by result.",
		}, []string{"result"})

	c.lastUpdate = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_update_timestamp_seconds",
			Help:      "Time the metrics were last updated from a configuration.",
		})

	var configMetricsList = []prometheus.Collector{
		c.queues,
		c.checkFailures,
		c.reloads,
		c.lastUpdate,
	}

	for _, metric := range configMetricsList {
		if err := registry.Register(metric); err != nil {
			log.Log(log.Metrics).Warn("failed to register metrics collector", zap.Error(err))
		}
	}
	return c
}

func (c *ConfigMetrics) SetQueueCount(count int) {
	c.queues.Set(float64(count))
}

func (c *ConfigMetrics) GetQueueCount() (int, error) {
	value, err := gaugeValue(c.queues)
	return int(value), err
}

func (c *ConfigMetrics) SetCheckFailures(check string, count int) {
	c.checkFailures.With(prometheus.Labels{"check": check}).Set(float64(count))
}

func (c *ConfigMetrics) GetCheckFailures(check string) (int, error) {
	value, err := gaugeValue(c.checkFailures.With(prometheus.Labels{"check": check}))
	return int(value), err
}

func (c *ConfigMetrics) IncReload(result string) {
	c.reloads.With(prometheus.Labels{"result": result}).Inc()
}

func (c *ConfigMetrics) GetReloads(result string) (int, error) {
	metricDto := &dto.Metric{}
	if err := c.reloads.With(prometheus.Labels{"result": result}).Write(metricDto); err != nil {
		return 0, err
	}
	return int(metricDto.Counter.GetValue()), nil
}

func (c *ConfigMetrics) SetLastUpdate(t time.Time) {
	c.lastUpdate.Set(float64(t.Unix()))
}

func (c *ConfigMetrics) GetLastUpdate() (time.Time, error) {
	value, err := gaugeValue(c.lastUpdate)
	return time.Unix(int64(value), 0), err
}

func (c *ConfigMetrics) Reset() {
	c.queues.Set(0)
	c.checkFailures.Reset()
	c.lastUpdate.Set(0)
}
