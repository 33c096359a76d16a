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
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.uber.org/zap"

	"github.com/apache/hadmin/pkg/log"
)

const (
	CapacityConfigured = "configured"
	CapacityMaximum    = "maximum"
	CapacityAbsolute   = "absolute"

	ACLSubmit     = "submit"
	ACLAdminister = "administer"
)

// QueueMetrics exposes the configured values of every queue, labelled by the full queue path.
type QueueMetrics struct {
	capacity        *prometheus.GaugeVec
	userLimitFactor *prometheus.GaugeVec
	running         *prometheus.GaugeVec
	aclMembers      *prometheus.GaugeVec
}

func initQueueMetrics(registry prometheus.Registerer) *QueueMetrics {
	q := &QueueMetrics{}

	q.capacity = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "queue_capacity_percent",
			Help:      "Queue capacity in percent. Type of the capacity includes `configured`, `maximum` and `absolute`.",
		}, []string{"queue", "type"})

	q.userLimitFactor = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "queue_user_limit_factor",
			Help:      "Multiple of the queue capacity a single user can use.",
		}, []string{"queue"})

	q.running = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "queue_running",
			Help:      "Queue state, 1 when running and 0 when stopped.",
		}, []string{"queue"})

	q.aclMembers = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "queue_acl_members",
			Help:      "Number of users and groups listed in a queue ACL. ACL includes `submit` and `administer`, -1 means everybody.",
		}, []string{"queue", "acl"})

	var queueMetricsList = []prometheus.Collector{
		q.capacity,
		q.userLimitFactor,
		q.running,
		q.aclMembers,
	}

	for _, metric := range queueMetricsList {
		if err := registry.Register(metric); err != nil {
			log.Log(log.Metrics).Warn("failed to register metrics collector", zap.Error(err))
		}
	}
	return q
}

func (q *QueueMetrics) SetQueueCapacity(queue, capacityType string, value float64) {
	q.capacity.With(prometheus.Labels{"queue": queue, "type": capacityType}).Set(value)
}

func (q *QueueMetrics) GetQueueCapacity(queue, capacityType string) (float64, error) {
	return gaugeValue(q.capacity.With(prometheus.Labels{"queue": queue, "type": capacityType}))
}

func (q *QueueMetrics) SetQueueUserLimitFactor(queue string, value float64) {
	q.userLimitFactor.With(prometheus.Labels{"queue": queue}).Set(value)
}

func (q *QueueMetrics) GetQueueUserLimitFactor(queue string) (float64, error) {
	return gaugeValue(q.userLimitFactor.With(prometheus.Labels{"queue": queue}))
}

func (q *QueueMetrics) SetQueueRunning(queue string, running bool) {
	value := 0.0
	if running {
		value = 1.0
	}
	q.running.With(prometheus.Labels{"queue": queue}).Set(value)
}

func (q *QueueMetrics) GetQueueRunning(queue string) (bool, error) {
	value, err := gaugeValue(q.running.With(prometheus.Labels{"queue": queue}))
	return value == 1.0, err
}

func (q *QueueMetrics) SetQueueACLMembers(queue, acl string, value int) {
	q.aclMembers.With(prometheus.Labels{"queue": queue, "acl": acl}).Set(float64(value))
}

func (q *QueueMetrics) GetQueueACLMembers(queue, acl string) (int, error) {
	value, err := gaugeValue(q.aclMembers.With(prometheus.Labels{"queue": queue, "acl": acl}))
	return int(value), err
}

// Reset removes all queues, used before a new tree is exported so removed queues disappear.
func (q *QueueMetrics) Reset() {
	q.capacity.Reset()
	q.userLimitFactor.Reset()
	q.running.Reset()
	q.aclMembers.Reset()
}

func gaugeValue(gauge prometheus.Gauge) (float64, error) {
	metricDto := &dto.Metric{}
	if err := gauge.Write(metricDto); err != nil {
		return 0, err
	}
	return metricDto.Gauge.GetValue(), nil
}
