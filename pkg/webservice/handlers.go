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
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"github.com/apache/hadmin/pkg/capacity"
	"github.com/apache/hadmin/pkg/common"
	"github.com/apache/hadmin/pkg/common/configs"
	"github.com/apache/hadmin/pkg/log"
	"github.com/apache/hadmin/pkg/mapping"
	"github.com/apache/hadmin/pkg/metrics"
	"github.com/apache/hadmin/pkg/webservice/dao"
)

const (
	QueueParam     = "queue"
	AttributeParam = "attribute"
)

func writeHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Credentials", "true")
	w.Header().Set("Access-Control-Allow-Methods", "GET,HEAD,OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "X-Requested-With,Content-Type,Accept,Origin")
}

func loadConfig() (*configs.FlatConfig, mapping.Version, error) {
	lock.RLock()
	path, version := schedulerFile, schedulerVersion
	lock.RUnlock()
	fc, err := configs.LoadFile(path)
	return fc, version, err
}

func loadScheduler(w http.ResponseWriter) *capacity.CapacityScheduler {
	fc, version, err := loadConfig()
	if err != nil {
		buildJSONErrorResponse(w, err.Error(), http.StatusInternalServerError)
		return nil
	}
	cs, err := capacity.FromFlatConfig(fc, version)
	if err != nil {
		buildJSONErrorResponse(w, err.Error(), http.StatusInternalServerError)
		return nil
	}
	return cs
}

func writeJSON(w http.ResponseWriter, result interface{}) {
	writeHeaders(w)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		buildJSONErrorResponse(w, err.Error(), http.StatusInternalServerError)
	}
}

func getQueues(w http.ResponseWriter, r *http.Request) {
	cs := loadScheduler(w)
	if cs == nil {
		return
	}
	writeJSON(w, getQueueDAO(cs.Version(), common.RootQueue, cs.Root(), 100))
}

func getQueue(w http.ResponseWriter, r *http.Request) {
	vars := httprouter.ParamsFromContext(r.Context())
	if vars == nil {
		buildJSONErrorResponse(w, "missing queue", http.StatusBadRequest)
		return
	}
	path := common.QueueFQN(vars.ByName(QueueParam))
	if err := common.CheckQueuePath(path); err != nil {
		buildJSONErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	cs := loadScheduler(w)
	if cs == nil {
		return
	}
	queue := cs.GetQueue(path)
	if queue == nil {
		buildJSONErrorResponse(w, "queue not found: "+path, http.StatusNotFound)
		return
	}
	writeJSON(w, getQueueDAO(cs.Version(), path, queue, cs.AbsoluteCapacity(path)))
}

func getQueueDAO(version mapping.Version, path string, queue *capacity.Queue, abs float64) dao.QueueDAOInfo {
	info := dao.QueueDAOInfo{
		QueueName:        queue.Name(),
		QueuePath:        path,
		Capacity:         queue.Capacity(),
		MaxCapacity:      queue.MaxCapacity(),
		AbsoluteCapacity: abs,
		UserLimitFactor:  queue.UserLimitFactor(),
		State:            mapping.StateString(version, queue.IsRunning()),
		IsLeaf:           queue.IsLeaf(),
		SubmitACL:        queue.SubmitACLString(),
		AdminACL:         queue.AdminACLString(),
	}
	for _, child := range queue.Children() {
		info.Children = append(info.Children,
			getQueueDAO(version, common.JoinQueuePath(path, child.Name()), child, abs*child.Capacity()/100.0))
	}
	return info
}

func getCheck(w http.ResponseWriter, r *http.Request) {
	cs := loadScheduler(w)
	if cs == nil {
		return
	}
	result := dao.CheckDAOInfo{
		CapacityFailures:    cs.CheckCapacities(),
		MaxCapacityFailures: cs.CheckMaximumCapacities(),
	}
	result.Healthy = len(result.CapacityFailures) == 0 && len(result.MaxCapacityFailures) == 0
	writeJSON(w, result)
}

func getConfig(w http.ResponseWriter, r *http.Request) {
	fc, _, err := loadConfig()
	if err != nil {
		buildJSONErrorResponse(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=UTF-8")
	if err = fc.WriteXML(w); err != nil {
		log.Log(log.REST).Error("failed to write configuration", zap.Error(err))
	}
}

func getMapping(w http.ResponseWriter, r *http.Request) {
	vars := httprouter.ParamsFromContext(r.Context())
	attr := mapping.Attribute(vars.ByName(AttributeParam))
	if !mapping.IsKnownAttribute(attr) {
		buildJSONErrorResponse(w, "unknown attribute: "+string(attr), http.StatusBadRequest)
		return
	}
	lock.RLock()
	version := schedulerVersion
	lock.RUnlock()
	var err error
	if value := r.URL.Query().Get("version"); value != "" {
		if version, err = mapping.ParseVersion(value); err != nil {
			buildJSONErrorResponse(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	result := dao.MappingDAOInfo{Attribute: string(attr), Version: int(version)}
	if queue := r.URL.Query().Get(QueueParam); queue != "" {
		path := common.QueueFQN(queue)
		if err = common.CheckQueuePath(path); err != nil {
			buildJSONErrorResponse(w, err.Error(), http.StatusBadRequest)
			return
		}
		result.Queue = path
		result.Owner = mapping.OwnerQueues.String()
		result.Key, err = mapping.ResolveQueueKey(attr, version, common.QueueRelativePath(path))
	} else {
		var owners []mapping.Owner
		if value := r.URL.Query().Get("owner"); value != "" {
			var owner mapping.Owner
			if owner, err = mapping.ParseOwner(value); err != nil {
				buildJSONErrorResponse(w, err.Error(), http.StatusBadRequest)
				return
			}
			owners = append(owners, owner)
		} else {
			owners = mapping.Owners(attr, version)
			if len(owners) > 1 {
				owners = nil
			}
		}
		result.Key, err = mapping.Resolve(attr, version, owners...)
		if len(owners) == 1 {
			result.Owner = owners[0].String()
		}
	}
	if err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, common.ErrorUnsupportedAttribute) || errors.Is(err, common.ErrorInvalidOwner) {
			code = http.StatusNotFound
		}
		buildJSONErrorResponse(w, err.Error(), code)
		return
	}
	writeJSON(w, result)
}

func getMetrics(w http.ResponseWriter, r *http.Request) {
	cs := loadScheduler(w)
	if cs == nil {
		return
	}
	metrics.Update(cs)
	metrics.Handler().ServeHTTP(w, r)
}
