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
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"github.com/apache/hadmin/pkg/locking"
	"github.com/apache/hadmin/pkg/log"
	"github.com/apache/hadmin/pkg/mapping"
	"github.com/apache/hadmin/pkg/webservice/dao"
)

var lock locking.RWMutex
var schedulerFile string
var schedulerVersion mapping.Version

type WebService struct {
	httpServer *http.Server
	address    string
}

func newRouter() *httprouter.Router {
	router := httprouter.New()
	for _, webRoute := range webRoutes {
		handler := loggingHandler(webRoute.HandlerFunc, webRoute.Name)
		router.Handler(webRoute.Method, webRoute.Pattern, handler)
	}
	return router
}

func loggingHandler(inner http.Handler, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		inner.ServeHTTP(w, r)
		log.Log(log.REST).Debug("web request",
			zap.String("method", r.Method),
			zap.String("uri", r.RequestURI),
			zap.String("name", name),
			zap.Duration("duration", time.Since(start)))
	}
}

func (m *WebService) StartWebApp() {
	router := newRouter()
	m.httpServer = &http.Server{Addr: m.address, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	log.Log(log.REST).Info("web-app started", zap.String("address", m.address))
	go func() {
		httpError := m.httpServer.ListenAndServe()
		if httpError != nil && httpError != http.ErrServerClosed {
			log.Log(log.REST).Error("HTTP serving error",
				zap.Error(httpError))
		}
	}()
}

// NewWebApp serves a read-only view of the capacity scheduler file, the file is read on every request.
func NewWebApp(address, path string, version mapping.Version) *WebService {
	lock.Lock()
	defer lock.Unlock()
	schedulerFile = path
	schedulerVersion = version
	return &WebService{address: address}
}

func (m *WebService) StopWebApp() error {
	if m.httpServer != nil {
		// graceful shutdown in 5 seconds
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return m.httpServer.Shutdown(ctx)
	}

	return nil
}

func buildJSONErrorResponse(w http.ResponseWriter, detail string, code int) {
	writeHeaders(w)
	w.WriteHeader(code)
	errorInfo := dao.NewYAPIError(nil, code, detail)
	if jsonErr := json.NewEncoder(w).Encode(errorInfo); jsonErr != nil {
		log.Log(log.REST).Error("failed to encode error response", zap.Error(jsonErr))
	}
}
