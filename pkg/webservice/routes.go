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
	"net/http"
)

type route struct {
	Name        string
	Method      string
	Pattern     string
	HandlerFunc http.HandlerFunc
}

type routes []route

var webRoutes = routes{
	route{
		"Queues",
		"GET",
		"/ws/v1/queues",
		getQueues,
	},
	route{
		"Queues",
		"GET",
		"/ws/v1/queues/:queue",
		getQueue,
	},
	route{
		"Check",
		"GET",
		"/ws/v1/check",
		getCheck,
	},
	route{
		"Config",
		"GET",
		"/ws/v1/config",
		getConfig,
	},
	route{
		"Mapping",
		"GET",
		"/ws/v1/mapping/:attribute",
		getMapping,
	},
	route{
		"Metrics",
		"GET",
		"/ws/v1/metrics",
		getMetrics,
	},
}
