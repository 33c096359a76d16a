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

package main

import (
	"log"
	"os"

	"github.com/apache/hadmin/pkg/capacity"
	"github.com/apache/hadmin/pkg/common/configs"
	"github.com/apache/hadmin/pkg/mapping"
)

/*
A utility command to load a capacity scheduler configuration file and check its validity
*/
func main() {
	if len(os.Args) < 2 || len(os.Args) > 3 {
		log.Println("Usage: " + os.Args[0] + " <capacity-scheduler-file> [version]")
		os.Exit(1)
	}
	version := mapping.V2
	if len(os.Args) == 3 {
		var err error
		if version, err = mapping.ParseVersion(os.Args[2]); err != nil {
			log.Println(err)
			os.Exit(1)
		}
	}
	fc, err := configs.LoadFile(os.Args[1])
	if err != nil {
		log.Println(err)
		os.Exit(2)
	}
	cs, err := capacity.FromFlatConfig(fc, version)
	if err != nil {
		log.Println(err)
		os.Exit(3)
	}
	failed := false
	for _, path := range cs.CheckCapacities() {
		log.Println(path + ": child capacities do not add up to 100")
		failed = true
	}
	for _, path := range cs.CheckMaximumCapacities() {
		log.Println(path + ": maximum capacity is below capacity")
		failed = true
	}
	if failed {
		os.Exit(4)
	}
}
