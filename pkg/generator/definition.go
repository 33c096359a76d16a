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

package generator

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/apache/hadmin/pkg/common"
	"github.com/apache/hadmin/pkg/common/security"
	"github.com/apache/hadmin/pkg/log"
)

const (
	DefaultWeight = 1.0
	DefaultMax    = 100.0
)

// Definition is the declarative description of one queue. The queue name is not part of the
// document: it comes from the file name.
// - users and admins that get access to the queue
// - the running state, running if not set
// - the maximum capacity and the weight relative to the siblings of the queue
// - the absolute user limit in percent of the parent, converted to a user limit factor
type Definition struct {
	Name      string   `yaml:"-"`
	Users     []string `yaml:"users,omitempty"`
	Admins    []string `yaml:"admins,omitempty"`
	Running   bool     `yaml:"running"`
	Capacity  Capacity `yaml:"capacity"`
	UserLimit *float64 `yaml:"user_limit,omitempty"`
}

type Capacity struct {
	Max    float64 `yaml:"max"`
	Weight float64 `yaml:"weight"`
}

func (d *Definition) UnmarshalYAML(unmarshal func(interface{}) error) error {
	d.Running = true
	d.Capacity = Capacity{Max: DefaultMax, Weight: DefaultWeight}

	type plain Definition
	return unmarshal((*plain)(d))
}

func (c *Capacity) UnmarshalYAML(unmarshal func(interface{}) error) error {
	c.Max = DefaultMax
	c.Weight = DefaultWeight

	type plain Capacity
	return unmarshal((*plain)(c))
}

// ParseDefinition reads one definition document, unknown fields are rejected.
func ParseDefinition(name string, content []byte) (Definition, error) {
	def := Definition{}
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true) // Enable strict unmarshaling behavior
	if err := decoder.Decode(&def); err != nil {
		if !errors.Is(err, io.EOF) {
			return def, fmt.Errorf("queue definition %s: %w", name, err)
		}
		// empty content: a queue with all defaults
		def.Running = true
		def.Capacity = Capacity{Max: DefaultMax, Weight: DefaultWeight}
	}
	def.Name = common.QueueFQN(name)
	return def, nil
}

// LoadDir reads all definitions from the yml and yaml files in the directory in file name order.
// The file name without the extension is the queue name, "dev.product1.yml" defines root.dev.product1.
func LoadDir(dir string) ([]Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	defs := make([]Definition, 0, len(entries))
	var errs error
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yml" && ext != ".yaml") {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		def, err := ParseDefinition(strings.TrimSuffix(entry.Name(), ext), content)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		defs = append(defs, def)
	}
	if errs != nil {
		return nil, errs
	}
	log.Log(log.Generator).Info("queue definitions loaded",
		zap.String("directory", dir),
		zap.Int("definitions", len(defs)))
	return defs, nil
}

// Validate checks the values of the definition.
func (d Definition) Validate() error {
	var errs error
	if err := common.CheckQueuePath(d.Name); err != nil {
		errs = multierr.Append(errs, err)
	}
	for _, member := range append(append([]string{}, d.Users...), d.Admins...) {
		if !security.IsValidUserName(member) {
			errs = multierr.Append(errs, fmt.Errorf("queue %s: %w: %q", d.Name, common.ErrorInvalidMember, member))
		}
	}
	if !isFinite(d.Capacity.Weight) || d.Capacity.Weight <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("queue %s: weight must be larger than 0, got %g", d.Name, d.Capacity.Weight))
	}
	if !isFinite(d.Capacity.Max) || d.Capacity.Max < 0 || d.Capacity.Max > 100 {
		errs = multierr.Append(errs, fmt.Errorf("queue %s: %w", d.Name,
			&common.RangeError{Field: "max", Value: d.Capacity.Max, Min: 0, Max: 100}))
	}
	if d.UserLimit != nil && (!isFinite(*d.UserLimit) || *d.UserLimit < 0) {
		errs = multierr.Append(errs, fmt.Errorf("queue %s: %w", d.Name,
			&common.RangeError{Field: "user_limit", Value: *d.UserLimit, Min: 0, Unbounded: true}))
	}
	return errs
}

func isFinite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}
