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
	"crypto/sha256"
	"fmt"
	"strconv"

	"github.com/google/btree"

	"github.com/apache/hadmin/pkg/common"
)

// entry is one configuration key with its value and final flag
type entry struct {
	key   string
	value string
	final bool
}

func (e *entry) Less(than btree.Item) bool {
	return e.key < than.(*entry).key
}

// FlatConfig is an ordered set of configuration keys. Iteration is always in key order.
// A FlatConfig is not safe for concurrent use.
type FlatConfig struct {
	entries *btree.BTree
}

func NewFlatConfig() *FlatConfig {
	return &FlatConfig{
		entries: btree.New(7),
	}
}

func (fc *FlatConfig) lookup(key string) *entry {
	item := fc.entries.Get(&entry{key: key})
	if item == nil {
		return nil
	}
	return item.(*entry) //nolint:errcheck
}

// Get returns the value of the key or an ErrorKeyNotFound.
func (fc *FlatConfig) Get(key string) (string, error) {
	e := fc.lookup(key)
	if e == nil {
		return "", fmt.Errorf("%w: %s", common.ErrorKeyNotFound, key)
	}
	return e.value, nil
}

// GetOrDefault returns the value of the key, or the default if the key is not set.
func (fc *FlatConfig) GetOrDefault(key, def string) string {
	if e := fc.lookup(key); e != nil {
		return e.value
	}
	return def
}

// IsFinal returns the final flag of the key or an ErrorKeyNotFound.
func (fc *FlatConfig) IsFinal(key string) (bool, error) {
	e := fc.lookup(key)
	if e == nil {
		return false, fmt.Errorf("%w: %s", common.ErrorKeyNotFound, key)
	}
	return e.final, nil
}

// Set creates or overwrites the key, the final flag is cleared.
func (fc *FlatConfig) Set(key string, value interface{}) {
	fc.SetFinal(key, value, false)
}

// SetFinal creates or overwrites the key with the given final flag.
func (fc *FlatConfig) SetFinal(key string, value interface{}, final bool) {
	fc.entries.ReplaceOrInsert(&entry{key: key, value: ValueString(value), final: final})
}

// Remove deletes the key, removing a key that is not set is a no-op.
func (fc *FlatConfig) Remove(key string) {
	fc.entries.Delete(&entry{key: key})
}

func (fc *FlatConfig) Contains(key string) bool {
	return fc.entries.Has(&entry{key: key})
}

func (fc *FlatConfig) Len() int {
	return fc.entries.Len()
}

// Keys returns all keys in sorted order.
func (fc *FlatConfig) Keys() []string {
	keys := make([]string, 0, fc.entries.Len())
	fc.entries.Ascend(func(item btree.Item) bool {
		keys = append(keys, item.(*entry).key) //nolint:errcheck
		return true
	})
	return keys
}

// Range calls f for each key in sorted order until f returns false.
func (fc *FlatConfig) Range(f func(key, value string, final bool) bool) {
	fc.entries.Ascend(func(item btree.Item) bool {
		e := item.(*entry) //nolint:errcheck
		return f(e.key, e.value, e.final)
	})
}

// Merge copies all keys from other into this config, the value and final flag of other win.
func (fc *FlatConfig) Merge(other *FlatConfig) {
	if other == nil {
		return
	}
	other.entries.Ascend(func(item btree.Item) bool {
		e := item.(*entry) //nolint:errcheck
		fc.entries.ReplaceOrInsert(&entry{key: e.key, value: e.value, final: e.final})
		return true
	})
}

// Clone returns a deep copy of the config.
func (fc *FlatConfig) Clone() *FlatConfig {
	clone := NewFlatConfig()
	clone.Merge(fc)
	return clone
}

// Equal compares keys, values and final flags.
func (fc *FlatConfig) Equal(other *FlatConfig) bool {
	if fc.Len() != other.Len() {
		return false
	}
	equal := true
	fc.entries.Ascend(func(item btree.Item) bool {
		e := item.(*entry) //nolint:errcheck
		o := other.lookup(e.key)
		equal = o != nil && o.value == e.value && o.final == e.final
		return equal
	})
	return equal
}

// Checksum returns the sha256 of the XML form of the config.
func (fc *FlatConfig) Checksum() string {
	return fmt.Sprintf("%X", sha256.Sum256(fc.MarshalXML()))
}

// ValueString converts a value into the string stored in the configuration.
func ValueString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float32:
		return common.FormatFloat(float64(v))
	case float64:
		return common.FormatFloat(v)
	case fmt.Stringer:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
