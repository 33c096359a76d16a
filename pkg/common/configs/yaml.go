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
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

type yamlEntry struct {
	Value string `yaml:"value"`
	Final bool   `yaml:"final,omitempty"`
}

// ParseYAML reads the flat YAML form: a mapping of key to either a scalar value or a
// mapping with a value and a final flag.
func ParseYAML(r io.Reader) (*FlatConfig, error) {
	doc := yaml.Node{}
	fc := NewFlatConfig()
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		// empty content may have EOF error, skip it
		if errors.Is(err, io.EOF) {
			return fc, nil
		}
		return nil, fmt.Errorf("failed to parse configuration yaml: %w", err)
	}
	if len(doc.Content) == 0 {
		return fc, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("configuration yaml must be a mapping, line %d", root.Line)
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valueNode := root.Content[i], root.Content[i+1]
		switch valueNode.Kind {
		case yaml.ScalarNode:
			value := valueNode.Value
			if valueNode.ShortTag() == "!!null" {
				value = ""
			}
			fc.Set(keyNode.Value, value)
		case yaml.MappingNode:
			e := yamlEntry{}
			if err := valueNode.Decode(&e); err != nil {
				return nil, fmt.Errorf("key %s: %w", keyNode.Value, err)
			}
			fc.SetFinal(keyNode.Value, e.Value, e.Final)
		default:
			return nil, fmt.Errorf("key %s: value must be a scalar or a mapping, line %d", keyNode.Value, valueNode.Line)
		}
	}
	return fc, nil
}

// MarshalYAML returns the flat YAML form of the config, keys in sorted order.
func (fc *FlatConfig) MarshalYAML() ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	fc.Range(func(key, value string, final bool) bool {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: key}
		valueNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
		if final {
			valueNode = &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
				{Kind: yaml.ScalarNode, Value: "value"},
				{Kind: yaml.ScalarNode, Tag: "!!str", Value: value},
				{Kind: yaml.ScalarNode, Value: "final"},
				{Kind: yaml.ScalarNode, Tag: "!!bool", Value: "true"},
			}}
		}
		root.Content = append(root.Content, keyNode, valueNode)
		return true
	})
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
