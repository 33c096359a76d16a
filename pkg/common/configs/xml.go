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
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/apache/hadmin/pkg/log"
)

type xmlConfiguration struct {
	XMLName    xml.Name      `xml:"configuration"`
	Properties []xmlProperty `xml:"property"`
}

type xmlProperty struct {
	Name  string `xml:"name"`
	Value string `xml:"value"`
	Final string `xml:"final,omitempty"`
}

// ParseXML reads a Hadoop site file: a configuration element with one property element per key.
// A property without a value is stored with an empty value.
func ParseXML(r io.Reader) (*FlatConfig, error) {
	doc := xmlConfiguration{}
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse configuration xml: %w", err)
	}
	fc := NewFlatConfig()
	for _, prop := range doc.Properties {
		name := strings.TrimSpace(prop.Name)
		if name == "" {
			log.Log(log.Config).Warn("skipping configuration property without a name",
				zap.String("value", prop.Value))
			continue
		}
		final := strings.EqualFold(strings.TrimSpace(prop.Final), "true")
		fc.SetFinal(name, prop.Value, final)
	}
	return fc, nil
}

// MarshalXML returns the config as a Hadoop site document, keys in sorted order.
// The final element is only written for final keys.
func (fc *FlatConfig) MarshalXML() []byte {
	var buf bytes.Buffer
	// writes to a bytes.Buffer do not fail
	_ = fc.WriteXML(&buf) //nolint:errcheck
	return buf.Bytes()
}

// WriteXML writes the XML form of the config.
func (fc *FlatConfig) WriteXML(w io.Writer) error {
	doc := xmlConfiguration{
		Properties: make([]xmlProperty, 0, fc.Len()),
	}
	fc.Range(func(key, value string, final bool) bool {
		prop := xmlProperty{Name: key, Value: value}
		if final {
			prop.Final = "true"
		}
		doc.Properties = append(doc.Properties, prop)
		return true
	})
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
