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
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/apache/hadmin/pkg/common"
	"github.com/apache/hadmin/pkg/log"
)

// LoadFile reads a flat configuration, the parser is picked from the file extension.
func LoadFile(path string) (*FlatConfig, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fc *FlatConfig
	switch format {
	case FormatYAML:
		fc, err = ParseYAML(bytes.NewReader(content))
	default:
		fc, err = ParseXML(bytes.NewReader(content))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Log(log.Config).Debug("configuration loaded",
		zap.String("path", path),
		zap.Int("keys", fc.Len()))
	return fc, nil
}

// SaveFile writes the config in the format matching the file extension.
func SaveFile(path string, fc *FlatConfig) error {
	format, err := FormatForPath(path)
	if err != nil {
		return err
	}
	var content []byte
	switch format {
	case FormatYAML:
		if content, err = fc.MarshalYAML(); err != nil {
			return err
		}
	default:
		content = fc.MarshalXML()
	}
	if err = WriteFileAtomic(path, content, 0o644); err != nil {
		return err
	}
	log.Log(log.Config).Info("configuration written",
		zap.String("path", path),
		zap.Int("keys", fc.Len()))
	return nil
}

// WriteFileAtomic writes the content to a temporary file in the target directory and renames it
// over the target. Readers never see a partially written file.
func WriteFileAtomic(path string, content []byte, perm os.FileMode) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp := filepath.Join(dir, "."+base+"."+common.GetNewUUID()+".tmp")
	if err := os.WriteFile(tmp, content, perm); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp) //nolint:errcheck
		return err
	}
	return nil
}
