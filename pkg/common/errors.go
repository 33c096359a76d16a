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

package common

import (
	"errors"
	"fmt"
)

var (
	// InvalidQueueName returned when queue name is invalid
	InvalidQueueName = errors.New("invalid queue name, max 64 characters consisting of alphanumeric characters and '-', '_' allowed")

	// ErrorKeyNotFound returned when a configuration key is not present in a flat configuration
	ErrorKeyNotFound = errors.New("configuration key not found")

	// ErrorUnsupportedVersion returned when a scheduler configuration format version is not known
	ErrorUnsupportedVersion = errors.New("unsupported configuration format version")
	// ErrorUnsupportedAttribute returned when an attribute is not defined for a format version
	ErrorUnsupportedAttribute = errors.New("attribute not supported by configuration format version")
	// ErrorAmbiguousOwner returned when an attribute has more than one owner and none was given
	ErrorAmbiguousOwner = errors.New("attribute has more than one owner, owner must be specified")
	// ErrorInvalidOwner returned when an attribute is not defined for the requested owner
	ErrorInvalidOwner = errors.New("attribute not defined for owner")

	// ErrorUnknownQueue returned when a queue path does not resolve to an existing queue
	ErrorUnknownQueue = errors.New("queue does not exist")
	// ErrorQueueExists returned when adding a queue that is already defined
	ErrorQueueExists = errors.New("queue already exists")
	// ErrorQueueNotEmpty returned when removing a queue that still has child queues
	ErrorQueueNotEmpty = errors.New("queue still has child queues")
	// ErrorRootQueue returned when an operation is not allowed on the root queue
	ErrorRootQueue = errors.New("operation not allowed on the root queue")

	// ErrorDuplicateMember returned when adding a user or admin that is already listed
	ErrorDuplicateMember = errors.New("member already listed")
	// ErrorLastMember returned when removing the only remaining user or admin
	ErrorLastMember = errors.New("cannot remove the last member")
	// ErrorMemberNotFound returned when removing a user or admin that is not listed
	ErrorMemberNotFound = errors.New("member not listed")
	// ErrorInvalidMember returned when a user or admin name does not pass the name check
	ErrorInvalidMember = errors.New("invalid user name")

	// ErrorRange returned when a capacity, maximum capacity or user limit factor is out of bounds
	ErrorRange = errors.New("value out of range")

	// ErrorGenerationIncomplete returned when queue generation cannot place every definition
	ErrorGenerationIncomplete = errors.New("queue generation did not place all definitions")

	// ErrorSessionClosed returned when an edit session is used after it was closed
	ErrorSessionClosed = errors.New("edit session is closed")

	// ErrorReloadFailed returned when the resource manager did not accept the queue refresh
	ErrorReloadFailed = errors.New("resource manager queue reload failed")
)

// RangeError describes a numeric value rejected by a typed setter.
type RangeError struct {
	Field string
	Value float64
	Min   float64
	// Max is ignored when Unbounded is set
	Max       float64
	Unbounded bool
}

func (e *RangeError) Error() string {
	if e.Unbounded {
		return fmt.Sprintf("%s must be at least %g, got %g", e.Field, e.Min, e.Value)
	}
	return fmt.Sprintf("%s must be between %g and %g, got %g", e.Field, e.Min, e.Max, e.Value)
}

func (e *RangeError) Unwrap() error {
	return ErrorRange
}
