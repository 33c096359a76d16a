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

package editor

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/apache/hadmin/pkg/common"
	"github.com/apache/hadmin/pkg/common/security"
	"github.com/apache/hadmin/pkg/log"
	"github.com/apache/hadmin/pkg/mapping"
)

// MemberList selects the member list of a queue entry.
type MemberList int

const (
	Users MemberList = iota
	Admins
)

func (ml MemberList) String() string {
	return [...]string{"users", "admins"}[ml]
}

func (ml MemberList) field(entry *QueueEntry) *string {
	if ml == Admins {
		return &entry.Admins
	}
	return &entry.Users
}

// Manager applies validated edits to a document. In a session only the edits fail once the session
// is closed, Queues and Entry keep reading the final document.
type Manager struct {
	doc   Document
	guard func() error
}

// NewManager edits the document in place.
func NewManager(doc Document) *Manager {
	if doc == nil {
		doc = make(Document)
	}
	return &Manager{doc: doc}
}

func (m *Manager) check() error {
	if m.guard == nil {
		return nil
	}
	return m.guard()
}

func (m *Manager) entry(queue string) (*QueueEntry, string, error) {
	if err := m.check(); err != nil {
		return nil, "", err
	}
	key := docKey(queue)
	entry, ok := m.doc[key]
	if !ok {
		return nil, key, fmt.Errorf("%w: %s", common.ErrorUnknownQueue, common.QueueFQN(queue))
	}
	return entry, key, nil
}

// Queues returns the sorted queue names of the document.
func (m *Manager) Queues() []string {
	return m.doc.Names()
}

// Entry returns a copy of the entry of the queue. It also works on a closed session.
func (m *Manager) Entry(queue string) (QueueEntry, bool) {
	entry, ok := m.doc[docKey(queue)]
	if !ok {
		return QueueEntry{}, false
	}
	return *entry, true
}

func (m *Manager) AddUser(user, queue string) error {
	return m.addMember(Users, user, queue)
}

func (m *Manager) AddAdmin(admin, queue string) error {
	return m.addMember(Admins, admin, queue)
}

func (m *Manager) DelUser(user, queue string) error {
	return m.delMember(Users, user, queue)
}

func (m *Manager) DelAdmin(admin, queue string) error {
	return m.delMember(Admins, admin, queue)
}

func (m *Manager) addMember(list MemberList, member, queue string) error {
	entry, key, err := m.entry(queue)
	if err != nil {
		return err
	}
	field := list.field(entry)
	members := common.SplitCSV(*field)
	for _, existing := range members {
		if existing == member {
			return fmt.Errorf("%w: %s in %s of %s", common.ErrorDuplicateMember, member, list, key)
		}
	}
	if !security.IsValidUserName(member) {
		return fmt.Errorf("%w: %q", common.ErrorInvalidMember, member)
	}
	members = append(members, member)
	sort.Strings(members)
	*field = strings.Join(members, security.Separator)
	log.Log(log.Editor).Info("member added",
		zap.String("queue", key),
		zap.Stringer("list", list),
		zap.String("member", member))
	return nil
}

func (m *Manager) delMember(list MemberList, member, queue string) error {
	entry, key, err := m.entry(queue)
	if err != nil {
		return err
	}
	field := list.field(entry)
	members := common.SplitCSV(*field)
	index := -1
	for i, existing := range members {
		if existing == member {
			index = i
			break
		}
	}
	if index < 0 {
		return fmt.Errorf("%w: %s in %s of %s", common.ErrorMemberNotFound, member, list, key)
	}
	if len(members) == 1 {
		return fmt.Errorf("%w: %s is the only entry in %s of %s", common.ErrorLastMember, member, list, key)
	}
	members = append(members[:index], members[index+1:]...)
	sort.Strings(members)
	*field = strings.Join(members, security.Separator)
	log.Log(log.Editor).Info("member removed",
		zap.String("queue", key),
		zap.Stringer("list", list),
		zap.String("member", member))
	return nil
}

// AddQueue creates a queue with zero capacity, the initial user is the only user and admin.
// The parent queue must exist, the root queue always exists.
func (m *Manager) AddQueue(queue, initialUser string) error {
	if err := m.check(); err != nil {
		return err
	}
	fqn := common.QueueFQN(queue)
	if err := common.CheckQueuePath(fqn); err != nil {
		return err
	}
	key := docKey(fqn)
	if _, ok := m.doc[key]; ok || fqn == common.RootQueue {
		return fmt.Errorf("%w: %s", common.ErrorQueueExists, fqn)
	}
	if parent := common.QueueParent(fqn); parent != common.RootQueue {
		if _, ok := m.doc[docKey(parent)]; !ok {
			return fmt.Errorf("%w: parent %s", common.ErrorUnknownQueue, parent)
		}
	}
	if !security.IsValidUserName(initialUser) {
		return fmt.Errorf("%w: %q", common.ErrorInvalidMember, initialUser)
	}
	m.doc[key] = &QueueEntry{
		Users:           initialUser,
		Admins:          initialUser,
		UserLimitFactor: 1,
		State:           mapping.StateString(mapping.V2, true),
	}
	log.Log(log.Editor).Info("queue added",
		zap.String("queue", fqn),
		zap.String("user", initialUser))
	return nil
}

// DelQueue removes a queue without child queues.
func (m *Manager) DelQueue(queue string) error {
	_, key, err := m.entry(queue)
	if err != nil {
		return err
	}
	for name := range m.doc {
		if strings.HasPrefix(name, key+common.DOT) {
			return fmt.Errorf("%w: %s", common.ErrorQueueNotEmpty, common.QueueFQN(key))
		}
	}
	delete(m.doc, key)
	log.Log(log.Editor).Info("queue removed",
		zap.String("queue", common.QueueFQN(key)))
	return nil
}

func (m *Manager) SetCapacity(queue string, value interface{}) error {
	return m.setFloat(queue, "capacity", value, func(e *QueueEntry, v float64) { e.Capacity = v })
}

func (m *Manager) SetMaxCapacity(queue string, value interface{}) error {
	return m.setFloat(queue, "max-capacity", value, func(e *QueueEntry, v float64) { e.MaxCapacity = v })
}

func (m *Manager) SetUserLimitFactor(queue string, value interface{}) error {
	return m.setFloat(queue, "user-limit-factor", value, func(e *QueueEntry, v float64) { e.UserLimitFactor = v })
}

// SetUserLimit sets the maximum number of tasks per user, the value must be a whole number.
func (m *Manager) SetUserLimit(queue string, value interface{}) error {
	return m.setFloat(queue, "max-tpu", value, func(e *QueueEntry, v float64) { e.MaxTasksPerUser = int(v) }, wholeNumber)
}

// SetRunning sets the queue state.
func (m *Manager) SetRunning(queue string, running bool) error {
	entry, key, err := m.entry(queue)
	if err != nil {
		return err
	}
	entry.State = mapping.StateString(mapping.V2, running)
	log.Log(log.Editor).Info("queue state changed",
		zap.String("queue", key),
		zap.String("state", entry.State))
	return nil
}

func wholeNumber(v float64) error {
	if v != math.Trunc(v) {
		return fmt.Errorf("%g is not a whole number", v)
	}
	return nil
}

func (m *Manager) setFloat(queue, field string, value interface{}, set func(*QueueEntry, float64), checks ...func(float64) error) error {
	entry, key, err := m.entry(queue)
	if err != nil {
		return err
	}
	number, err := toFloat(value)
	if err != nil {
		return fmt.Errorf("%s of %s: %w", field, key, err)
	}
	for _, check := range checks {
		if err = check(number); err != nil {
			return fmt.Errorf("%s of %s: %w", field, key, err)
		}
	}
	set(entry, number)
	log.Log(log.Editor).Info("queue value changed",
		zap.String("queue", key),
		zap.String("field", field),
		zap.Float64("value", number))
	return nil
}

func toFloat(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	}
	return 0, fmt.Errorf("unsupported number type %T", value)
}
