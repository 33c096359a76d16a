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
	"context"
	"fmt"
	"os"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/apache/hadmin/pkg/common"
	"github.com/apache/hadmin/pkg/log"
)

// Session is a scoped edit of a document. All edits are applied to a private copy. A session opened
// on a file writes the copy back when it is closed, a session on an in-memory document never writes.
// A session is not safe for concurrent use, and there is no locking between processes editing the
// same file.
type Session struct {
	*Manager
	id           string
	path         string
	stateMachine *fsm.FSM
}

// OpenSession starts a session on the document stored in the file. A missing file starts an empty
// document that is created on close.
func OpenSession(path string) (*Session, error) {
	doc, err := LoadDocument(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		log.Log(log.Editor).Info("queue document does not exist, starting empty",
			zap.String("path", path))
		doc = make(Document)
	}
	session := newSession(doc)
	session.path = path
	return session, nil
}

// NewSession starts a session on a copy of an in-memory document. Closing it does not write anything.
func NewSession(doc Document) *Session {
	return newSession(doc.Clone())
}

func newSession(doc Document) *Session {
	s := &Session{
		id:           common.GetNewUUID(),
		stateMachine: NewSessionState(),
	}
	s.Manager = &Manager{doc: doc, guard: s.checkOpen}
	log.Log(log.Editor).Debug("edit session opened",
		zap.String("session", s.id),
		zap.String("path", s.path))
	return s
}

func (s *Session) checkOpen() error {
	if s.IsClosed() {
		return fmt.Errorf("%w: %s", common.ErrorSessionClosed, s.id)
	}
	return nil
}

func (s *Session) ID() string {
	return s.id
}

// Path returns the backing file, empty for an in-memory session.
func (s *Session) Path() string {
	return s.path
}

func (s *Session) IsClosed() bool {
	return s.stateMachine.Is(Closed.String())
}

// Document returns a copy of the edited document.
func (s *Session) Document() Document {
	return s.doc.Clone()
}

// Commit writes the edited document to the backing file and keeps the session open.
func (s *Session) Commit() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if s.path == "" {
		return nil
	}
	if err := s.doc.Save(s.path); err != nil {
		return err
	}
	log.Log(log.Editor).Info("queue document written",
		zap.String("session", s.id),
		zap.String("path", s.path),
		zap.Int("queues", len(s.doc)))
	return nil
}

// Close commits the document and ends the session. Closing a closed session is a no-op.
// If the write fails the session stays open.
func (s *Session) Close() error {
	if s.IsClosed() {
		return nil
	}
	if err := s.Commit(); err != nil {
		return err
	}
	return s.stateMachine.Event(context.Background(), Close.String(), s.id)
}

// Discard ends the session without writing. Discarding a closed session is a no-op.
func (s *Session) Discard() error {
	if s.IsClosed() {
		return nil
	}
	return s.stateMachine.Event(context.Background(), Discard.String(), s.id)
}

// WithSession runs the function in a session on the file. The document is written only if the
// function succeeds, the session is always ended.
func WithSession(path string, fn func(*Session) error) error {
	session, err := OpenSession(path)
	if err != nil {
		return err
	}
	if err = fn(session); err != nil {
		if discardErr := session.Discard(); discardErr != nil {
			log.Log(log.Editor).Warn("failed to discard edit session",
				zap.String("session", session.id),
				zap.Error(discardErr))
		}
		return err
	}
	return session.Close()
}
