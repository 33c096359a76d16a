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

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/apache/hadmin/pkg/log"
)

// ----------------------------------
// session events
// ----------------------------------
type SessionEvent int

const (
	Close SessionEvent = iota
	Discard
)

func (se SessionEvent) String() string {
	return [...]string{"Close", "Discard"}[se]
}

// ----------------------------------
// session states
// ----------------------------------
type SessionState int

const (
	Open SessionState = iota
	Closed
)

func (ss SessionState) String() string {
	return [...]string{"Open", "Closed"}[ss]
}

func NewSessionState() *fsm.FSM {
	return fsm.NewFSM(
		Open.String(), fsm.Events{
			{
				Name: Close.String(),
				Src:  []string{Open.String()},
				Dst:  Closed.String(),
			}, {
				Name: Discard.String(),
				Src:  []string{Open.String()},
				Dst:  Closed.String(),
			},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, event *fsm.Event) {
				log.Log(log.Editor).Debug("session transition",
					zap.Any("session", event.Args[0]),
					zap.String("source", event.Src),
					zap.String("destination", event.Dst),
					zap.String("event", event.Event))
			},
		},
	)
}
