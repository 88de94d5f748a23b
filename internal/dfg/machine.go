/*
 * Copyright 2023 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package dfg

// Executable token semantics of the steering operators. These small
// machines are the reference for what the graph is supposed to mean,
// tests drive them directly to check ordering claims such as
// inner-loop serialization.

// Token is a value travelling on an edge.
type Token = int64

type _TokenQueue struct {
    q []Token
}

func (self *_TokenQueue) push(v Token) {
    self.q = append(self.q, v)
}

func (self *_TokenQueue) empty() bool {
    return len(self.q) == 0
}

func (self *_TokenQueue) pop() Token {
    v := self.q[0]
    self.q = self.q[1:]
    return v
}

// SteerMachine gates a data token by a decider token: the data token
// passes when the decider matches the polarity, otherwise both are
// consumed and the data token is dropped.
type SteerMachine struct {
    Polarity bool
    d        _TokenQueue
    v        _TokenQueue
}

func (self *SteerMachine) PushDecider(d bool) {
    if d {
        self.d.push(1)
    } else {
        self.d.push(0)
    }
}

func (self *SteerMachine) PushData(v Token) {
    self.v.push(v)
}

// Step fires once if both inputs are available. The second result is
// false when nothing fired or the token was dropped.
func (self *SteerMachine) Step() (Token, bool) {
    if self.d.empty() || self.v.empty() {
        return 0, false
    }
    d := self.d.pop() != 0
    v := self.v.pop()
    if d == self.Polarity {
        return v, true
    }
    return 0, false
}

// MergeMachine passes the selected input and consumes only that one,
// so the unselected path keeps its token for its own turn.
type MergeMachine struct {
    d _TokenQueue
    a _TokenQueue
    b _TokenQueue
}

func (self *MergeMachine) PushDecider(d bool) {
    if d {
        self.d.push(1)
    } else {
        self.d.push(0)
    }
}

func (self *MergeMachine) PushA(v Token) { self.a.push(v) }
func (self *MergeMachine) PushB(v Token) { self.b.push(v) }

func (self *MergeMachine) Step() (Token, bool) {
    if self.d.empty() {
        return 0, false
    }
    if self.d.q[0] != 0 {
        if self.a.empty() {
            return 0, false
        }
        self.d.pop()
        return self.a.pop(), true
    }
    if self.b.empty() {
        return 0, false
    }
    self.d.pop()
    return self.b.pop(), true
}

// CarryState is the two-state automaton of the carry operator.
type CarryState uint8

const (
    CarryInitial CarryState = iota
    CarryBlock
)

// CarryMachine forwards A once, then forwards B while the decider is
// true, and resets when it goes false. A is not consumed while in the
// Block state, which is exactly what keeps an outer loop from starting
// a new inner-loop instance before the current one drains.
type CarryMachine struct {
    State CarryState
    d     _TokenQueue
    a     _TokenQueue
    b     _TokenQueue
}

func (self *CarryMachine) PushDecider(d bool) {
    if d {
        self.d.push(1)
    } else {
        self.d.push(0)
    }
}

func (self *CarryMachine) PushA(v Token) { self.a.push(v) }
func (self *CarryMachine) PushB(v Token) { self.b.push(v) }

func (self *CarryMachine) Step() (Token, bool) {
    switch self.State {
        /* wait for A, pass it through, start blocking */
        case CarryInitial: {
            if self.a.empty() {
                return 0, false
            }
            v := self.a.pop()
            self.State = CarryBlock
            return v, true
        }

        /* while blocked: D true passes B, D false resets */
        case CarryBlock: {
            if self.d.empty() {
                return 0, false
            }
            if self.d.q[0] != 0 {
                if self.b.empty() {
                    return 0, false
                }
                self.d.pop()
                return self.b.pop(), true
            }
            self.d.pop()
            self.State = CarryInitial
            return 0, false
        }

        default: {
            panic("dfg: invalid carry state")
        }
    }
}

// InvariantMachine is a carry whose B input loops back on its own
// output, regenerating a loop-invariant value once per iteration.
type InvariantMachine struct {
    carry CarryMachine
}

func (self *InvariantMachine) PushDecider(d bool) { self.carry.PushDecider(d) }
func (self *InvariantMachine) PushA(v Token)      { self.carry.PushA(v) }

func (self *InvariantMachine) Step() (Token, bool) {
    v, ok := self.carry.Step()
    if ok {
        self.carry.PushB(v)
    }
    return v, ok
}

// OrderMachine joins two token streams: it fires when both inputs are
// present and passes B, serializing effects without inspecting them.
type OrderMachine struct {
    a _TokenQueue
    b _TokenQueue
}

func (self *OrderMachine) PushA(v Token) { self.a.push(v) }
func (self *OrderMachine) PushB(v Token) { self.b.push(v) }

func (self *OrderMachine) Step() (Token, bool) {
    if self.a.empty() || self.b.empty() {
        return 0, false
    }
    self.a.pop()
    return self.b.pop(), true
}

// StreamMachine emits the token sequence of an iteration source.
type StreamMachine struct {
    next Token
}

func (self *StreamMachine) Step() (Token, bool) {
    v := self.next
    self.next++
    return v, true
}
