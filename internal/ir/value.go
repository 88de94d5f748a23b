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

package ir

import (
    `fmt`
    `strconv`
)

// Value is anything that may appear as an instruction operand: function
// arguments, interned constants, instructions, and function symbols
// (callees only).
type Value interface {
    fmt.Stringer
    Ref() string
    Type() *Type
}

// valueUser is implemented by values that keep a use list.
type valueUser interface {
    addUse(*Instr)
    delUse(*Instr)
}

func trackUse(v Value, by *Instr) {
    if u, ok := v.(valueUser); ok {
        u.addUse(by)
    }
}

func untrackUse(v Value, by *Instr) {
    if u, ok := v.(valueUser); ok {
        u.delUse(by)
    }
}

type Argument struct {
    Id    string
    Ty    *Type
    Pos   int
    Fn    *Function
    users []*Instr
}

func (self *Argument) Type() *Type { return self.Ty }
func (self *Argument) Ref() string { return "%" + self.Id }

func (self *Argument) String() string {
    return self.Ty.String() + " %" + self.Id
}

func (self *Argument) Users() []*Instr {
    return self.users
}

func (self *Argument) addUse(p *Instr) {
    self.users = append(self.users, p)
}

func (self *Argument) delUse(p *Instr) {
    for i, u := range self.users {
        if u == p {
            self.users = append(self.users[:i], self.users[i + 1:]...)
            return
        }
    }
}

// ConstInt is an integer literal, interned per module so that equal
// literals of the same type share a single value.
type ConstInt struct {
    Ty *Type
    V  int64
}

func (self *ConstInt) Type() *Type { return self.Ty }
func (self *ConstInt) Ref() string { return strconv.FormatInt(self.V, 10) }

func (self *ConstInt) String() string {
    return fmt.Sprintf("%s %d", self.Ty, self.V)
}

type ConstFloat struct {
    Ty *Type
    V  float64
}

func (self *ConstFloat) Type() *Type { return self.Ty }
func (self *ConstFloat) Ref() string { return strconv.FormatFloat(self.V, 'g', -1, 64) }

func (self *ConstFloat) String() string {
    return fmt.Sprintf("%s %s", self.Ty, self.Ref())
}

// IsConst reports whether v is a literal of any type.
func IsConst(v Value) bool {
    switch v.(type) {
        case *ConstInt   : return true
        case *ConstFloat : return true
        default          : return false
    }
}
