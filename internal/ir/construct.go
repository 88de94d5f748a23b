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

// Free-standing constructors for passes that splice instructions into
// existing blocks rather than appending through a Builder.

// NewCall builds a detached call instruction. Attach it with
// Block.InsertBefore or Block.InsertAtHead.
func NewCall(callee *Function, id string, args ...Value) *Instr {
    p := newInstr(OpCall, id, callee.Ret, args...)
    p.Callee = callee
    return p
}

// NewPhi builds a detached phi with no incoming pairs.
func NewPhi(ty *Type, id string) *Instr {
    return newInstr(OpPhi, id, ty)
}

// NextId hands out a fresh SSA name in this function.
func (self *Function) NextId() string {
    return self.nextId()
}

// InsertBefore splices p immediately before mark, which must be an
// instruction of this block.
func (self *Block) InsertBefore(mark *Instr, p *Instr) {
    for i, v := range self.Ins {
        if v == mark {
            p.blk = self
            self.Ins = append(self.Ins[:i], append([]*Instr { p }, self.Ins[i:]...)...)
            return
        }
    }
    panic("ir: InsertBefore mark is not in the block")
}
