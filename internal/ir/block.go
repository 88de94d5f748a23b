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
    `strings`
)

type Block struct {
    Id   int
    Name string
    Ins  []*Instr
    Pred []*Block
    fn   *Function
}

func (self *Block) Func() *Function {
    return self.fn
}

// Term returns the block terminator, or nil for an open block.
func (self *Block) Term() *Instr {
    if n := len(self.Ins); n > 0 && self.Ins[n - 1].Op.IsTerminator() {
        return self.Ins[n - 1]
    } else {
        return nil
    }
}

// Phis returns the head run of phi instructions.
func (self *Block) Phis() []*Instr {
    for i, p := range self.Ins {
        if p.Op != OpPhi {
            return self.Ins[:i]
        }
    }
    return self.Ins
}

func (self *Block) Succs() []*Block {
    if tr := self.Term(); tr != nil {
        return tr.Blocks
    } else {
        return nil
    }
}

func (self *Block) append(p *Instr) {
    p.blk = self
    self.Ins = append(self.Ins, p)

    /* maintain predecessor lists on branch insertion */
    for _, bb := range p.Blocks {
        bb.addPred(self)
    }
}

// InsertAtHead places p before every other instruction in the block.
// Token phis created by the memory-ordering rewrite go in this way.
func (self *Block) InsertAtHead(p *Instr) {
    p.blk = self
    self.Ins = append([]*Instr { p }, self.Ins...)
}

// Remove unlinks p from the block and drops its operand uses. The
// instruction must not be a terminator.
func (self *Block) Remove(p *Instr) {
    if p.Op.IsTerminator() {
        panic("ir: Remove called on a terminator")
    }
    for i, v := range self.Ins {
        if v == p {
            self.Ins = append(self.Ins[:i], self.Ins[i + 1:]...)
            break
        }
    }
    for _, v := range p.Args {
        untrackUse(v, p)
    }
    p.blk = nil
    p.Args = nil
}

func (self *Block) addPred(bb *Block) {
    for _, p := range self.Pred {
        if p == bb {
            return
        }
    }
    self.Pred = append(self.Pred, bb)
}

func (self *Block) delPred(bb *Block) {
    for i, p := range self.Pred {
        if p == bb {
            self.Pred = append(self.Pred[:i], self.Pred[i + 1:]...)
            return
        }
    }
}

func (self *Block) String() string {
    nb := len(self.Ins)
    ret := make([]string, 0, nb + 1)
    ret = append(ret, self.Name + ":")
    for _, p := range self.Ins {
        ret = append(ret, "  " + p.String())
    }
    return strings.Join(ret, "\n")
}

func (self *Block) checkOpen() {
    if self.Term() != nil {
        panic(fmt.Sprintf("ir: block %%%s is already terminated", self.Name))
    }
}
