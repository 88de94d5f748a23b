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

type Param struct {
    Name string
    Ty   *Type
}

type Function struct {
    Name   string
    Ret    *Type
    Args   []*Argument
    Blocks []*Block
    Mod    *Module
    Decl   bool
    nblk   int
    nval   int
}

func (self *Function) Type() *Type { return PtrTo(Void) }
func (self *Function) Ref() string { return "@" + self.Name }

func (self *Function) Entry() *Block {
    if len(self.Blocks) == 0 {
        return nil
    } else {
        return self.Blocks[0]
    }
}

func (self *Function) NewBlock(name string) *Block {
    bb := &Block {
        Id   : self.nblk,
        Name : name,
        fn   : self,
    }
    if name == "" {
        bb.Name = fmt.Sprintf("bb_%d", self.nblk)
    }
    self.nblk++
    self.Blocks = append(self.Blocks, bb)
    return bb
}

// RemoveBlock drops bb from the block list. Edges must have been
// unlinked by the caller.
func (self *Function) RemoveBlock(bb *Block) {
    for i, p := range self.Blocks {
        if p == bb {
            self.Blocks = append(self.Blocks[:i], self.Blocks[i + 1:]...)
            return
        }
    }
}

func (self *Function) BlockByName(name string) *Block {
    for _, bb := range self.Blocks {
        if bb.Name == name {
            return bb
        }
    }
    return nil
}

func (self *Function) nextId() string {
    id := self.nval
    self.nval++
    return fmt.Sprintf("t%d", id)
}

func (self *Function) String() string {
    nb := len(self.Blocks)
    sig := make([]string, 0, len(self.Args))
    for _, p := range self.Args {
        sig = append(sig, p.String())
    }
    if self.Decl {
        return fmt.Sprintf("declare %s @%s(%s)", self.Ret, self.Name, strings.Join(sig, ", "))
    }
    ret := make([]string, 0, nb + 2)
    ret = append(ret, fmt.Sprintf("func @%s(%s) %s {", self.Name, strings.Join(sig, ", "), self.Ret))
    for _, bb := range self.Blocks {
        ret = append(ret, bb.String())
    }
    ret = append(ret, "}")
    return strings.Join(ret, "\n")
}

type _ConstIntKey struct {
    t string
    v int64
}

type _ConstFloatKey struct {
    t string
    v float64
}

// Module owns functions, declarations and the interned constant pool.
type Module struct {
    Name   string
    Funcs  []*Function
    ints   map[_ConstIntKey]*ConstInt
    floats map[_ConstFloatKey]*ConstFloat
}

func NewModule(name string) *Module {
    return &Module {
        Name   : name,
        ints   : make(map[_ConstIntKey]*ConstInt),
        floats : make(map[_ConstFloatKey]*ConstFloat),
    }
}

func (self *Module) NewFunction(name string, ret *Type, params ...Param) *Function {
    fn := &Function {
        Name : name,
        Ret  : ret,
        Mod  : self,
    }
    for i, p := range params {
        fn.Args = append(fn.Args, &Argument {
            Id  : p.Name,
            Ty  : p.Ty,
            Pos : i,
            Fn  : fn,
        })
    }
    self.Funcs = append(self.Funcs, fn)
    return fn
}

func (self *Module) NewDeclaration(name string, ret *Type, params ...Param) *Function {
    fn := self.NewFunction(name, ret, params...)
    fn.Decl = true
    return fn
}

func (self *Module) FindFunc(name string) *Function {
    for _, fn := range self.Funcs {
        if fn.Name == name {
            return fn
        }
    }
    return nil
}

func (self *Module) ConstInt(ty *Type, v int64) *ConstInt {
    key := _ConstIntKey { t: ty.String(), v: v }
    if c, ok := self.ints[key]; ok {
        return c
    }
    c := &ConstInt { Ty: ty, V: v }
    self.ints[key] = c
    return c
}

func (self *Module) ConstFloat(ty *Type, v float64) *ConstFloat {
    key := _ConstFloatKey { t: ty.String(), v: v }
    if c, ok := self.floats[key]; ok {
        return c
    }
    c := &ConstFloat { Ty: ty, V: v }
    self.floats[key] = c
    return c
}

func (self *Module) String() string {
    ret := make([]string, 0, len(self.Funcs))
    for _, fn := range self.Funcs {
        ret = append(ret, fn.String())
    }
    return strings.Join(ret, "\n\n")
}
