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

// Builder constructs functions one instruction at a time. Front-ends
// (the textual parser, tests) use it instead of poking Instr structs
// directly so that use lists and predecessor lists stay consistent.
type Builder struct {
    mod *Module
    fn  *Function
    bb  *Block
}

func NewBuilder(mod *Module) *Builder {
    return &Builder {
        mod: mod,
    }
}

func (self *Builder) Module() *Module     { return self.mod }
func (self *Builder) Func() *Function     { return self.fn }
func (self *Builder) Block() *Block       { return self.bb }
func (self *Builder) SetBlock(bb *Block)  { self.bb = bb }

// SetFunc switches the builder onto an existing function, for callers
// that lay out their own blocks (the textual parser does).
func (self *Builder) SetFunc(fn *Function) {
    self.fn = fn
    self.bb = nil
}

// Function starts a new function definition and makes its entry block
// the insertion point.
func (self *Builder) Function(name string, ret *Type, params ...Param) *Function {
    self.fn = self.mod.NewFunction(name, ret, params...)
    self.bb = self.fn.NewBlock("entry")
    return self.fn
}

func (self *Builder) NewBlock(name string) *Block {
    return self.fn.NewBlock(name)
}

func (self *Builder) Arg(i int) *Argument {
    return self.fn.Args[i]
}

func (self *Builder) Int(ty *Type, v int64) *ConstInt {
    return self.mod.ConstInt(ty, v)
}

func (self *Builder) Float(ty *Type, v float64) *ConstFloat {
    return self.mod.ConstFloat(ty, v)
}

func (self *Builder) emit(p *Instr) *Instr {
    self.bb.checkOpen()
    self.bb.append(p)
    return p
}

// Binary emits any two-operand arithmetic instruction.
func (self *Builder) Binary(op Op, x Value, y Value) *Instr {
    if !op.IsBinary() {
        panic("ir: Binary with a non-binary opcode")
    }
    return self.binary(op, x, y)
}

// Cast emits any conversion instruction.
func (self *Builder) Cast(op Op, v Value, ty *Type) *Instr {
    if !op.IsCast() {
        panic("ir: Cast with a non-cast opcode")
    }
    return self.cast(op, v, ty)
}

func (self *Builder) binary(op Op, x Value, y Value) *Instr {
    return self.emit(newInstr(op, self.fn.nextId(), x.Type(), x, y))
}

func (self *Builder) Add(x Value, y Value) *Instr  { return self.binary(OpAdd, x, y) }
func (self *Builder) Sub(x Value, y Value) *Instr  { return self.binary(OpSub, x, y) }
func (self *Builder) Mul(x Value, y Value) *Instr  { return self.binary(OpMul, x, y) }
func (self *Builder) SDiv(x Value, y Value) *Instr { return self.binary(OpSDiv, x, y) }
func (self *Builder) UDiv(x Value, y Value) *Instr { return self.binary(OpUDiv, x, y) }
func (self *Builder) SRem(x Value, y Value) *Instr { return self.binary(OpSRem, x, y) }
func (self *Builder) And(x Value, y Value) *Instr  { return self.binary(OpAnd, x, y) }
func (self *Builder) Or(x Value, y Value) *Instr   { return self.binary(OpOr, x, y) }
func (self *Builder) Xor(x Value, y Value) *Instr  { return self.binary(OpXor, x, y) }
func (self *Builder) Shl(x Value, y Value) *Instr  { return self.binary(OpShl, x, y) }
func (self *Builder) LShr(x Value, y Value) *Instr { return self.binary(OpLShr, x, y) }
func (self *Builder) AShr(x Value, y Value) *Instr { return self.binary(OpAShr, x, y) }
func (self *Builder) FAdd(x Value, y Value) *Instr { return self.binary(OpFAdd, x, y) }
func (self *Builder) FSub(x Value, y Value) *Instr { return self.binary(OpFSub, x, y) }
func (self *Builder) FMul(x Value, y Value) *Instr { return self.binary(OpFMul, x, y) }
func (self *Builder) FDiv(x Value, y Value) *Instr { return self.binary(OpFDiv, x, y) }

func (self *Builder) ICmp(pred Predicate, x Value, y Value) *Instr {
    p := newInstr(OpICmp, self.fn.nextId(), I1, x, y)
    p.Pred = pred
    return self.emit(p)
}

func (self *Builder) FCmp(pred Predicate, x Value, y Value) *Instr {
    p := newInstr(OpFCmp, self.fn.nextId(), I1, x, y)
    p.Pred = pred
    return self.emit(p)
}

func (self *Builder) Load(ty *Type, addr Value) *Instr {
    return self.emit(newInstr(OpLoad, self.fn.nextId(), ty, addr))
}

func (self *Builder) Store(val Value, addr Value) *Instr {
    return self.emit(newInstr(OpStore, "", Void, val, addr))
}

func (self *Builder) Phi(ty *Type) *Instr {
    return self.emit(newInstr(OpPhi, self.fn.nextId(), ty))
}

func (self *Builder) Select(cond Value, ifTrue Value, ifFalse Value) *Instr {
    return self.emit(newInstr(OpSelect, self.fn.nextId(), ifTrue.Type(), cond, ifTrue, ifFalse))
}

// GEP computes &base[index...] over elements of type elem.
func (self *Builder) GEP(elem *Type, base Value, index ...Value) *Instr {
    args := append([]Value { base }, index...)
    return self.emit(newInstr(OpGetElementPtr, self.fn.nextId(), PtrTo(elem), args...))
}

func (self *Builder) cast(op Op, v Value, ty *Type) *Instr {
    return self.emit(newInstr(op, self.fn.nextId(), ty, v))
}

func (self *Builder) Trunc(v Value, ty *Type) *Instr   { return self.cast(OpTrunc, v, ty) }
func (self *Builder) ZExt(v Value, ty *Type) *Instr    { return self.cast(OpZExt, v, ty) }
func (self *Builder) SExt(v Value, ty *Type) *Instr    { return self.cast(OpSExt, v, ty) }
func (self *Builder) BitCast(v Value, ty *Type) *Instr { return self.cast(OpBitCast, v, ty) }
func (self *Builder) FPTrunc(v Value, ty *Type) *Instr { return self.cast(OpFPTrunc, v, ty) }
func (self *Builder) FPExt(v Value, ty *Type) *Instr   { return self.cast(OpFPExt, v, ty) }
func (self *Builder) SIToFP(v Value, ty *Type) *Instr  { return self.cast(OpSIToFP, v, ty) }
func (self *Builder) FPToSI(v Value, ty *Type) *Instr  { return self.cast(OpFPToSI, v, ty) }

func (self *Builder) Call(fn *Function, args ...Value) *Instr {
    p := newInstr(OpCall, "", fn.Ret, args...)
    p.Callee = fn
    if !fn.Ret.IsVoid() {
        p.Id = self.fn.nextId()
    }
    return self.emit(p)
}

func (self *Builder) Br(dst *Block) *Instr {
    p := newInstr(OpBr, "", Void)
    p.Blocks = []*Block { dst }
    return self.emit(p)
}

func (self *Builder) CondBr(cond Value, ifTrue *Block, ifFalse *Block) *Instr {
    p := newInstr(OpCondBr, "", Void, cond)
    p.Blocks = []*Block { ifTrue, ifFalse }
    return self.emit(p)
}

func (self *Builder) Ret(v Value) *Instr {
    if v == nil {
        return self.emit(newInstr(OpRet, "", Void))
    } else {
        return self.emit(newInstr(OpRet, "", Void, v))
    }
}
