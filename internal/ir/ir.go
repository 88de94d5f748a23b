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

type Op uint8

const (
    OpAdd Op = iota
    OpSub
    OpMul
    OpSDiv
    OpUDiv
    OpSRem
    OpAnd
    OpOr
    OpXor
    OpShl
    OpLShr
    OpAShr
    OpFAdd
    OpFSub
    OpFMul
    OpFDiv
    OpICmp
    OpFCmp
    OpLoad
    OpStore
    OpPhi
    OpSelect
    OpGetElementPtr
    OpTrunc
    OpZExt
    OpSExt
    OpBitCast
    OpFPTrunc
    OpFPExt
    OpSIToFP
    OpFPToSI
    OpCall
    OpBr
    OpCondBr
    OpRet
)

var _OpNames = [...]string {
    OpAdd           : "add",
    OpSub           : "sub",
    OpMul           : "mul",
    OpSDiv          : "sdiv",
    OpUDiv          : "udiv",
    OpSRem          : "srem",
    OpAnd           : "and",
    OpOr            : "or",
    OpXor           : "xor",
    OpShl           : "shl",
    OpLShr          : "lshr",
    OpAShr          : "ashr",
    OpFAdd          : "fadd",
    OpFSub          : "fsub",
    OpFMul          : "fmul",
    OpFDiv          : "fdiv",
    OpICmp          : "icmp",
    OpFCmp          : "fcmp",
    OpLoad          : "load",
    OpStore         : "store",
    OpPhi           : "phi",
    OpSelect        : "select",
    OpGetElementPtr : "getelementptr",
    OpTrunc         : "trunc",
    OpZExt          : "zext",
    OpSExt          : "sext",
    OpBitCast       : "bitcast",
    OpFPTrunc       : "fptrunc",
    OpFPExt         : "fpext",
    OpSIToFP        : "sitofp",
    OpFPToSI        : "fptosi",
    OpCall          : "call",
    OpBr            : "br",
    OpCondBr        : "br",
    OpRet           : "ret",
}

func (self Op) String() string {
    if int(self) < len(_OpNames) && _OpNames[self] != "" {
        return _OpNames[self]
    } else {
        panic("ir: invalid opcode")
    }
}

func (self Op) IsBinary() bool {
    return self >= OpAdd && self <= OpFDiv
}

func (self Op) IsCompare() bool {
    return self == OpICmp || self == OpFCmp
}

func (self Op) IsCast() bool {
    return self >= OpTrunc && self <= OpFPToSI
}

func (self Op) IsTerminator() bool {
    return self == OpBr || self == OpCondBr || self == OpRet
}

type Predicate uint8

const (
    CmpEQ Predicate = iota
    CmpNE
    CmpSLT
    CmpSLE
    CmpSGT
    CmpSGE
    CmpULT
    CmpULE
    CmpUGT
    CmpUGE
    CmpOEQ
    CmpONE
    CmpOLT
    CmpOLE
    CmpOGT
    CmpOGE
)

var _PredNames = [...]string {
    CmpEQ  : "eq",
    CmpNE  : "ne",
    CmpSLT : "slt",
    CmpSLE : "sle",
    CmpSGT : "sgt",
    CmpSGE : "sge",
    CmpULT : "ult",
    CmpULE : "ule",
    CmpUGT : "ugt",
    CmpUGE : "uge",
    CmpOEQ : "oeq",
    CmpONE : "one",
    CmpOLT : "olt",
    CmpOLE : "ole",
    CmpOGT : "ogt",
    CmpOGE : "oge",
}

func (self Predicate) String() string {
    if int(self) < len(_PredNames) {
        return _PredNames[self]
    } else {
        panic("ir: invalid predicate")
    }
}

// Instr is a single SSA instruction. One struct covers every opcode,
// the meaning of Args depends on Op:
//
//     binary / compare : Args = {lhs, rhs}
//     load             : Args = {addr}
//     store            : Args = {val, addr}
//     phi              : Args[i] comes from Incoming[i]
//     select           : Args = {cond, ifTrue, ifFalse}
//     getelementptr    : Args = {base, index...}
//     cast             : Args = {src}
//     call             : Args = argument list, Callee is the target
//     br               : Blocks = {dest}
//     condbr           : Args = {cond}, Blocks = {ifTrue, ifFalse}
//     ret              : Args = {} or {val}
type Instr struct {
    Op       Op
    Id       string
    Ty       *Type
    Pred     Predicate
    Args     []Value
    Incoming []*Block
    Blocks   []*Block
    Callee   *Function
    blk      *Block
    users    []*Instr
}

func newInstr(op Op, id string, ty *Type, args ...Value) *Instr {
    p := &Instr {
        Op   : op,
        Id   : id,
        Ty   : ty,
        Args : args,
    }
    for _, v := range args {
        trackUse(v, p)
    }
    return p
}

func (self *Instr) Type() *Type { return self.Ty }
func (self *Instr) Ref() string { return "%" + self.Id }

func (self *Instr) Parent() *Block {
    return self.blk
}

func (self *Instr) Users() []*Instr {
    return self.users
}

func (self *Instr) addUse(p *Instr) {
    self.users = append(self.users, p)
}

func (self *Instr) delUse(p *Instr) {
    for i, u := range self.users {
        if u == p {
            self.users = append(self.users[:i], self.users[i + 1:]...)
            return
        }
    }
}

func (self *Instr) setArg(i int, v Value) {
    untrackUse(self.Args[i], self)
    self.Args[i] = v
    trackUse(v, self)
}

// ReplaceAllUsesWith rewires every use of this instruction to v.
func (self *Instr) ReplaceAllUsesWith(v Value) {
    users := append([]*Instr(nil), self.users...)
    for _, u := range users {
        for i, a := range u.Args {
            if a == Value(self) {
                u.setArg(i, v)
            }
        }
    }
}

// AddIncoming appends a (value, predecessor) pair to a phi.
func (self *Instr) AddIncoming(v Value, bb *Block) {
    if self.Op != OpPhi {
        panic("ir: AddIncoming on a non-phi instruction")
    }
    self.Args = append(self.Args, v)
    self.Incoming = append(self.Incoming, bb)
    trackUse(v, self)
}

// Cond returns the condition operand of a condbr or select.
func (self *Instr) Cond() Value {
    switch self.Op {
        case OpCondBr, OpSelect : return self.Args[0]
        default                 : panic("ir: instruction has no condition")
    }
}

func (self *Instr) String() string {
    switch self.Op {
        case OpICmp, OpFCmp: {
            return fmt.Sprintf("%s = %s %s %s %s, %s", self.Ref(), self.Op, self.Pred, self.Args[0].Type(), self.Args[0].Ref(), self.Args[1].Ref())
        }

        case OpLoad: {
            return fmt.Sprintf("%s = load %s, %s %s", self.Ref(), self.Ty, self.Args[0].Type(), self.Args[0].Ref())
        }

        case OpStore: {
            return fmt.Sprintf("store %s %s, %s %s", self.Args[0].Type(), self.Args[0].Ref(), self.Args[1].Type(), self.Args[1].Ref())
        }

        case OpPhi: {
            nb := len(self.Args)
            ret := make([]string, 0, nb)
            for i, v := range self.Args {
                ret = append(ret, fmt.Sprintf("[ %s, %%%s ]", v.Ref(), self.Incoming[i].Name))
            }
            return fmt.Sprintf("%s = phi %s %s", self.Ref(), self.Ty, strings.Join(ret, ", "))
        }

        case OpSelect: {
            return fmt.Sprintf("%s = select i1 %s, %s %s, %s %s", self.Ref(), self.Args[0].Ref(), self.Ty, self.Args[1].Ref(), self.Ty, self.Args[2].Ref())
        }

        case OpGetElementPtr: {
            nb := len(self.Args)
            ret := make([]string, 0, nb)
            for _, v := range self.Args[1:] {
                ret = append(ret, fmt.Sprintf("%s %s", v.Type(), v.Ref()))
            }
            return fmt.Sprintf("%s = getelementptr %s, %s %s, %s", self.Ref(), self.Ty.Elem, self.Args[0].Type(), self.Args[0].Ref(), strings.Join(ret, ", "))
        }

        case OpTrunc, OpZExt, OpSExt, OpBitCast, OpFPTrunc, OpFPExt, OpSIToFP, OpFPToSI: {
            return fmt.Sprintf("%s = %s %s %s to %s", self.Ref(), self.Op, self.Args[0].Type(), self.Args[0].Ref(), self.Ty)
        }

        case OpCall: {
            nb := len(self.Args)
            ret := make([]string, 0, nb)
            for _, v := range self.Args {
                ret = append(ret, fmt.Sprintf("%s %s", v.Type(), v.Ref()))
            }
            if self.Ty.IsVoid() {
                return fmt.Sprintf("call void @%s(%s)", self.Callee.Name, strings.Join(ret, ", "))
            }
            return fmt.Sprintf("%s = call %s @%s(%s)", self.Ref(), self.Ty, self.Callee.Name, strings.Join(ret, ", "))
        }

        case OpBr: {
            return fmt.Sprintf("br label %%%s", self.Blocks[0].Name)
        }

        case OpCondBr: {
            return fmt.Sprintf("br i1 %s, label %%%s, label %%%s", self.Args[0].Ref(), self.Blocks[0].Name, self.Blocks[1].Name)
        }

        case OpRet: {
            if len(self.Args) == 0 {
                return "ret void"
            }
            return fmt.Sprintf("ret %s %s", self.Args[0].Type(), self.Args[0].Ref())
        }

        default: {
            return fmt.Sprintf("%s = %s %s %s, %s", self.Ref(), self.Op, self.Ty, self.Args[0].Ref(), self.Args[1].Ref())
        }
    }
}
