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

package irtext

// Grammar of the textual form. The shapes mirror the instruction set
// one to one, resolution into ir values happens in a second pass.

type File struct {
	Decls []*TopDecl `parser:"@@*"`
}

type TopDecl struct {
	Declare *DeclareDef `parser:"  @@"`
	Func    *FuncDef    `parser:"| @@"`
}

type DeclareDef struct {
	Ret    *TypeRef    `parser:"\"declare\" @@"`
	Name   string      `parser:"@GlobalIdent"`
	Params []*ParamDef `parser:"\"(\" ( @@ ( \",\" @@ )* )? \")\""`
}

type FuncDef struct {
	Name   string      `parser:"\"func\" @GlobalIdent"`
	Params []*ParamDef `parser:"\"(\" ( @@ ( \",\" @@ )* )? \")\""`
	Ret    *TypeRef    `parser:"@@"`
	Blocks []*BlockDef `parser:"\"{\" @@* \"}\""`
}

type ParamDef struct {
	Ty   *TypeRef `parser:"@@"`
	Name string   `parser:"@LocalIdent?"`
}

type TypeRef struct {
	Name  string   `parser:"@Ident"`
	Stars []string `parser:"@\"*\"*"`
}

type BlockDef struct {
	Label string      `parser:"@Ident \":\""`
	Ins   []*InstrDef `parser:"@@*"`
}

type InstrDef struct {
	Assign *AssignInstr `parser:"  @@"`
	Store  *StoreInstr  `parser:"| @@"`
	Goto   *GotoInstr   `parser:"| @@"`
	CondBr *CondBrInstr `parser:"| @@"`
	Ret    *RetInstr    `parser:"| @@"`
	Call   *CallStmt    `parser:"| @@"`
}

type AssignInstr struct {
	Name string   `parser:"@LocalIdent \"=\""`
	Bin  *BinRhs  `parser:"( @@"`
	Cmp  *CmpRhs  `parser:"| @@"`
	Load *LoadRhs `parser:"| @@"`
	Phi  *PhiRhs  `parser:"| @@"`
	Sel  *SelRhs  `parser:"| @@"`
	Gep  *GepRhs  `parser:"| @@"`
	Cast *CastRhs `parser:"| @@"`
	Call *CallRhs `parser:"| @@ )"`
}

type Operand struct {
	Local string   `parser:"  @LocalIdent"`
	Float *float64 `parser:"| @Float"`
	Int   *int64   `parser:"| @Int"`
}

type TypedOperand struct {
	Ty *TypeRef `parser:"@@"`
	V  *Operand `parser:"@@"`
}

type BinRhs struct {
	Op string   `parser:"@(\"add\"|\"sub\"|\"mul\"|\"sdiv\"|\"udiv\"|\"srem\"|\"and\"|\"or\"|\"xor\"|\"shl\"|\"lshr\"|\"ashr\"|\"fadd\"|\"fsub\"|\"fmul\"|\"fdiv\")"`
	Ty *TypeRef `parser:"@@"`
	X  *Operand `parser:"@@ \",\""`
	Y  *Operand `parser:"@@"`
}

type CmpRhs struct {
	Kind string   `parser:"@(\"icmp\"|\"fcmp\")"`
	Pred string   `parser:"@Ident"`
	Ty   *TypeRef `parser:"@@"`
	X    *Operand `parser:"@@ \",\""`
	Y    *Operand `parser:"@@"`
}

type LoadRhs struct {
	Ty  *TypeRef      `parser:"\"load\" @@ \",\""`
	Ptr *TypedOperand `parser:"@@"`
}

type PhiRhs struct {
	Ty       *TypeRef   `parser:"\"phi\" @@"`
	Incoming []*PhiPair `parser:"@@ ( \",\" @@ )*"`
}

type PhiPair struct {
	V   *Operand `parser:"\"[\" @@ \",\""`
	Blk string   `parser:"@LocalIdent \"]\""`
}

type SelRhs struct {
	Cond    *TypedOperand `parser:"\"select\" @@ \",\""`
	IfTrue  *TypedOperand `parser:"@@ \",\""`
	IfFalse *TypedOperand `parser:"@@"`
}

type GepRhs struct {
	Elem  *TypeRef        `parser:"\"getelementptr\" @@ \",\""`
	Base  *TypedOperand   `parser:"@@"`
	Index []*TypedOperand `parser:"( \",\" @@ )*"`
}

type CastRhs struct {
	Op  string        `parser:"@(\"trunc\"|\"zext\"|\"sext\"|\"bitcast\"|\"fptrunc\"|\"fpext\"|\"sitofp\"|\"fptosi\")"`
	Src *TypedOperand `parser:"@@"`
	Ty  *TypeRef      `parser:"\"to\" @@"`
}

type CallRhs struct {
	Ret  *TypeRef        `parser:"\"call\" @@"`
	Name string          `parser:"@GlobalIdent"`
	Args []*TypedOperand `parser:"\"(\" ( @@ ( \",\" @@ )* )? \")\""`
}

type CallStmt struct {
	Call *CallRhs `parser:"@@"`
}

type StoreInstr struct {
	Val *TypedOperand `parser:"\"store\" @@ \",\""`
	Ptr *TypedOperand `parser:"@@"`
}

type GotoInstr struct {
	Dst string `parser:"\"br\" \"label\" @LocalIdent"`
}

type CondBrInstr struct {
	Cond  *TypedOperand `parser:"\"br\" @@ \",\""`
	True  string        `parser:"\"label\" @LocalIdent \",\""`
	False string        `parser:"\"label\" @LocalIdent"`
}

type RetInstr struct {
	Void bool          `parser:"\"ret\" ( @\"void\""`
	Val  *TypedOperand `parser:"| @@ )"`
}
