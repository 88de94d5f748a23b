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

import (
	"fmt"

	"github.com/alecthomas/participle/v2"
	"github.com/cloudwego/riptide/internal/ir"
)

var parser = participle.MustBuild[File](
	participle.Lexer(irLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(3),
)

// ParseString parses source into a fresh module. Non-phi operands must
// be defined before use in block layout order; phi incomings and branch
// targets may reference forward.
func ParseString(path string, source string) (*ir.Module, error) {
	file, err := parser.ParseString(path, source)
	if err != nil {
		return nil, err
	}
	return resolve(path, file)
}

var typeNames = map[string]*ir.Type{
	"void": ir.Void,
	"i1":   ir.I1,
	"i8":   ir.I8,
	"i16":  ir.I16,
	"i32":  ir.I32,
	"i64":  ir.I64,
	"f32":  ir.F32,
	"f64":  ir.F64,
}

var binOps = map[string]ir.Op{
	"add": ir.OpAdd, "sub": ir.OpSub, "mul": ir.OpMul,
	"sdiv": ir.OpSDiv, "udiv": ir.OpUDiv, "srem": ir.OpSRem,
	"and": ir.OpAnd, "or": ir.OpOr, "xor": ir.OpXor,
	"shl": ir.OpShl, "lshr": ir.OpLShr, "ashr": ir.OpAShr,
	"fadd": ir.OpFAdd, "fsub": ir.OpFSub, "fmul": ir.OpFMul, "fdiv": ir.OpFDiv,
}

var castOps = map[string]ir.Op{
	"trunc": ir.OpTrunc, "zext": ir.OpZExt, "sext": ir.OpSExt,
	"bitcast": ir.OpBitCast, "fptrunc": ir.OpFPTrunc, "fpext": ir.OpFPExt,
	"sitofp": ir.OpSIToFP, "fptosi": ir.OpFPToSI,
}

var predicates = map[string]ir.Predicate{
	"eq": ir.CmpEQ, "ne": ir.CmpNE,
	"slt": ir.CmpSLT, "sle": ir.CmpSLE, "sgt": ir.CmpSGT, "sge": ir.CmpSGE,
	"ult": ir.CmpULT, "ule": ir.CmpULE, "ugt": ir.CmpUGT, "uge": ir.CmpUGE,
	"oeq": ir.CmpOEQ, "one": ir.CmpONE,
	"olt": ir.CmpOLT, "ole": ir.CmpOLE, "ogt": ir.CmpOGT, "oge": ir.CmpOGE,
}

func resolveType(t *TypeRef) (*ir.Type, error) {
	base, ok := typeNames[t.Name]
	if !ok {
		return nil, fmt.Errorf("irtext: unknown type %q", t.Name)
	}
	for range t.Stars {
		base = ir.PtrTo(base)
	}
	return base, nil
}

// phiFixup defers one phi incoming pair until every value of the
// function is known.
type phiFixup struct {
	phi *ir.Instr
	ty  *ir.Type
	val *Operand
	blk string
}

type resolver struct {
	mod    *ir.Module
	b      *ir.Builder
	fn     *ir.Function
	values map[string]ir.Value
	fixups []phiFixup
}

func resolve(path string, file *File) (*ir.Module, error) {
	r := &resolver{
		mod: ir.NewModule(path),
	}
	r.b = ir.NewBuilder(r.mod)

	/* declarations and function shells first, calls may reference any
	 * function in the file */
	for _, d := range file.Decls {
		switch {
		case d.Declare != nil:
			if err := r.declare(d.Declare); err != nil {
				return nil, err
			}
		case d.Func != nil:
			if err := r.shell(d.Func); err != nil {
				return nil, err
			}
		}
	}

	/* now the bodies */
	for _, d := range file.Decls {
		if d.Func != nil {
			if err := r.body(d.Func); err != nil {
				return nil, err
			}
		}
	}
	return r.mod, nil
}

func params(defs []*ParamDef) ([]ir.Param, error) {
	ret := make([]ir.Param, 0, len(defs))
	for i, p := range defs {
		ty, err := resolveType(p.Ty)
		if err != nil {
			return nil, err
		}

		/* declarations may leave parameters unnamed */
		name := fmt.Sprintf("arg%d", i)
		if p.Name != "" {
			name = p.Name[1:]
		}
		ret = append(ret, ir.Param{Name: name, Ty: ty})
	}
	return ret, nil
}

func (r *resolver) declare(d *DeclareDef) error {
	ret, err := resolveType(d.Ret)
	if err != nil {
		return err
	}
	ps, err := params(d.Params)
	if err != nil {
		return err
	}
	r.mod.NewDeclaration(d.Name[1:], ret, ps...)
	return nil
}

func (r *resolver) shell(d *FuncDef) error {
	ret, err := resolveType(d.Ret)
	if err != nil {
		return err
	}
	ps, err := params(d.Params)
	if err != nil {
		return err
	}
	fn := r.mod.NewFunction(d.Name[1:], ret, ps...)
	for _, bb := range d.Blocks {
		if fn.BlockByName(bb.Label) != nil {
			return fmt.Errorf("irtext: @%s: duplicate label %q", fn.Name, bb.Label)
		}
		fn.NewBlock(bb.Label)
	}
	return nil
}

func (r *resolver) body(d *FuncDef) error {
	r.fn = r.mod.FindFunc(d.Name[1:])
	r.b.SetFunc(r.fn)
	r.values = make(map[string]ir.Value)
	r.fixups = r.fixups[:0]
	for _, a := range r.fn.Args {
		r.values["%"+a.Id] = a
	}
	for _, bb := range d.Blocks {
		r.b.SetBlock(r.fn.BlockByName(bb.Label))
		for _, p := range bb.Ins {
			if err := r.instr(p); err != nil {
				return fmt.Errorf("irtext: @%s: %w", r.fn.Name, err)
			}
		}
	}

	/* all names are known now, fill the phis */
	for _, fx := range r.fixups {
		bb := r.fn.BlockByName(fx.blk[1:])
		if bb == nil {
			return fmt.Errorf("irtext: @%s: phi references unknown label %q", r.fn.Name, fx.blk)
		}
		v, err := r.operand(fx.ty, fx.val)
		if err != nil {
			return fmt.Errorf("irtext: @%s: %w", r.fn.Name, err)
		}
		fx.phi.AddIncoming(v, bb)
	}
	return nil
}

func (r *resolver) operand(ty *ir.Type, op *Operand) (ir.Value, error) {
	switch {
	case op.Local != "":
		v, ok := r.values[op.Local]
		if !ok {
			return nil, fmt.Errorf("use of undefined value %s", op.Local)
		}
		return v, nil
	case op.Float != nil:
		return r.mod.ConstFloat(ty, *op.Float), nil
	case op.Int != nil:
		return r.mod.ConstInt(ty, *op.Int), nil
	default:
		return nil, fmt.Errorf("empty operand")
	}
}

func (r *resolver) typed(op *TypedOperand) (ir.Value, error) {
	ty, err := resolveType(op.Ty)
	if err != nil {
		return nil, err
	}
	return r.operand(ty, op.V)
}

func (r *resolver) define(name string, v *ir.Instr) {
	v.Id = name[1:]
	r.values[name] = v
}

func (r *resolver) instr(p *InstrDef) error {
	switch {
	case p.Assign != nil:
		return r.assign(p.Assign)

	case p.Store != nil:
		val, err := r.typed(p.Store.Val)
		if err != nil {
			return err
		}
		ptr, err := r.typed(p.Store.Ptr)
		if err != nil {
			return err
		}
		r.b.Store(val, ptr)
		return nil

	case p.Goto != nil:
		bb := r.fn.BlockByName(p.Goto.Dst[1:])
		if bb == nil {
			return fmt.Errorf("branch to unknown label %q", p.Goto.Dst)
		}
		r.b.Br(bb)
		return nil

	case p.CondBr != nil:
		cond, err := r.typed(p.CondBr.Cond)
		if err != nil {
			return err
		}
		t := r.fn.BlockByName(p.CondBr.True[1:])
		f := r.fn.BlockByName(p.CondBr.False[1:])
		if t == nil || f == nil {
			return fmt.Errorf("branch to unknown label")
		}
		r.b.CondBr(cond, t, f)
		return nil

	case p.Ret != nil:
		if p.Ret.Void {
			r.b.Ret(nil)
			return nil
		}
		v, err := r.typed(p.Ret.Val)
		if err != nil {
			return err
		}
		r.b.Ret(v)
		return nil

	case p.Call != nil:
		_, err := r.call(p.Call.Call)
		return err

	default:
		return fmt.Errorf("empty instruction")
	}
}

func (r *resolver) call(c *CallRhs) (*ir.Instr, error) {
	fn := r.mod.FindFunc(c.Name[1:])
	if fn == nil {
		return nil, fmt.Errorf("call to unknown function %s", c.Name)
	}
	args := make([]ir.Value, 0, len(c.Args))
	for _, a := range c.Args {
		v, err := r.typed(a)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return r.b.Call(fn, args...), nil
}

func (r *resolver) assign(a *AssignInstr) error {
	switch {
	case a.Bin != nil:
		ty, err := resolveType(a.Bin.Ty)
		if err != nil {
			return err
		}
		x, err := r.operand(ty, a.Bin.X)
		if err != nil {
			return err
		}
		y, err := r.operand(ty, a.Bin.Y)
		if err != nil {
			return err
		}
		r.define(a.Name, r.b.Binary(binOps[a.Bin.Op], x, y))
		return nil

	case a.Cmp != nil:
		pred, ok := predicates[a.Cmp.Pred]
		if !ok {
			return fmt.Errorf("unknown predicate %q", a.Cmp.Pred)
		}
		ty, err := resolveType(a.Cmp.Ty)
		if err != nil {
			return err
		}
		x, err := r.operand(ty, a.Cmp.X)
		if err != nil {
			return err
		}
		y, err := r.operand(ty, a.Cmp.Y)
		if err != nil {
			return err
		}
		var p *ir.Instr
		if a.Cmp.Kind == "icmp" {
			p = r.b.ICmp(pred, x, y)
		} else {
			p = r.b.FCmp(pred, x, y)
		}
		r.define(a.Name, p)
		return nil

	case a.Load != nil:
		ty, err := resolveType(a.Load.Ty)
		if err != nil {
			return err
		}
		ptr, err := r.typed(a.Load.Ptr)
		if err != nil {
			return err
		}
		r.define(a.Name, r.b.Load(ty, ptr))
		return nil

	case a.Phi != nil:
		ty, err := resolveType(a.Phi.Ty)
		if err != nil {
			return err
		}
		p := r.b.Phi(ty)
		r.define(a.Name, p)
		for _, in := range a.Phi.Incoming {
			r.fixups = append(r.fixups, phiFixup{phi: p, ty: ty, val: in.V, blk: in.Blk})
		}
		return nil

	case a.Sel != nil:
		cond, err := r.typed(a.Sel.Cond)
		if err != nil {
			return err
		}
		x, err := r.typed(a.Sel.IfTrue)
		if err != nil {
			return err
		}
		y, err := r.typed(a.Sel.IfFalse)
		if err != nil {
			return err
		}
		r.define(a.Name, r.b.Select(cond, x, y))
		return nil

	case a.Gep != nil:
		elem, err := resolveType(a.Gep.Elem)
		if err != nil {
			return err
		}
		base, err := r.typed(a.Gep.Base)
		if err != nil {
			return err
		}
		index := make([]ir.Value, 0, len(a.Gep.Index))
		for _, ix := range a.Gep.Index {
			v, err := r.typed(ix)
			if err != nil {
				return err
			}
			index = append(index, v)
		}
		r.define(a.Name, r.b.GEP(elem, base, index...))
		return nil

	case a.Cast != nil:
		src, err := r.typed(a.Cast.Src)
		if err != nil {
			return err
		}
		ty, err := resolveType(a.Cast.Ty)
		if err != nil {
			return err
		}
		r.define(a.Name, r.b.Cast(castOps[a.Cast.Op], src, ty))
		return nil

	case a.Call != nil:
		p, err := r.call(a.Call)
		if err != nil {
			return err
		}
		r.define(a.Name, p)
		return nil

	default:
		return fmt.Errorf("empty assignment")
	}
}
