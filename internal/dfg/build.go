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

import (
    `fmt`

    `github.com/cloudwego/riptide/internal/ir`
    `github.com/cloudwego/riptide/internal/lso`
)

// Options tunes the build. MemDepEdges additionally links each load to
// the most recent store node in build order. The token chain alone
// already serializes memory, so this stays off unless a mapper wants
// the extra edges; a real replacement needs alias information.
type Options struct {
    MemDepEdges bool
}

type _SteerPair struct {
    t *Node
    f *Node
}

// _EntryStream keys the per-function activation token source in the
// value map. It is not an IR value the function ever sees.
type _EntryStream struct {
    fn *ir.Function
}

func (self *_EntryStream) Type() *ir.Type { return ir.I1 }
func (self *_EntryStream) Ref() string    { return "entry.stream" }
func (self *_EntryStream) String() string { return "entry.stream" }

// Builder lowers one function. The phases run strictly in order, each
// relies on the node population of the ones before it.
type Builder struct {
    g      *Graph
    fn     *ir.Function
    loops  *ir.LoopInfo
    stream *Node
    sentin *_EntryStream
    steers map[*ir.Instr]*_SteerPair
}

// Build constructs the dataflow graph of one function definition.
func Build(fn *ir.Function, opts Options) (*Graph, error) {
    if fn.Decl {
        return nil, fmt.Errorf("dfg: @%s is a declaration", fn.Name)
    }
    if err := ir.VerifyFunc(fn); err != nil {
        return nil, err
    }

    /* loop structure drives the merge / carry split */
    loops, err := ir.AnalyzeLoops(fn)
    if err != nil {
        return nil, err
    }

    /* construct the builder state */
    b := &Builder {
        g      : NewGraph(),
        fn     : fn,
        loops  : loops,
        sentin : &_EntryStream { fn: fn },
        steers : make(map[*ir.Instr]*_SteerPair),
    }

    /* the phases exchange invariants, the order is load-bearing */
    b.classify()
    b.branchSteers()
    b.selectSteers()
    b.dataDeps()
    b.phiNodes()
    b.argFanout()
    if opts.MemDepEdges {
        b.memDepEdges()
    }
    return b.g, nil
}

// entryStream lazily creates the single activation token source that
// gates every branch steer of the function.
func (self *Builder) entryStream() *Node {
    if self.stream == nil {
        self.stream = self.g.AddNode(OpStream, self.sentin, "STR")
    }
    return self.stream
}

var _BinSymbols = map[ir.Op]string {
    ir.OpAdd  : "+",
    ir.OpFAdd : "+",
    ir.OpSub  : "-",
    ir.OpFSub : "-",
    ir.OpMul  : "*",
    ir.OpFMul : "*",
    ir.OpSDiv : "/",
    ir.OpUDiv : "/",
    ir.OpFDiv : "/",
    ir.OpSRem : "%",
    ir.OpAnd  : "&",
    ir.OpOr   : "|",
    ir.OpXor  : "^",
    ir.OpShl  : "<<",
    ir.OpLShr : ">>",
    ir.OpAShr : ">>",
}

var _CmpSymbols = map[ir.Predicate]string {
    ir.CmpEQ  : "==",
    ir.CmpNE  : "!=",
    ir.CmpSLT : "<",
    ir.CmpSLE : "<=",
    ir.CmpSGT : ">",
    ir.CmpSGE : ">=",
    ir.CmpULT : "<",
    ir.CmpULE : "<=",
    ir.CmpUGT : ">",
    ir.CmpUGE : ">=",
}

func cmpSymbol(p *ir.Instr) string {
    if p.Op == ir.OpICmp {
        if s, ok := _CmpSymbols[p.Pred]; ok {
            return s
        }
    }
    return p.Pred.String()
}

// classify walks every instruction and commits an operator kind for
// everything that becomes a node. Selects, address arithmetic, casts
// and conditional branches are handled by their own phases.
func (self *Builder) classify() {
    for _, bb := range self.fn.Blocks {
        for _, p := range bb.Ins {
            if p.Op == ir.OpSelect || p.Op == ir.OpGetElementPtr || p.Op.IsCast() || p.Op == ir.OpCondBr {
                continue
            }

            /* unconditional branches yield no node either */
            n := self.g.GetOrAdd(p)
            if n == nil {
                continue
            }

            /* commit kind, label and symbol */
            switch {
                case p.Op.IsBinary(): {
                    n.Kind = OpBasicBinaryOp
                    n.Label = p.Op.String()
                    n.Symbol = _BinSymbols[p.Op]
                }

                case p.Op.IsCompare(): {
                    n.Kind = OpBasicBinaryOp
                    n.Label = p.Op.String()
                    n.Symbol = cmpSymbol(p)
                }

                case p.Op == ir.OpLoad: {
                    n.Kind = OpLoad
                    n.Label = "ld"
                }

                case p.Op == ir.OpStore: {
                    n.Kind = OpStore
                    n.Label = "st"
                }

                /* phis default to merges, the phi phase may retag
                 * loop-header ones as carries */
                case p.Op == ir.OpPhi: {
                    n.Kind = OpMerge
                    n.Label = "M"
                }

                case p.Op == ir.OpCall: {
                    if lso.IsLoadIntrinsic(p.Callee) {
                        n.Kind = OpLoad
                        n.Label = "ld"
                    } else if lso.IsStoreIntrinsic(p.Callee) {
                        n.Kind = OpStore
                        n.Label = "st"
                    } else {
                        n.Kind = OpBasicBinaryOp
                        n.Label = "call"
                    }
                }

                case p.Op == ir.OpRet: {
                    n.Kind = OpFunctionOutput
                    n.Label = "ret"
                }
            }
        }
    }

    /* function arguments */
    for _, a := range self.fn.Args {
        self.g.GetOrAdd(a)
    }

    /* literal operands */
    for _, bb := range self.fn.Blocks {
        for _, p := range bb.Ins {
            for _, v := range p.Args {
                if ir.IsConst(v) {
                    self.g.GetOrAdd(v)
                }
            }
        }
    }
}

// firstMeaningful finds the successor instruction a steer output can
// anchor to, looking past phis and plumbing.
func firstMeaningful(bb *ir.Block) *ir.Instr {
    for _, p := range bb.Ins {
        if p.Op == ir.OpPhi || p.Op == ir.OpGetElementPtr || p.Op.IsCast() {
            continue
        }
        return p
    }
    return nil
}

// branchSteers materializes a TrueSteer / FalseSteer pair per
// conditional branch, gated by the entry stream token.
func (self *Builder) branchSteers() {
    for _, bb := range self.fn.Blocks {
        tr := bb.Term()
        if tr == nil || tr.Op != ir.OpCondBr {
            continue
        }

        /* the condition must be committed before it can be a source */
        cond := tr.Args[0]
        if cn := self.g.GetOrAdd(cond); cn != nil && cn.Kind == OpUnknown {
            cn.Kind = OpBasicBinaryOp
        }

        /* steer pair with the condition as decider */
        t := self.g.AddNode(OpTrueSteer, nil, "T")
        f := self.g.AddNode(OpFalseSteer, nil, "F")
        self.g.WireValueTo(cond, t)
        self.g.WireValueTo(cond, f)

        /* the stream token is the data input being gated */
        s := self.entryStream()
        self.g.AddEdge(s, t)
        self.g.AddEdge(s, f)

        /* anchor each steer in its successor block */
        if p := firstMeaningful(tr.Blocks[0]); p != nil {
            if d := self.g.GetOrAdd(p); d != nil {
                self.g.AddEdge(t, d)
            }
        }
        if p := firstMeaningful(tr.Blocks[1]); p != nil {
            if d := self.g.GetOrAdd(p); d != nil {
                self.g.AddEdge(f, d)
            }
        }
        self.steers[tr] = &_SteerPair { t: t, f: f }
    }
}

// selectSteers lowers selects into steer pairs on their condition. The
// select itself never becomes a node, both steers feed every user.
func (self *Builder) selectSteers() {
    for _, bb := range self.fn.Blocks {
        for _, p := range bb.Ins {
            if p.Op != ir.OpSelect {
                continue
            }
            cond := p.Args[0]
            if cn := self.g.GetOrAdd(cond); cn != nil && cn.Kind == OpUnknown {
                cn.Kind = OpBasicBinaryOp
            }
            t := self.g.AddNode(OpTrueSteer, nil, "T")
            f := self.g.AddNode(OpFalseSteer, nil, "F")
            self.g.WireValueTo(cond, t)
            self.g.WireValueTo(cond, f)
            self.g.WireValueTo(p.Args[1], t)
            self.g.WireValueTo(p.Args[2], f)
            for _, u := range p.Users() {
                if d := self.g.FindNode(u); d != nil {
                    self.g.AddEdge(t, d)
                    self.g.AddEdge(f, d)
                }
            }
        }
    }
}

// dataDeps wires operand and user edges for everything the earlier
// phases did not claim.
func (self *Builder) dataDeps() {
    for _, bb := range self.fn.Blocks {
        for _, p := range bb.Ins {
            switch {
                /* loads: address plus token, users wired below */
                case p.Op == ir.OpLoad || (p.Op == ir.OpCall && lso.IsLoadIntrinsic(p.Callee)): {
                    if n := self.g.FindNode(p); n != nil {
                        for _, a := range p.Args {
                            self.g.WireValueTo(a, n)
                        }
                    }
                }

                /* stores: address, value and token, nothing flows out */
                case p.Op == ir.OpStore || (p.Op == ir.OpCall && lso.IsStoreIntrinsic(p.Callee)): {
                    if n := self.g.FindNode(p); n != nil {
                        for _, a := range p.Args {
                            self.g.WireValueTo(a, n)
                        }
                    }
                    if p.Op == ir.OpStore {
                        continue
                    }
                }

                /* plumbing: forward the operands into every user */
                case p.Op == ir.OpGetElementPtr: {
                    for _, u := range p.Users() {
                        if d := self.g.FindNode(u); d != nil {
                            for _, a := range p.Args {
                                self.g.WireValueTo(a, d)
                            }
                        }
                    }
                    continue
                }

                case p.Op.IsCast(): {
                    for _, u := range p.Users() {
                        if d := self.g.FindNode(u); d != nil {
                            self.g.WireValueTo(p.Args[0], d)
                        }
                    }
                    continue
                }
            }

            /* literal operands feed the node directly */
            if n := self.g.FindNode(p); n != nil {
                for _, a := range p.Args {
                    if ir.IsConst(a) {
                        self.g.AddEdge(self.g.GetOrAdd(a), n)
                    }
                }
            }

            /* control flow contributes no value edges here */
            if p.Op == ir.OpBr || p.Op == ir.OpCondBr || p.Op == ir.OpPhi || p.Op == ir.OpSelect {
                continue
            }

            /* definition-to-use edges */
            n := self.g.FindNode(p)
            if n == nil {
                continue
            }
            for _, u := range p.Users() {
                d := self.g.FindNode(u)
                if d == nil {
                    continue
                }

                /* phi inputs go through the steers, and a comparison
                 * already reaches its steers as the decider */
                if u.Op == ir.OpPhi {
                    continue
                }
                if p.Op.IsCompare() && (d.Kind == OpTrueSteer || d.Kind == OpFalseSteer) {
                    continue
                }
                self.g.AddEdge(n, d)
            }
        }
    }
}

// phiNodes resolves every phi into a Merge or a Carry.
func (self *Builder) phiNodes() {
    for _, bb := range self.fn.Blocks {
        for _, p := range bb.Phis() {
            n := self.g.FindNode(p)
            if n == nil {
                n = self.g.AddNode(OpMerge, p, "M")
            }

            /* a phi at a loop header fed from inside the loop carries
             * a value across iterations */
            carried := false
            if lp := self.loops.LoopOf(bb); lp != nil && lp.Header == bb {
                for _, in := range p.Incoming {
                    if lp.Contains(in) {
                        carried = true
                        break
                    }
                }
            }
            if carried {
                self.wireCarry(p, n, self.loops.LoopOf(bb))
            } else {
                self.wireMerge(p, n)
            }

            /* fan the result out to the users */
            for _, u := range p.Users() {
                if d := self.g.FindNode(u); d != nil {
                    self.g.AddEdge(n, d)
                }
            }
        }
    }
}

// wireMerge routes each incoming value through the steer of the branch
// that decides the path, and wires that branch's condition in as the
// decider. The deciding branch is the predecessor's own terminator, or
// one block up when the predecessor merely falls through from it.
func (self *Builder) wireMerge(p *ir.Instr, n *Node) {
    for i, v := range p.Args {
        pred := p.Incoming[i]
        tr := pred.Term()

        /* the branch picking this path, and the block it picks */
        sp := (*_SteerPair)(nil)
        br := (*ir.Instr)(nil)
        taken := p.Parent()
        if tr != nil && tr.Op == ir.OpCondBr {
            sp = self.steers[tr]
            br = tr
        } else if tr != nil && tr.Op == ir.OpBr && len(pred.Pred) == 1 {
            if up := pred.Pred[0].Term(); up != nil && up.Op == ir.OpCondBr {
                sp = self.steers[up]
                br = up
                taken = pred
            }
        }

        /* plain fall-through edge */
        if sp == nil {
            self.g.WireValueTo(v, n)
            continue
        }

        /* route through the steer matching the taken edge */
        s := sp.f
        if br.Blocks[0] == taken {
            s = sp.t
        }
        self.g.WireValueTo(v, s)
        self.g.AddEdge(s, n)
        self.g.WireValueTo(br.Args[0], n)
    }
}

// wireCarry retags the node as a Carry, wires the loop decider and
// every incoming value, and drops the redundant initial constant when
// the decider comparison already carries the same literal.
func (self *Builder) wireCarry(p *ir.Instr, n *Node, lp *ir.Loop) {
    n.Kind = OpCarry
    n.Label = "C"

    /* the decider is the loop-exit condition: prefer the branch that
     * enters through the preheader, fall back to the exiting block */
    var cond ir.Value
    if ph := lp.Preheader(); ph != nil {
        if tr := ph.Term(); tr != nil && tr.Op == ir.OpCondBr {
            cond = tr.Args[0]
        }
    }
    if cond == nil {
        if ex := lp.ExitingBlock(); ex != nil {
            if tr := ex.Term(); tr != nil && tr.Op == ir.OpCondBr {
                cond = tr.Args[0]
            }
        }
    }
    if cond != nil {
        self.g.WireValueTo(cond, n)
    }

    /* incoming values, initial and loop-carried alike */
    for _, v := range p.Args {
        self.g.WireValueTo(v, n)
    }

    /* an initial constant equal to the literal of the decider
     * comparison is already captured by the comparison itself; the
     * guard is literal equality, never node identity */
    cmp, ok := cond.(*ir.Instr)
    if !ok || !cmp.Op.IsCompare() {
        return
    }
    var lit *ir.ConstInt
    for _, a := range cmp.Args {
        if c, isc := a.(*ir.ConstInt); isc {
            lit = c
        }
    }
    if lit == nil {
        return
    }
    for _, v := range p.Args {
        if c, isc := v.(*ir.ConstInt); isc && c.V == lit.V && c.Ty.Equal(lit.Ty) {
            if dup := self.g.FindNode(c); dup != nil {
                self.g.RemoveNode(dup)
            }
        }
    }
}

// argFanout connects every function input to its users.
func (self *Builder) argFanout() {
    for _, a := range self.fn.Args {
        for _, u := range a.Users() {
            self.g.WireValueTo(a, self.g.GetOrAdd(u))
        }
    }
}

// memDepEdges links loads to the most recent store in build order.
// Purely positional, kept behind Options.MemDepEdges until an
// alias-aware chain replaces it.
func (self *Builder) memDepEdges() {
    var last *Node
    for _, n := range self.g.Nodes {
        if n.Kind == OpStore {
            last = n
        } else if n.Kind == OpLoad && last != nil {
            self.g.AddEdge(last, n)
        }
    }
}
