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
    `testing`

    `github.com/cloudwego/riptide/internal/ir`
    `github.com/cloudwego/riptide/internal/lso`
    `github.com/stretchr/testify/require`
)

// checkGraph asserts the structural invariants every build must hold.
func checkGraph(t *testing.T, g *Graph) {
    nodes := make(map[*Node]bool, len(g.Nodes))
    for _, n := range g.Nodes {
        nodes[n] = true
    }

    /* edge endpoints are owned and cross-linked */
    seen := make(map[[2]*Node]bool, len(g.Edges))
    for _, e := range g.Edges {
        require.True(t, nodes[e.Src])
        require.True(t, nodes[e.Dst])
        require.Contains(t, e.Src.Out, e)
        require.Contains(t, e.Dst.In, e)
        require.False(t, seen[[2]*Node { e.Src, e.Dst }], "duplicate edge")
        seen[[2]*Node { e.Src, e.Dst }] = true
    }

    /* node edge lists only hold owned edges */
    edges := make(map[*Edge]bool, len(g.Edges))
    for _, e := range g.Edges {
        edges[e] = true
    }
    for _, n := range g.Nodes {
        for _, e := range n.In {
            require.True(t, edges[e])
            require.Equal(t, n, e.Dst)
        }
        for _, e := range n.Out {
            require.True(t, edges[e])
            require.Equal(t, n, e.Src)
        }
    }

    /* no transitional or plumbing nodes survive */
    for _, n := range g.Nodes {
        require.NotEqual(t, OpUnknown, n.Kind, "Unknown node in final graph: %s", n)
        if p, ok := n.Val.(*ir.Instr); ok {
            require.NotEqual(t, ir.OpBr, p.Op)
            require.NotEqual(t, ir.OpCondBr, p.Op)
            require.NotEqual(t, ir.OpSelect, p.Op)
            require.NotEqual(t, ir.OpGetElementPtr, p.Op)
            require.False(t, p.Op.IsCast())
        }
    }
}

func kindNodes(g *Graph, k OpKind) []*Node {
    var ret []*Node
    for _, n := range g.Nodes {
        if n.Kind == k {
            ret = append(ret, n)
        }
    }
    return ret
}

func nodeOf(t *testing.T, g *Graph, v ir.Value) *Node {
    n := g.FindNode(v)
    require.NotNil(t, n)
    return n
}

// Scenario: return a+b. Two inputs into one adder, nothing steered.
func TestBuild_StraightAdd(t *testing.T) {
    mod := ir.NewModule("t")
    b := ir.NewBuilder(mod)
    fn := b.Function("f", ir.I32, ir.Param { Name: "a", Ty: ir.I32 }, ir.Param { Name: "b", Ty: ir.I32 })
    sum := b.Add(b.Arg(0), b.Arg(1))
    b.Ret(sum)

    g, err := Build(fn, Options{})
    require.NoError(t, err)
    checkGraph(t, g)

    adds := kindNodes(g, OpBasicBinaryOp)
    require.Equal(t, 1, len(adds))
    require.Equal(t, "+", adds[0].Symbol)
    require.True(t, hasEdge(g, nodeOf(t, g, fn.Args[0]), adds[0]))
    require.True(t, hasEdge(g, nodeOf(t, g, fn.Args[1]), adds[0]))

    require.Empty(t, kindNodes(g, OpTrueSteer))
    require.Empty(t, kindNodes(g, OpFalseSteer))
    require.Empty(t, kindNodes(g, OpMerge))
    require.Empty(t, kindNodes(g, OpCarry))
    require.Empty(t, kindNodes(g, OpStream))
}

// Scenario: return (a>0) ? a : -a. A select lowers to one steer pair
// on the comparison, both feeding the return. No merge appears.
func TestBuild_Select(t *testing.T) {
    mod := ir.NewModule("t")
    b := ir.NewBuilder(mod)
    fn := b.Function("f", ir.I32, ir.Param { Name: "a", Ty: ir.I32 })
    cmp := b.ICmp(ir.CmpSGT, b.Arg(0), b.Int(ir.I32, 0))
    neg := b.Sub(b.Int(ir.I32, 0), b.Arg(0))
    sel := b.Select(cmp, b.Arg(0), neg)
    b.Ret(sel)

    g, err := Build(fn, Options{})
    require.NoError(t, err)
    checkGraph(t, g)

    ts := kindNodes(g, OpTrueSteer)
    fs := kindNodes(g, OpFalseSteer)
    require.Equal(t, 1, len(ts))
    require.Equal(t, 1, len(fs))
    require.Empty(t, kindNodes(g, OpMerge))
    require.Nil(t, g.FindNode(sel))

    /* the comparison decides both steers */
    cn := nodeOf(t, g, cmp)
    require.Equal(t, ">", cn.Symbol)
    require.True(t, hasEdge(g, cn, ts[0]))
    require.True(t, hasEdge(g, cn, fs[0]))

    /* data inputs: a into the true steer, -a into the false steer */
    require.True(t, hasEdge(g, nodeOf(t, g, fn.Args[0]), ts[0]))
    require.True(t, hasEdge(g, nodeOf(t, g, neg), fs[0]))

    /* both steers feed the return sink */
    retn := nodeOf(t, g, fn.Entry().Term())
    require.Equal(t, OpFunctionOutput, retn.Kind)
    require.True(t, hasEdge(g, ts[0], retn))
    require.True(t, hasEdge(g, fs[0], retn))
}

// buildLoopStoreFn constructs for(i=0;i<n;i++) A[i]=A[i]+i and runs
// the memory-ordering rewrite over it.
func buildLoopStoreFn(t *testing.T) (*ir.Module, *ir.Function, *ir.Instr, *ir.Instr) {
    mod := ir.NewModule("t")
    b := ir.NewBuilder(mod)
    fn := b.Function("f", ir.Void,
        ir.Param { Name: "A", Ty: ir.PtrTo(ir.I32) },
        ir.Param { Name: "n", Ty: ir.I32 })
    header := b.NewBlock("header")
    body := b.NewBlock("body")
    exit := b.NewBlock("exit")
    b.Br(header)
    b.SetBlock(header)
    i := b.Phi(ir.I32)
    cmp := b.ICmp(ir.CmpSLT, i, b.Arg(1))
    b.CondBr(cmp, body, exit)
    b.SetBlock(body)
    addr := b.GEP(ir.I32, b.Arg(0), i)
    v := b.Load(ir.I32, addr)
    sum := b.Add(v, i)
    b.Store(sum, addr)
    next := b.Add(i, b.Int(ir.I32, 1))
    b.Br(header)
    b.SetBlock(exit)
    b.Ret(nil)
    i.AddIncoming(b.Int(ir.I32, 0), fn.Entry())
    i.AddIncoming(next, body)
    require.NoError(t, ir.VerifyFunc(fn))
    require.NoError(t, lso.NewPass(mod).Apply())
    return mod, fn, i, cmp
}

// Scenario: the counted store loop. The induction phi becomes a Carry
// decided by the exit comparison, the stream gates the header steers,
// address arithmetic stays invisible, and the load and store hang off
// the memory-token chain.
func TestBuild_CountedLoop(t *testing.T) {
    _, fn, i, cmp := buildLoopStoreFn(t)
    g, err := Build(fn, Options{})
    require.NoError(t, err)
    checkGraph(t, g)

    /* the induction variable is loop-carried */
    in := nodeOf(t, g, i)
    require.Equal(t, OpCarry, in.Kind)
    cn := nodeOf(t, g, cmp)
    require.True(t, hasEdge(g, cn, in), "carry has no decider edge")

    /* one steer pair on the loop branch, gated by the stream */
    ts := kindNodes(g, OpTrueSteer)
    fs := kindNodes(g, OpFalseSteer)
    require.Equal(t, 1, len(ts))
    require.Equal(t, 1, len(fs))
    streams := kindNodes(g, OpStream)
    require.Equal(t, 1, len(streams))
    require.True(t, hasEdge(g, streams[0], ts[0]))
    require.True(t, hasEdge(g, streams[0], fs[0]))
    require.True(t, hasEdge(g, cn, ts[0]))
    require.True(t, hasEdge(g, cn, fs[0]))

    /* no address arithmetic in the graph */
    for _, n := range g.Nodes {
        if p, ok := n.Val.(*ir.Instr); ok {
            require.NotEqual(t, ir.OpGetElementPtr, p.Op)
        }
    }

    /* the store feeds the header token carry, which reaches the load
     * through the body token merge */
    lds := kindNodes(g, OpLoad)
    sts := kindNodes(g, OpStore)
    require.Equal(t, 1, len(lds))
    require.Equal(t, 1, len(sts))
    carries := kindNodes(g, OpCarry)
    require.Equal(t, 2, len(carries), "induction and token phis both carry")
    var tok *Node
    for _, n := range carries {
        if n != in {
            tok = n
        }
    }
    require.NotNil(t, tok)
    require.True(t, hasEdge(g, sts[0], tok), "store token does not loop back")

    /* body and exit token phis merge, the body one reaches the load */
    merges := kindNodes(g, OpMerge)
    require.Equal(t, 2, len(merges))
    var bodyTok *Node
    for _, n := range merges {
        if hasEdge(g, n, lds[0]) {
            bodyTok = n
        }
    }
    require.NotNil(t, bodyTok)
    require.True(t, hasEdge(g, tok, bodyTok))
    require.True(t, hasEdge(g, bodyTok, sts[0]))
}

// Scenario: if(c) return x+1 else return y+1, merged at the join. The
// increments are gated by the steers of the branch and the merge takes
// the condition as its decider.
func TestBuild_DiamondMerge(t *testing.T) {
    mod := ir.NewModule("t")
    b := ir.NewBuilder(mod)
    fn := b.Function("f", ir.I32,
        ir.Param { Name: "c", Ty: ir.I32 },
        ir.Param { Name: "x", Ty: ir.I32 },
        ir.Param { Name: "y", Ty: ir.I32 })
    then := b.NewBlock("then")
    els := b.NewBlock("else")
    join := b.NewBlock("join")
    cmp := b.ICmp(ir.CmpNE, b.Arg(0), b.Int(ir.I32, 0))
    b.CondBr(cmp, then, els)
    b.SetBlock(then)
    xi := b.Add(b.Arg(1), b.Int(ir.I32, 1))
    b.Br(join)
    b.SetBlock(els)
    yi := b.Add(b.Arg(2), b.Int(ir.I32, 1))
    b.Br(join)
    b.SetBlock(join)
    m := b.Phi(ir.I32)
    m.AddIncoming(xi, then)
    m.AddIncoming(yi, els)
    b.Ret(m)

    g, err := Build(fn, Options{})
    require.NoError(t, err)
    checkGraph(t, g)

    /* the two increments are gated by the steer pair */
    ts := kindNodes(g, OpTrueSteer)
    fs := kindNodes(g, OpFalseSteer)
    require.Equal(t, 1, len(ts))
    require.Equal(t, 1, len(fs))
    xn := nodeOf(t, g, xi)
    yn := nodeOf(t, g, yi)
    require.True(t, hasEdge(g, ts[0], xn))
    require.True(t, hasEdge(g, fs[0], yn))

    /* the merge takes the condition as decider and the increments as
     * data, routed through the steers of the deciding branch */
    merges := kindNodes(g, OpMerge)
    require.Equal(t, 1, len(merges))
    mn := merges[0]
    require.Equal(t, mn, g.FindNode(m))
    cn := nodeOf(t, g, cmp)
    require.True(t, hasEdge(g, cn, mn), "merge has no decider edge")
    require.True(t, hasEdge(g, ts[0], mn))
    require.True(t, hasEdge(g, fs[0], mn))
    require.True(t, hasEdge(g, xn, ts[0]))
    require.True(t, hasEdge(g, yn, fs[0]))

    /* the merge result reaches the return */
    retn := nodeOf(t, g, join.Term())
    require.True(t, hasEdge(g, mn, retn))
}

// Scenario: A[m] = 1. One store, wired from the pointer, the index,
// the value and the entry token. Nothing is steered or merged.
func TestBuild_SingleStore(t *testing.T) {
    mod := ir.NewModule("t")
    b := ir.NewBuilder(mod)
    fn := b.Function("f", ir.Void,
        ir.Param { Name: "A", Ty: ir.PtrTo(ir.I32) },
        ir.Param { Name: "m", Ty: ir.I32 })
    addr := b.GEP(ir.I32, b.Arg(0), b.Arg(1))
    b.Store(b.Int(ir.I32, 1), addr)
    b.Ret(nil)
    require.NoError(t, lso.NewPass(mod).Apply())

    g, err := Build(fn, Options{})
    require.NoError(t, err)
    checkGraph(t, g)

    sts := kindNodes(g, OpStore)
    require.Equal(t, 1, len(sts))
    st := sts[0]
    require.True(t, hasEdge(g, nodeOf(t, g, fn.Args[0]), st))
    require.True(t, hasEdge(g, nodeOf(t, g, fn.Args[1]), st))
    require.True(t, hasEdge(g, nodeOf(t, g, mod.ConstInt(ir.I32, 1)), st))
    require.True(t, hasEdge(g, nodeOf(t, g, mod.ConstInt(ir.I1, 1)), st), "entry token missing")

    require.Empty(t, kindNodes(g, OpTrueSteer))
    require.Empty(t, kindNodes(g, OpFalseSteer))
    require.Empty(t, kindNodes(g, OpMerge))
    require.Empty(t, kindNodes(g, OpCarry))
}

// Scenario: nested counters. Each phi carries with its own loop's
// decider.
func TestBuild_NestedLoops(t *testing.T) {
    mod := ir.NewModule("t")
    b := ir.NewBuilder(mod)
    fn := b.Function("f", ir.Void,
        ir.Param { Name: "n", Ty: ir.I32 },
        ir.Param { Name: "m", Ty: ir.I32 })
    oh := b.NewBlock("oh")
    ipre := b.NewBlock("ipre")
    ih := b.NewBlock("ih")
    ibody := b.NewBlock("ibody")
    olatch := b.NewBlock("olatch")
    exit := b.NewBlock("exit")
    b.Br(oh)
    b.SetBlock(oh)
    i := b.Phi(ir.I32)
    ocmp := b.ICmp(ir.CmpSLT, i, b.Arg(0))
    b.CondBr(ocmp, ipre, exit)
    b.SetBlock(ipre)
    b.Br(ih)
    b.SetBlock(ih)
    j := b.Phi(ir.I32)
    icmp := b.ICmp(ir.CmpSLT, j, b.Arg(1))
    b.CondBr(icmp, ibody, olatch)
    b.SetBlock(ibody)
    jnext := b.Add(j, b.Int(ir.I32, 1))
    b.Br(ih)
    b.SetBlock(olatch)
    inext := b.Add(i, b.Int(ir.I32, 1))
    b.Br(oh)
    b.SetBlock(exit)
    b.Ret(nil)
    i.AddIncoming(b.Int(ir.I32, 0), fn.Entry())
    i.AddIncoming(inext, olatch)
    j.AddIncoming(b.Int(ir.I32, 0), ipre)
    j.AddIncoming(jnext, ibody)

    g, err := Build(fn, Options{})
    require.NoError(t, err)
    checkGraph(t, g)

    in := nodeOf(t, g, i)
    jn := nodeOf(t, g, j)
    require.Equal(t, OpCarry, in.Kind)
    require.Equal(t, OpCarry, jn.Kind)

    /* each carry is decided by its own loop's comparison */
    on := nodeOf(t, g, ocmp)
    nn := nodeOf(t, g, icmp)
    require.True(t, hasEdge(g, on, in))
    require.True(t, hasEdge(g, nn, jn))
    require.False(t, hasEdge(g, nn, in))
    require.False(t, hasEdge(g, on, jn))

    /* the carried increments loop back */
    require.True(t, hasEdge(g, nodeOf(t, g, inext), in))
    require.True(t, hasEdge(g, nodeOf(t, g, jnext), jn))

    /* two branches, two steer pairs on the stream */
    require.Equal(t, 2, len(kindNodes(g, OpTrueSteer)))
    require.Equal(t, 2, len(kindNodes(g, OpFalseSteer)))
    streams := kindNodes(g, OpStream)
    require.Equal(t, 1, len(streams))
    require.Equal(t, 4, len(streams[0].Out))
}

// The carry keeps its initial constant unless the decider comparison
// captures the same literal, in which case the node is dropped.
func TestBuild_CarryConstantDedup(t *testing.T) {
    build := func(limit int64) (*ir.Module, *Graph, *ir.Function, error) {
        mod := ir.NewModule("t")
        b := ir.NewBuilder(mod)
        fn := b.Function("f", ir.I32, ir.Param { Name: "n", Ty: ir.I32 })
        header := b.NewBlock("header")
        body := b.NewBlock("body")
        exit := b.NewBlock("exit")
        b.Br(header)
        b.SetBlock(header)
        i := b.Phi(ir.I32)
        cmp := b.ICmp(ir.CmpNE, i, b.Int(ir.I32, limit))
        b.CondBr(cmp, body, exit)
        b.SetBlock(body)
        next := b.Add(i, b.Int(ir.I32, 1))
        b.Br(header)
        b.SetBlock(exit)
        b.Ret(i)
        i.AddIncoming(b.Int(ir.I32, 0), fn.Entry())
        i.AddIncoming(next, body)
        g, err := Build(fn, Options{})
        return mod, g, fn, err
    }

    /* distinct literals: the zero node stays */
    mod, g, _, err := build(10)
    require.NoError(t, err)
    checkGraph(t, g)
    require.NotNil(t, g.FindNode(mod.ConstInt(ir.I32, 0)))

    /* equal literals: the comparison already captures the zero */
    mod, g, _, err = build(0)
    require.NoError(t, err)
    checkGraph(t, g)
    require.Nil(t, g.FindNode(mod.ConstInt(ir.I32, 0)))
}

func TestBuild_RejectsDeclarations(t *testing.T) {
    mod := ir.NewModule("t")
    decl := mod.NewDeclaration("ext", ir.I32)
    _, err := Build(decl, Options{})
    require.Error(t, err)
}

// Opaque calls become plain operator nodes fed by their operands.
func TestBuild_OpaqueCall(t *testing.T) {
    mod := ir.NewModule("t")
    ext := mod.NewDeclaration("ext", ir.I32, ir.Param { Name: "x", Ty: ir.I32 })
    b := ir.NewBuilder(mod)
    fn := b.Function("f", ir.I32, ir.Param { Name: "a", Ty: ir.I32 })
    c := b.Call(ext, b.Arg(0))
    v := b.Add(c, b.Int(ir.I32, 1))
    b.Ret(v)

    g, err := Build(fn, Options{})
    require.NoError(t, err)
    checkGraph(t, g)

    cn := nodeOf(t, g, c)
    require.Equal(t, "call", cn.Label)
    require.True(t, hasEdge(g, nodeOf(t, g, fn.Args[0]), cn))
    require.True(t, hasEdge(g, cn, nodeOf(t, g, v)))
}

// MemDepEdges is a placeholder: off by default, and when enabled it
// only adds store-to-load edges in build order.
func TestBuild_MemDepOption(t *testing.T) {
    mk := func(opt Options) *Graph {
        mod := ir.NewModule("t")
        b := ir.NewBuilder(mod)
        fn := b.Function("f", ir.I32, ir.Param { Name: "p", Ty: ir.PtrTo(ir.I32) })
        b.Store(b.Int(ir.I32, 3), b.Arg(0))
        v := b.Load(ir.I32, b.Arg(0))
        b.Ret(v)
        g, err := Build(fn, opt)
        require.NoError(t, err)
        return g
    }

    g := mk(Options{})
    checkGraph(t, g)
    sts := kindNodes(g, OpStore)
    lds := kindNodes(g, OpLoad)
    require.Equal(t, 1, len(sts))
    require.Equal(t, 1, len(lds))
    require.False(t, hasEdge(g, sts[0], lds[0]))

    g = mk(Options { MemDepEdges: true })
    sts = kindNodes(g, OpStore)
    lds = kindNodes(g, OpLoad)
    require.True(t, hasEdge(g, sts[0], lds[0]))
}
