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
    `github.com/stretchr/testify/require`
)

func hasEdge(g *Graph, src *Node, dst *Node) bool {
    for _, e := range src.Out {
        if e.Dst == dst {
            return true
        }
    }
    return false
}

func TestWire_NilIsSilent(t *testing.T) {
    g := NewGraph()
    d := g.AddNode(OpStore, nil, "st")
    g.WireValueTo(nil, d)
    g.WireValueTo(ir.Value(nil), nil)
    require.Empty(t, g.Edges)
}

func TestWire_ThroughGEPAndCast(t *testing.T) {
    mod := ir.NewModule("t")
    b := ir.NewBuilder(mod)
    fn := b.Function("f", ir.I32,
        ir.Param { Name: "A", Ty: ir.PtrTo(ir.I32) },
        ir.Param { Name: "i", Ty: ir.I16 })
    ext := b.ZExt(b.Arg(1), ir.I64)
    gep := b.GEP(ir.I32, b.Arg(0), ext)
    v := b.Load(ir.I32, gep)
    b.Ret(v)
    _ = fn

    g := NewGraph()
    an := g.GetOrAdd(b.Arg(0))
    in := g.GetOrAdd(b.Arg(1))
    ld := g.AddNode(OpLoad, v, "ld")

    /* the wiring sees through the gep and the zext */
    g.WireValueTo(gep, ld)
    require.True(t, hasEdge(g, an, ld))
    require.True(t, hasEdge(g, in, ld))
    require.Equal(t, 2, len(g.Edges))
    require.Nil(t, g.FindNode(gep))
    require.Nil(t, g.FindNode(ext))
}

func TestWire_UnknownIsTransparent(t *testing.T) {
    mod := ir.NewModule("t")
    b := ir.NewBuilder(mod)
    b.Function("f", ir.I32, ir.Param { Name: "x", Ty: ir.I32 })
    mid := b.Add(b.Arg(0), b.Arg(0))
    b.Ret(mid)

    g := NewGraph()
    xn := g.GetOrAdd(b.Arg(0))
    d := g.AddNode(OpStore, nil, "st")

    /* an Unknown node must not become a source, the wiring falls
     * through to its operands */
    un := g.GetOrAdd(mid)
    require.Equal(t, OpUnknown, un.Kind)
    g.WireValueTo(mid, d)
    require.True(t, hasEdge(g, xn, d))
    require.False(t, hasEdge(g, un, d))

    /* once committed it wires directly */
    un.Kind = OpBasicBinaryOp
    g.WireValueTo(mid, d)
    require.True(t, hasEdge(g, un, d))
}

func TestWire_BottomsOutSilently(t *testing.T) {
    mod := ir.NewModule("t")
    b := ir.NewBuilder(mod)
    b.Function("f", ir.I32, ir.Param { Name: "x", Ty: ir.I32 })
    v := b.Add(b.Arg(0), b.Arg(0))
    b.Ret(v)

    g := NewGraph()
    d := g.AddNode(OpStore, nil, "st")

    /* no nodes exist at all: recursion reaches the argument, which has
     * no node and no operands, and quietly adds nothing */
    g.WireValueTo(v, d)
    require.Empty(t, g.Edges)
}
