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
    `os`

    `github.com/cloudwego/riptide/internal/ir`
)

func warn(format string, args ...interface{}) {
    fmt.Fprintf(os.Stderr, "riptide: warning: " + format + "\n", args...)
}

// Graph owns every node and edge. Nodes and edges iterate in insertion
// order so the printed output is stable across runs.
type Graph struct {
    Nodes []*Node
    Edges []*Edge
    vmap  map[ir.Value]*Node
}

func NewGraph() *Graph {
    return &Graph {
        vmap: make(map[ir.Value]*Node),
    }
}

// AddNode always creates a fresh node. A non-nil origin value binds
// the value lookup to the new node.
func (self *Graph) AddNode(kind OpKind, val ir.Value, label string) *Node {
    p := &Node {
        Kind  : kind,
        Val   : val,
        Label : label,
    }
    self.Nodes = append(self.Nodes, p)
    if val != nil {
        self.vmap[val] = p
    }
    return p
}

// GetOrAdd resolves v to its node, creating one on first sight.
// Values that never materialize as operators (function symbols,
// branches, selects, address arithmetic, casts) yield nil.
func (self *Graph) GetOrAdd(v ir.Value) *Node {
    if v == nil {
        return nil
    }

    /* control and plumbing never become nodes */
    switch p := v.(type) {
        case *ir.Function: {
            return nil
        }

        case *ir.Instr: {
            if p.Op == ir.OpBr || p.Op == ir.OpCondBr || p.Op == ir.OpSelect || p.Op == ir.OpGetElementPtr || p.Op.IsCast() {
                return nil
            }
        }
    }

    /* existing node */
    if p := self.vmap[v]; p != nil {
        return p
    }

    /* arguments and literals carry their kind from the start, the
     * rest stays Unknown until the build refines it */
    switch v.(type) {
        case *ir.Argument : return self.AddNode(OpFunctionInput, v, v.String())
        default: {
            if ir.IsConst(v) {
                return self.AddNode(OpConstant, v, v.String())
            }
            return self.AddNode(OpUnknown, v, "")
        }
    }
}

// FindNode is a pure lookup.
func (self *Graph) FindNode(v ir.Value) *Node {
    if v == nil {
        return nil
    }
    return self.vmap[v]
}

// AddEdge connects src to dst exactly once. A nil endpoint is a
// builder bug, it is reported and ignored.
func (self *Graph) AddEdge(src *Node, dst *Node) {
    if src == nil {
        warn("nil source in AddEdge")
        return
    }
    if dst == nil {
        warn("nil destination in AddEdge")
        return
    }
    for _, e := range src.Out {
        if e.Dst == dst {
            return
        }
    }
    e := &Edge {
        Src: src,
        Dst: dst,
    }
    self.Edges = append(self.Edges, e)
    src.Out = append(src.Out, e)
    dst.In = append(dst.In, e)
}

// RemoveNode unlinks every adjacent edge from both endpoints, drops
// the node, and erases its value binding.
func (self *Graph) RemoveNode(p *Node) {
    if p == nil {
        warn("nil node in RemoveNode")
        return
    }

    /* collect the adjacent edges, then unlink each of them */
    adjacent := make([]*Edge, 0, len(p.In) + len(p.Out))
    adjacent = append(adjacent, p.In...)
    adjacent = append(adjacent, p.Out...)
    for _, e := range adjacent {
        e.Src.Out = removeEdge(e.Src.Out, e)
        e.Dst.In = removeEdge(e.Dst.In, e)
        for i, q := range self.Edges {
            if q == e {
                self.Edges = append(self.Edges[:i], self.Edges[i + 1:]...)
                break
            }
        }
    }

    /* drop the node itself */
    for i, q := range self.Nodes {
        if q == p {
            self.Nodes = append(self.Nodes[:i], self.Nodes[i + 1:]...)
            break
        }
    }
    if p.Val != nil && self.vmap[p.Val] == p {
        delete(self.vmap, p.Val)
    }
}

func removeEdge(es []*Edge, e *Edge) []*Edge {
    for i, q := range es {
        if q == e {
            return append(es[:i], es[i + 1:]...)
        }
    }
    return es
}
