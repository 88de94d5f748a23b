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
    `sort`

    `github.com/oleiade/lane`
    `gonum.org/v1/gonum/graph/simple`
    `gonum.org/v1/gonum/graph/topo`
)

// Loop is a natural loop: a header that dominates every block in the
// body, entered from outside only through the header.
type Loop struct {
    Header   *Block
    Latches  []*Block
    Parent   *Loop
    Children []*Loop
    body     []*Block
    member   map[int]struct{}
}

func (self *Loop) Contains(bb *Block) bool {
    _, ok := self.member[bb.Id]
    return ok
}

// Blocks returns the loop body, header first, in discovery order.
func (self *Loop) Blocks() []*Block {
    return self.body
}

// Preheader returns the unique predecessor of the header outside the
// loop, or nil if the header has several outside predecessors.
func (self *Loop) Preheader() *Block {
    var ret *Block
    for _, p := range self.Header.Pred {
        if !self.Contains(p) {
            if ret != nil {
                return nil
            }
            ret = p
        }
    }
    return ret
}

// ExitingBlock returns the first loop block with a successor outside
// the loop, header first, so the result is deterministic.
func (self *Loop) ExitingBlock() *Block {
    for _, bb := range self.body {
        for _, s := range bb.Succs() {
            if !self.Contains(s) {
                return bb
            }
        }
    }
    return nil
}

func (self *Loop) addBlock(bb *Block) {
    if _, ok := self.member[bb.Id]; !ok {
        self.member[bb.Id] = struct{}{}
        self.body = append(self.body, bb)
    }
}

type LoopInfo struct {
    Loops []*Loop
    inner map[int]*Loop
}

// LoopOf returns the innermost loop containing bb, or nil.
func (self *LoopInfo) LoopOf(bb *Block) *Loop {
    return self.inner[bb.Id]
}

// AnalyzeLoops derives the natural-loop forest of fn. Irreducible
// control flow (a cycle not dominated by a single header) is rejected.
func AnalyzeLoops(fn *Function) (*LoopInfo, error) {
    dom := BuildDomTree(fn)
    blocks := ReachableBlocks(fn)

    /* reject irreducible regions up-front */
    if err := checkReducible(blocks, dom); err != nil {
        return nil, err
    }

    /* find the back edges: latch -> header with header dominating latch */
    loops := make(map[int]*Loop)
    order := make([]*Loop, 0, 4)
    for _, bb := range blocks {
        for _, h := range bb.Succs() {
            if !dom.Dominates(h, bb) {
                continue
            }
            lp, ok := loops[h.Id]
            if !ok {
                lp = &Loop {
                    Header : h,
                    member : make(map[int]struct{}),
                }
                lp.addBlock(h)
                loops[h.Id] = lp
                order = append(order, lp)
            }
            lp.Latches = append(lp.Latches, bb)

            /* flood the body backwards from the latch up to the header */
            st := lane.NewStack()
            st.Push(bb)
            for !st.Empty() {
                p := st.Pop().(*Block)
                if lp.Contains(p) {
                    continue
                }
                lp.addBlock(p)
                for _, q := range p.Pred {
                    st.Push(q)
                }
            }
        }
    }

    /* nest the loops: the smallest containing loop is the parent */
    li := &LoopInfo {
        Loops : order,
        inner : make(map[int]*Loop),
    }
    sort.SliceStable(li.Loops, func(i int, j int) bool {
        return len(li.Loops[i].body) < len(li.Loops[j].body)
    })
    for _, lp := range li.Loops {
        for _, bb := range lp.body {
            if _, ok := li.inner[bb.Id]; !ok {
                li.inner[bb.Id] = lp
            }
        }
    }
    for _, lp := range li.Loops {
        for _, outer := range li.Loops {
            if outer != lp && outer.Contains(lp.Header) && len(outer.body) > len(lp.body) {
                if lp.Parent == nil || len(outer.body) < len(lp.Parent.body) {
                    lp.Parent = outer
                }
            }
        }
    }
    for _, lp := range li.Loops {
        if lp.Parent != nil {
            lp.Parent.Children = append(lp.Parent.Children, lp)
        }
    }
    return li, nil
}

// checkReducible requires every non-trivial strongly connected
// component to contain a block dominating the whole component.
func checkReducible(blocks []*Block, dom DomTree) error {
    g := simple.NewDirectedGraph()
    byid := make(map[int64]*Block, len(blocks))
    for _, bb := range blocks {
        byid[int64(bb.Id)] = bb
        if g.Node(int64(bb.Id)) == nil {
            g.AddNode(simple.Node(bb.Id))
        }
    }
    for _, bb := range blocks {
        for _, s := range bb.Succs() {
            if bb.Id != s.Id {
                g.SetEdge(g.NewEdge(simple.Node(bb.Id), simple.Node(s.Id)))
            }
        }
    }
    for _, scc := range topo.TarjanSCC(g) {
        if len(scc) < 2 {
            continue
        }
        found := false
        for _, n := range scc {
            h := byid[n.ID()]
            all := true
            for _, m := range scc {
                if !dom.Dominates(h, byid[m.ID()]) {
                    all = false
                    break
                }
            }
            if all {
                found = true
                break
            }
        }
        if !found {
            return fmt.Errorf("ir: irreducible control flow in function @%s", blocks[0].Func().Name)
        }
    }
    return nil
}
