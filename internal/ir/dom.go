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

// Immediate dominators via the iterative scheme of Cooper, Harvey and
// Kennedy, "A Simple, Fast Dominance Algorithm" (2001): number the
// reachable blocks in postorder, seed the entry as its own dominator,
// then sweep in reverse postorder refining each block's guess to the
// common ancestor of its processed predecessors until a sweep changes
// nothing. The ancestor walk plays the role of a set intersection.

type DomTree struct {
    Root        *Block
    DominatedBy map[int]*Block
    DominatorOf map[int][]*Block
}

// Dominates reports whether a dominates b (reflexively).
func (self DomTree) Dominates(a *Block, b *Block) bool {
    for b != nil {
        if a == b {
            return true
        }
        b = self.DominatedBy[b.Id]
    }
    return false
}

func BuildDomTree(fn *Function) DomTree {
    entry := fn.Entry()
    order := make([]*Block, 0, len(fn.Blocks))
    ponum := make(map[int]int, len(fn.Blocks))

    /* postorder numbering of everything reachable from the entry */
    var visit func(bb *Block)
    visit = func(bb *Block) {
        ponum[bb.Id] = -1
        for _, s := range bb.Succs() {
            if _, ok := ponum[s.Id]; !ok {
                visit(s)
            }
        }
        ponum[bb.Id] = len(order)
        order = append(order, bb)
    }
    visit(entry)

    /* walk both candidates towards the root until they coincide, the
     * meeting point dominates both */
    idom := make(map[int]*Block, len(order))
    meet := func(a *Block, b *Block) *Block {
        for a != b {
            for ponum[a.Id] < ponum[b.Id] {
                a = idom[a.Id]
            }
            for ponum[b.Id] < ponum[a.Id] {
                b = idom[b.Id]
            }
        }
        return a
    }

    /* refine until a full sweep leaves every guess untouched */
    idom[entry.Id] = entry
    for again := true; again; {
        again = false
        for i := len(order) - 1; i >= 0; i-- {
            bb := order[i]
            if bb == entry {
                continue
            }

            /* fold in every predecessor that already has a guess,
             * unreachable ones never get one and stay ignored */
            var cand *Block
            for _, p := range bb.Pred {
                if idom[p.Id] == nil {
                    continue
                }
                if cand == nil {
                    cand = p
                } else {
                    cand = meet(cand, p)
                }
            }
            if cand != nil && idom[bb.Id] != cand {
                idom[bb.Id] = cand
                again = true
            }
        }
    }

    /* publish the tree, child lists in reverse postorder so output
     * built from them is stable */
    domby := make(map[int]*Block, len(order))
    domof := make(map[int][]*Block, len(order))
    for i := len(order) - 1; i >= 0; i-- {
        if bb := order[i]; bb != entry {
            up := idom[bb.Id]
            domby[bb.Id] = up
            domof[up.Id] = append(domof[up.Id], bb)
        }
    }
    return DomTree {
        Root        : entry,
        DominatedBy : domby,
        DominatorOf : domof,
    }
}
