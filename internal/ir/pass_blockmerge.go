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

// MergeBlocks folds single-entry fall-through edges: a block ending in
// an unconditional branch absorbs its target when the target has no
// other predecessors and is not the entry block. Folding one edge may
// expose another, so the pass iterates to a fixpoint.
func MergeBlocks(fn *Function) {
    for mergeBlocksOnce(fn) {
    }
}

func mergeBlocksOnce(fn *Function) bool {
    changed := false

    /* single-predecessor phis are copies, fold them first */
    for _, bb := range fn.Blocks {
        for _, p := range append([]*Instr(nil), bb.Phis()...) {
            if len(p.Args) == 1 {
                v := p.Args[0]
                p.ReplaceAllUsesWith(v)
                bb.Remove(p)
                changed = true
            }
        }
    }

    /* scan a snapshot, merging invalidates the live list */
    for _, bb := range append([]*Block(nil), fn.Blocks...) {
        if bb.fn == nil {
            continue
        }

        /* must end in an unconditional branch */
        tr := bb.Term()
        if tr == nil || tr.Op != OpBr {
            continue
        }

        /* target must be a single-entry non-entry block without phis */
        dst := tr.Blocks[0]
        if dst == bb || dst == fn.Entry() || len(dst.Pred) != 1 || len(dst.Phis()) != 0 {
            continue
        }

        /* drop the branch and absorb the target's instructions */
        bb.Ins = bb.Ins[:len(bb.Ins) - 1]
        for _, p := range dst.Ins {
            p.blk = bb
            bb.Ins = append(bb.Ins, p)
        }

        /* re-point successor predecessor lists and phi incoming blocks */
        for _, s := range dst.Succs() {
            for i, q := range s.Pred {
                if q == dst {
                    s.Pred[i] = bb
                }
            }
            for _, p := range s.Phis() {
                for i, in := range p.Incoming {
                    if in == dst {
                        p.Incoming[i] = bb
                    }
                }
            }
        }

        /* detach the dead block */
        dst.Ins = nil
        dst.Pred = nil
        dst.fn = nil
        fn.RemoveBlock(dst)
        changed = true
    }
    return changed
}
