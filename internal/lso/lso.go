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

// Package lso rewrites memory accesses into load-store-ordering
// intrinsics threaded by a one-bit token. A dataflow target has no
// global store, so the ordering every load and store implicitly takes
// from program order must become an explicit data dependency: stores
// produce a token, loads consume one, and tokens from converging paths
// meet in a phi at the block head.
package lso

import (
    `fmt`
    `strings`

    `github.com/cloudwego/riptide/internal/ir`
)

const (
    // LoadPrefix and StorePrefix identify the typed intrinsic
    // families, the element type name is appended.
    LoadPrefix  = "lso.load."
    StorePrefix = "lso.store."

    // EntryToken is reserved for targets that cannot mint a constant
    // token at function entry.
    EntryToken = "lso.entry.token"

    // TokenPhiPrefix names the token phis the rewrite inserts. The
    // prefix doubles as the processed-function marker: a second run
    // must not stack another token chain on top of the first.
    TokenPhiPrefix = "lso.tok."
)

// IsLoadIntrinsic reports whether fn is a token-consuming load.
func IsLoadIntrinsic(fn *ir.Function) bool {
    return fn != nil && strings.HasPrefix(fn.Name, LoadPrefix)
}

// IsStoreIntrinsic reports whether fn is a token-producing store.
func IsStoreIntrinsic(fn *ir.Function) bool {
    return fn != nil && strings.HasPrefix(fn.Name, StorePrefix)
}

// Pass threads the memory token through every definition of a module.
// The intrinsic declarations are cached on the module by name, so the
// table is append-only and shared by repeated invocations.
type Pass struct {
    mod *ir.Module
}

func NewPass(mod *ir.Module) *Pass {
    return &Pass {
        mod: mod,
    }
}

// loadIntrinsic returns the declaration of lso.load.<T>, creating it
// on first use. The name is a deterministic function of the type.
func (self *Pass) loadIntrinsic(elem *ir.Type, addr *ir.Type) *ir.Function {
    name := LoadPrefix + elem.String()
    if fn := self.mod.FindFunc(name); fn != nil {
        return fn
    }
    return self.mod.NewDeclaration(
        name,
        elem,
        ir.Param { Name: "addr", Ty: addr },
        ir.Param { Name: "tok", Ty: ir.I1 },
    )
}

// storeIntrinsic declares lso.store.<T>. Stores consume the current
// token as well as producing one, so write-write order survives the
// translation without any aliasing knowledge.
func (self *Pass) storeIntrinsic(elem *ir.Type, addr *ir.Type) *ir.Function {
    name := StorePrefix + elem.String()
    if fn := self.mod.FindFunc(name); fn != nil {
        return fn
    }
    return self.mod.NewDeclaration(
        name,
        ir.I1,
        ir.Param { Name: "addr", Ty: addr },
        ir.Param { Name: "val", Ty: elem },
        ir.Param { Name: "tok", Ty: ir.I1 },
    )
}

// Apply rewrites every definition in the module. Declarations are
// returned unchanged. Applying the pass to its own output is a no-op:
// a function already carrying intrinsic calls or marker-named token
// phis is skipped wholesale.
func (self *Pass) Apply() error {
    for _, fn := range self.mod.Funcs {
        if !fn.Decl {
            if err := self.applyFunc(fn); err != nil {
                return err
            }
        }
    }
    return nil
}

func (self *Pass) applyFunc(fn *ir.Function) error {
    if err := ir.VerifyFunc(fn); err != nil {
        return err
    }

    /* already carries a token chain */
    if transformed(fn) {
        return nil
    }

    /* create the token phis first, they are referenced while the block
     * bodies are still being rewritten. Every non-entry reachable
     * block gets one, whether or not any memory operation consumes it:
     * the chain is a CFG-shaped invariant, unused links are for the
     * dead-code sweep to collect */
    ntok := 0
    entry := fn.Entry()
    blocks := ir.ReachableBlocks(fn)
    phis := make(map[*ir.Block]*ir.Instr)
    for _, bb := range blocks {
        if bb != entry && len(bb.Pred) > 0 {
            p := ir.NewPhi(ir.I1, fmt.Sprintf("%s%d", TokenPhiPrefix, ntok))
            ntok++
            bb.InsertAtHead(p)
            phis[bb] = p
        }
    }

    /* rewrite every block, tracking the last produced token */
    out := make(map[*ir.Block]ir.Value)
    for _, bb := range blocks {
        var current ir.Value
        if bb == entry {
            current = self.mod.ConstInt(ir.I1, 1)
        } else if p, ok := phis[bb]; ok {
            current = p
        } else {
            panic(fmt.Sprintf("lso: reachable block %%%s has predecessors but no token phi", bb.Name))
        }

        /* snapshot, the rewrite splices into the instruction list */
        for _, p := range append([]*ir.Instr(nil), bb.Ins...) {
            switch p.Op {
                default: {
                    continue
                }

                /* loads consume the current token without producing one */
                case ir.OpLoad: {
                    call := ir.NewCall(self.loadIntrinsic(p.Ty, p.Args[0].Type()), fn.NextId(), p.Args[0], current)
                    bb.InsertBefore(p, call)
                    p.ReplaceAllUsesWith(call)
                    bb.Remove(p)
                }

                /* stores produce the token every later access waits on */
                case ir.OpStore: {
                    call := ir.NewCall(self.storeIntrinsic(p.Args[0].Type(), p.Args[1].Type()), fn.NextId(), p.Args[1], p.Args[0], current)
                    bb.InsertBefore(p, call)
                    bb.Remove(p)
                    current = call
                }
            }
        }
        out[bb] = current
    }

    /* fill the phis now that every block has an out-token */
    for bb, p := range phis {
        for _, pred := range bb.Pred {
            tok, ok := out[pred]
            if !ok {
                panic(fmt.Sprintf("lso: predecessor %%%s of %%%s has no out-token", pred.Name, bb.Name))
            }
            p.AddIncoming(tok, pred)
        }
    }
    return nil
}

// transformed recognizes the rewrite's own artifacts: an intrinsic
// call, or a token phi carrying the marker name. A single-block
// function without memory operations leaves neither behind, but for
// that shape the rewrite inserts nothing anyway.
func transformed(fn *ir.Function) bool {
    for _, bb := range fn.Blocks {
        for _, p := range bb.Ins {
            if p.Op == ir.OpCall && (IsLoadIntrinsic(p.Callee) || IsStoreIntrinsic(p.Callee)) {
                return true
            }
            if p.Op == ir.OpPhi && strings.HasPrefix(p.Id, TokenPhiPrefix) {
                return true
            }
        }
    }
    return false
}
