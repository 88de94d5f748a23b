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
)

// VerifyFunc checks structural well-formedness of a definition: every
// block terminated exactly once, phis at block heads only, phi incoming
// lists agreeing with the predecessor set.
func VerifyFunc(fn *Function) error {
    if fn.Decl {
        return fmt.Errorf("ir: @%s is a declaration", fn.Name)
    }
    if fn.Entry() == nil {
        return fmt.Errorf("ir: @%s has no entry block", fn.Name)
    }
    for _, bb := range fn.Blocks {
        if err := verifyBlock(fn, bb); err != nil {
            return err
        }
    }
    return nil
}

func verifyBlock(fn *Function, bb *Block) error {
    if len(bb.Ins) == 0 || bb.Term() == nil {
        return fmt.Errorf("ir: @%s: block %%%s has no terminator", fn.Name, bb.Name)
    }

    /* exactly one terminator, and it is the last instruction */
    for _, p := range bb.Ins[:len(bb.Ins) - 1] {
        if p.Op.IsTerminator() {
            return fmt.Errorf("ir: @%s: terminator in the middle of block %%%s", fn.Name, bb.Name)
        }
    }

    /* phis form a prefix of the block */
    body := false
    for _, p := range bb.Ins {
        if p.Op != OpPhi {
            body = true
        } else if body {
            return fmt.Errorf("ir: @%s: phi below a non-phi in block %%%s", fn.Name, bb.Name)
        }
    }

    /* each phi must cover each predecessor exactly once */
    for _, p := range bb.Phis() {
        if len(p.Incoming) != len(bb.Pred) {
            return fmt.Errorf("ir: @%s: phi %s has %d incoming values for %d predecessors", fn.Name, p.Ref(), len(p.Incoming), len(bb.Pred))
        }
        for _, in := range p.Incoming {
            n := 0
            for _, q := range bb.Pred {
                if q == in {
                    n++
                }
            }
            if n != 1 {
                return fmt.Errorf("ir: @%s: phi %s names %%%s which is not a unique predecessor of %%%s", fn.Name, p.Ref(), in.Name, bb.Name)
            }
        }
    }
    return nil
}

// Verify checks every definition in the module.
func Verify(mod *Module) error {
    for _, fn := range mod.Funcs {
        if !fn.Decl {
            if err := VerifyFunc(fn); err != nil {
                return err
            }
        }
    }
    return nil
}
