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
    `github.com/oleiade/lane`
)

func hasSideEffects(p *Instr) bool {
    switch p.Op {
        case OpStore : return true
        case OpCall  : return true
        default      : return p.Op.IsTerminator()
    }
}

// EliminateDeadCode removes pure instructions with no remaining users.
// Removing one may strand its operands, so those are revisited through
// a worklist until nothing else dies.
func EliminateDeadCode(fn *Function) {
    st := lane.NewStack()
    for _, bb := range fn.Blocks {
        for _, p := range bb.Ins {
            st.Push(p)
        }
    }
    for !st.Empty() {
        p := st.Pop().(*Instr)

        /* already removed, or still referenced */
        if p.blk == nil || len(p.users) != 0 || hasSideEffects(p) {
            continue
        }

        /* revisit the operands after unlinking */
        args := append([]Value(nil), p.Args...)
        p.blk.Remove(p)
        for _, v := range args {
            if q, ok := v.(*Instr); ok {
                st.Push(q)
            }
        }
    }
}
