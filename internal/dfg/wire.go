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
    `github.com/cloudwego/riptide/internal/ir`
)

// WireValueTo connects the producer of v to dst, looking through
// everything that is not a real operator. Address arithmetic forwards
// its base and indices, casts forward their operand, and a node still
// typed Unknown is treated as transparent rather than as a sink. When
// the recursion bottoms out on a value with no node and no operands,
// no edge is created.
func (self *Graph) WireValueTo(v ir.Value, dst *Node) {
    if v == nil || dst == nil {
        return
    }

    /* address arithmetic: forward the base pointer and every index */
    if p, ok := v.(*ir.Instr); ok && p.Op == ir.OpGetElementPtr {
        for _, a := range p.Args {
            self.WireValueTo(a, dst)
        }
        return
    }

    /* casts: forward the sole operand */
    if p, ok := v.(*ir.Instr); ok && p.Op.IsCast() {
        self.WireValueTo(p.Args[0], dst)
        return
    }

    /* a committed node hooks up directly */
    if src := self.FindNode(v); src != nil && src.Kind != OpUnknown {
        self.AddEdge(src, dst)
        return
    }

    /* otherwise unwrap instruction operands */
    if p, ok := v.(*ir.Instr); ok {
        for _, a := range p.Args {
            self.WireValueTo(a, dst)
        }
    }
}
