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

// Package dfg lowers one SSA function into a dataflow operator graph:
// control flow becomes steering and merging operators, loop-carried
// values become carries fed by stream tokens, and memory order rides
// on the token chain the lso pass threaded through the IR.
package dfg

import (
    `fmt`

    `github.com/cloudwego/riptide/internal/ir`
)

// OpKind is the closed operator taxonomy of the target fabric.
type OpKind uint8

const (
    OpUnknown OpKind = iota
    OpFunctionInput
    OpFunctionOutput
    OpConstant
    OpBasicBinaryOp
    OpLoad
    OpStore
    OpTrueSteer
    OpFalseSteer
    OpMerge
    OpCarry
    OpInvariant
    OpOrder
    OpStream
)

var _KindNames = [...]string {
    OpUnknown        : "Unknown",
    OpFunctionInput  : "FunctionInput",
    OpFunctionOutput : "FunctionOutput",
    OpConstant       : "Constant",
    OpBasicBinaryOp  : "BinOp",
    OpLoad           : "Load",
    OpStore          : "Store",
    OpTrueSteer      : "TrueSteer",
    OpFalseSteer     : "FalseSteer",
    OpMerge          : "Merge",
    OpCarry          : "Carry",
    OpInvariant      : "Invariant",
    OpOrder          : "Order",
    OpStream         : "Stream",
}

func (self OpKind) String() string {
    if int(self) < len(_KindNames) {
        return _KindNames[self]
    } else {
        panic("dfg: invalid operator kind")
    }
}

// Node is a single dataflow operator. Identity is the pointer, the
// back-reference to the originating IR value is nil for synthesized
// steers; the entry stream holds a private sentinel key instead.
type Node struct {
    Kind   OpKind
    Val    ir.Value
    Label  string
    Symbol string
    In     []*Edge
    Out    []*Edge
}

func (self *Node) String() string {
    if self.Label != "" {
        return fmt.Sprintf("%s(%s)", self.Kind, self.Label)
    } else {
        return self.Kind.String()
    }
}

// Edge is a directed value- or token-carrying connection. At most one
// edge exists per (source, destination) pair.
type Edge struct {
    Src *Node
    Dst *Node
}
