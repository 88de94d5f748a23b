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
    `strings`
)

var _Shapes = [...]string {
    OpUnknown        : "box",
    OpFunctionInput  : "ellipse",
    OpFunctionOutput : "ellipse",
    OpConstant       : "box",
    OpBasicBinaryOp  : "box",
    OpLoad           : "ellipse",
    OpStore          : "ellipse",
    OpTrueSteer      : "triangle",
    OpFalseSteer     : "invtriangle",
    OpMerge          : "octagon",
    OpCarry          : "box",
    OpInvariant      : "box",
    OpOrder          : "box",
    OpStream         : "circle",
}

func nodeShape(k OpKind) string {
    if int(k) < len(_Shapes) {
        return _Shapes[k]
    } else {
        return "box"
    }
}

// nodeLabel picks the display text: the operator symbol when one was
// chosen, then the explicit label, then the kind name together with a
// dump of the originating IR value.
func nodeLabel(n *Node) string {
    if n.Symbol != "" {
        return n.Symbol
    }
    if n.Label != "" {
        return n.Label
    }
    label := n.Kind.String()
    if n.Val != nil {
        label += "\\n" + escapeLabel(n.Val.String())
    }
    return label
}

func escapeLabel(s string) string {
    s = strings.ReplaceAll(s, "\\", "\\\\")
    s = strings.ReplaceAll(s, "\"", "\\\"")
    s = strings.ReplaceAll(s, "\n", "\\n")
    return s
}

// keepSink reports whether an output-less node still prints. Inputs,
// outputs and merges stay visible so dead ends can be spotted.
func keepSink(n *Node) bool {
    switch n.Kind {
        case OpFunctionInput  : return true
        case OpFunctionOutput : return true
        case OpMerge          : return true
        default               : return false
    }
}

// DumpDOT renders the graph in DOT form. Iteration follows insertion
// order, so the output is stable for a given build.
func (self *Graph) DumpDOT() string {
    id := 0
    names := make(map[*Node]string, len(self.Nodes))
    buf := []string {
        `digraph "custom_dfg" {`,
    }

    /* nodes, suppressing dead ends */
    for _, n := range self.Nodes {
        if len(n.Out) == 0 && !keepSink(n) {
            continue
        }
        name := fmt.Sprintf("node%d", id)
        id++
        names[n] = name
        buf = append(buf, fmt.Sprintf(`    "%s" [label="%s", shape="%s"];`, name, nodeLabel(n), nodeShape(n.Kind)))
    }

    /* edges between surviving nodes */
    for _, e := range self.Edges {
        s, ok1 := names[e.Src]
        d, ok2 := names[e.Dst]
        if ok1 && ok2 {
            buf = append(buf, fmt.Sprintf(`    "%s" -> "%s";`, s, d))
        }
    }
    buf = append(buf, "}", "")
    return strings.Join(buf, "\n")
}

// WriteDOTFile writes the DOT rendering. A failure to open or write
// the file is reported on stderr; the graph itself is already built,
// so the caller may choose to carry on.
func (self *Graph) WriteDOTFile(fn string) error {
    err := os.WriteFile(fn, []byte(self.DumpDOT()), 0644)
    if err != nil {
        fmt.Fprintf(os.Stderr, "riptide: cannot write %s: %s\n", fn, err)
    }
    return err
}
