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
    `os`

    `github.com/ajstarks/svgo`
    `github.com/oleiade/lane`
)

// DrawSVGFile renders the graph as a layered SVG for eyeballing.
func DrawSVGFile(fn string, g *Graph) {
    draw_graph(fn, g)
}

// draw_graph renders the graph as a layered SVG for eyeballing. Layers
// come from a BFS over value edges starting at the sources, back edges
// simply draw upwards. Debugging aid only, the DOT output is the real
// interface.
func draw_graph(fn string, g *Graph) {
    const (
        cellw = 140
        cellh = 90
        nodew = 110
        nodeh = 36
    )

    /* BFS layering from the source nodes */
    depth := make(map[*Node]int, len(g.Nodes))
    q := lane.NewQueue()
    for _, n := range g.Nodes {
        if len(n.In) == 0 {
            depth[n] = 0
            q.Enqueue(n)
        }
    }
    for !q.Empty() {
        n := q.Dequeue().(*Node)
        for _, e := range n.Out {
            if _, ok := depth[e.Dst]; !ok {
                depth[e.Dst] = depth[n] + 1
                q.Enqueue(e.Dst)
            }
        }
    }

    /* anything only reachable through a cycle lands below the rest */
    maxd := 0
    for _, d := range depth {
        if d > maxd {
            maxd = d
        }
    }
    for _, n := range g.Nodes {
        if _, ok := depth[n]; !ok {
            maxd++
            depth[n] = maxd
        }
    }

    /* position the nodes, insertion order within each layer */
    width := 0
    cols := make(map[int]int)
    xy := make(map[*Node][2]int, len(g.Nodes))
    for _, n := range g.Nodes {
        d := depth[n]
        xy[n] = [2]int { cols[d] * cellw + 40, d * cellh + 40 }
        cols[d]++
        if cols[d] > width {
            width = cols[d]
        }
    }

    fp, err := os.OpenFile(fn, os.O_RDWR | os.O_CREATE | os.O_TRUNC, 0644)
    if err != nil {
        panic(err)
    }
    p := svg.New(fp)
    p.Start(width * cellw + 80, (maxd + 1) * cellh + 80)
    if _, err = fp.WriteString(`<rect width="100%" height="100%" fill="white" />` + "\n"); err != nil {
        panic(err)
    }

    /* edges first so the boxes overdraw them */
    for _, e := range g.Edges {
        a := xy[e.Src]
        b := xy[e.Dst]
        p.Line(a[0] + nodew / 2, a[1] + nodeh, b[0] + nodew / 2, b[1], "stroke:gray")
    }
    for _, n := range g.Nodes {
        at := xy[n]
        style := "fill:white;stroke:black"
        if n.Kind == OpTrueSteer || n.Kind == OpFalseSteer {
            style = "fill:lightyellow;stroke:black"
        } else if n.Kind == OpMerge || n.Kind == OpCarry {
            style = "fill:lightblue;stroke:black"
        }
        p.Roundrect(at[0], at[1], nodew, nodeh, 6, 6, style)
        p.Text(at[0] + nodew / 2, at[1] + nodeh / 2 + 5, nodeLabel(n), "fill:black;font-size:14px;font-family:monospace;text-anchor:middle")
    }
    p.End()
    if err = fp.Close(); err != nil {
        panic(err)
    }
}
