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

// riptide lowers a textual SSA file into dataflow graphs, one DOT file
// per function definition.
//
//	riptide [-render] [-dump] [-svg] [-o out.dot] input.rir
package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"

	"github.com/cloudwego/riptide/internal/dfg"
	"github.com/cloudwego/riptide/internal/ir"
	"github.com/cloudwego/riptide/internal/irtext"
	"github.com/cloudwego/riptide/internal/lso"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: riptide [-render] [-dump] [-svg] [-o out.dot] input.rir")
	os.Exit(2)
}

func fail(format string, args ...interface{}) {
	color.New(color.FgRed).Fprintln(os.Stderr, fmt.Sprintf(format, args...))
	os.Exit(1)
}

func main() {
	var path string
	var output string
	var render bool
	var dump bool
	var svg bool

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-render":
			render = true
		case "-dump":
			dump = true
		case "-svg":
			svg = true
		case "-o":
			if i++; i >= len(args) {
				usage()
			}
			output = args[i]
		default:
			if path != "" || strings.HasPrefix(args[i], "-") {
				usage()
			}
			path = args[i]
		}
	}
	if path == "" {
		usage()
	}

	startTime := time.Now()
	source, err := os.ReadFile(path)
	if err != nil {
		fail("riptide: %s", err)
	}

	mod, err := irtext.ParseString(path, string(source))
	if err != nil {
		fail("riptide: %s", err)
	}

	/* fold empty fall-through blocks before the token rewrite */
	for _, fn := range mod.Funcs {
		if !fn.Decl {
			ir.MergeBlocks(fn)
		}
	}

	/* rewrite memory accesses onto the token chain */
	if err = lso.NewPass(mod).Apply(); err != nil {
		fail("riptide: %s", err)
	}

	/* cleanup and well-formedness */
	for _, fn := range mod.Funcs {
		if !fn.Decl {
			ir.EliminateDeadCode(fn)
		}
	}
	if err = ir.Verify(mod); err != nil {
		fail("riptide: %s", err)
	}
	if dump {
		spew.Fdump(os.Stderr, mod.String())
	}

	/* lower every definition */
	defs := 0
	for _, fn := range mod.Funcs {
		if !fn.Decl {
			defs++
		}
	}
	written := make([]string, 0, defs)
	for _, fn := range mod.Funcs {
		if fn.Decl {
			continue
		}
		g, err := dfg.Build(fn, dfg.Options{})
		if err != nil {
			fail("riptide: %s", err)
		}
		name := output
		if name == "" {
			if name = "dfg.dot"; defs > 1 {
				name = fn.Name + ".dfg.dot"
			}
		}
		if err = g.WriteDOTFile(name); err == nil {
			written = append(written, name)
		}
		if svg {
			dfg.DrawSVGFile(strings.TrimSuffix(name, ".dot")+".svg", g)
		}
	}

	/* optional graphviz rendering */
	if render {
		for _, name := range written {
			png := strings.TrimSuffix(name, ".dot") + ".png"
			cmd := exec.Command("dot", "-Tpng", "-o", png, name)
			cmd.Stderr = os.Stderr
			if err = cmd.Run(); err != nil {
				fail("riptide: rendering %s: %s", name, err)
			}
		}
	}

	color.Green("Lowered %d function(s) from %s in %s", defs, path, formatDuration(time.Since(startTime)))
}

func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.1fms", float64(d.Nanoseconds())/1000000.0)
	default:
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
}
