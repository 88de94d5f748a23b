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
    `testing`

    `github.com/stretchr/testify/require`
)

// buildDiamond: entry -> {then, else} -> join -> ret
func buildDiamond(t *testing.T) (*Function, map[string]*Block) {
    mod := NewModule("t")
    b := NewBuilder(mod)
    fn := b.Function("f", I32, Param { Name: "c", Ty: I1 }, Param { Name: "x", Ty: I32 }, Param { Name: "y", Ty: I32 })
    then := b.NewBlock("then")
    els := b.NewBlock("else")
    join := b.NewBlock("join")
    b.CondBr(b.Arg(0), then, els)
    b.SetBlock(then)
    xi := b.Add(b.Arg(1), b.Int(I32, 1))
    b.Br(join)
    b.SetBlock(els)
    yi := b.Add(b.Arg(2), b.Int(I32, 1))
    b.Br(join)
    b.SetBlock(join)
    m := b.Phi(I32)
    m.AddIncoming(xi, then)
    m.AddIncoming(yi, els)
    b.Ret(m)
    require.NoError(t, VerifyFunc(fn))
    return fn, map[string]*Block {
        "entry" : fn.Entry(),
        "then"  : then,
        "else"  : els,
        "join"  : join,
    }
}

func TestDomTree_Diamond(t *testing.T) {
    fn, bbs := buildDiamond(t)
    dom := BuildDomTree(fn)
    require.Equal(t, bbs["entry"], dom.DominatedBy[bbs["then"].Id])
    require.Equal(t, bbs["entry"], dom.DominatedBy[bbs["else"].Id])
    require.Equal(t, bbs["entry"], dom.DominatedBy[bbs["join"].Id])
    require.True(t, dom.Dominates(bbs["entry"], bbs["join"]))
    require.True(t, dom.Dominates(bbs["join"], bbs["join"]))
    require.False(t, dom.Dominates(bbs["then"], bbs["join"]))
    require.False(t, dom.Dominates(bbs["else"], bbs["then"]))
}

// buildCountedLoop: entry -> header <-> body, header -> exit
func buildCountedLoop(t *testing.T) (*Function, map[string]*Block) {
    mod := NewModule("t")
    b := NewBuilder(mod)
    fn := b.Function("f", Void, Param { Name: "n", Ty: I32 })
    header := b.NewBlock("header")
    body := b.NewBlock("body")
    exit := b.NewBlock("exit")
    b.Br(header)
    b.SetBlock(header)
    i := b.Phi(I32)
    cmp := b.ICmp(CmpSLT, i, b.Arg(0))
    b.CondBr(cmp, body, exit)
    b.SetBlock(body)
    next := b.Add(i, b.Int(I32, 1))
    b.Br(header)
    b.SetBlock(exit)
    b.Ret(nil)
    i.AddIncoming(b.Int(I32, 0), fn.Entry())
    i.AddIncoming(next, body)
    require.NoError(t, VerifyFunc(fn))
    return fn, map[string]*Block {
        "entry"  : fn.Entry(),
        "header" : header,
        "body"   : body,
        "exit"   : exit,
    }
}

func TestDomTree_Loop(t *testing.T) {
    fn, bbs := buildCountedLoop(t)
    dom := BuildDomTree(fn)
    require.Equal(t, bbs["entry"], dom.DominatedBy[bbs["header"].Id])
    require.Equal(t, bbs["header"], dom.DominatedBy[bbs["body"].Id])
    require.Equal(t, bbs["header"], dom.DominatedBy[bbs["exit"].Id])
    require.True(t, dom.Dominates(bbs["header"], bbs["body"]))
    require.False(t, dom.Dominates(bbs["body"], bbs["header"]))
}
