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

// ReachableBlocks lists every block reachable from the entry, in
// depth-first order starting at the entry block.
func ReachableBlocks(fn *Function) []*Block {
    ret := make([]*Block, 0, len(fn.Blocks))
    vis := make(map[int]struct{}, len(fn.Blocks))
    var dfs func(bb *Block)
    dfs = func(bb *Block) {
        if _, ok := vis[bb.Id]; ok {
            return
        }
        vis[bb.Id] = struct{}{}
        ret = append(ret, bb)
        for _, p := range bb.Succs() {
            dfs(p)
        }
    }
    if bb := fn.Entry(); bb != nil {
        dfs(bb)
    }
    return ret
}
