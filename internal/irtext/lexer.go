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

// Package irtext parses the textual SSA form the driver accepts. The
// syntax is a small LLVM-flavoured assembly: one function per "func"
// block, labels introduce basic blocks, values are %-prefixed and
// functions @-prefixed.
package irtext

import (
	"github.com/alecthomas/participle/v2/lexer"
)

var irLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		// Comments run to end of line
		{Name: "Comment", Pattern: `;[^\n]*`},

		// Value and symbol references
		{Name: "LocalIdent", Pattern: `%[a-zA-Z0-9_.]+`},
		{Name: "GlobalIdent", Pattern: `@[a-zA-Z0-9_.*]+`},

		// Keywords, opcodes and type names
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},

		// Literals (float first, it subsumes the integer prefix)
		{Name: "Float", Pattern: `-?[0-9]+\.[0-9]+`},
		{Name: "Int", Pattern: `-?[0-9]+`},

		// Structure
		{Name: "Punct", Pattern: `[(){}\[\],=:*]`},

		// Whitespace
		{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
	},
})
