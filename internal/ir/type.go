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

type TypeKind uint8

const (
    KindVoid TypeKind = iota
    KindInt
    KindFloat
    KindPtr
)

// Type is a minimal scalar / pointer type model. The String form is
// stable across runs, it doubles as the mangling key for typed
// intrinsic names.
type Type struct {
    Kind TypeKind
    Bits int
    Elem *Type
}

var (
    Void = &Type { Kind: KindVoid }
    I1   = &Type { Kind: KindInt, Bits: 1 }
    I8   = &Type { Kind: KindInt, Bits: 8 }
    I16  = &Type { Kind: KindInt, Bits: 16 }
    I32  = &Type { Kind: KindInt, Bits: 32 }
    I64  = &Type { Kind: KindInt, Bits: 64 }
    F32  = &Type { Kind: KindFloat, Bits: 32 }
    F64  = &Type { Kind: KindFloat, Bits: 64 }
)

func PtrTo(elem *Type) *Type {
    return &Type {
        Kind: KindPtr,
        Elem: elem,
    }
}

func (self *Type) IsInt() bool   { return self.Kind == KindInt }
func (self *Type) IsFloat() bool { return self.Kind == KindFloat }
func (self *Type) IsPtr() bool   { return self.Kind == KindPtr }
func (self *Type) IsVoid() bool  { return self.Kind == KindVoid }

func (self *Type) Equal(other *Type) bool {
    if self == other {
        return true
    } else if self == nil || other == nil {
        return false
    } else if self.Kind != other.Kind || self.Bits != other.Bits {
        return false
    } else if self.Kind == KindPtr {
        return self.Elem.Equal(other.Elem)
    } else {
        return true
    }
}

func (self *Type) String() string {
    switch self.Kind {
        case KindVoid  : return "void"
        case KindInt   : return fmt.Sprintf("i%d", self.Bits)
        case KindFloat : return fmt.Sprintf("f%d", self.Bits)
        case KindPtr   : return self.Elem.String() + "*"
        default        : panic("ir: invalid type kind")
    }
}
