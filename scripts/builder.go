// Package scripts builds raw Bitcoin Script byte streams for the chunked
// verifier taps. The standard txscript.ScriptBuilder caps scripts at the
// legacy 10,000-byte limit; taps run under tapscript rules where only the
// 4 MB weight limit applies, so the builder here appends without that cap
// while reusing txscript's opcode values and number encoding.
package scripts

import (
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/txscript"
)

// Script is a compiled opcode payload, one per tap.
type Script []byte

// Size returns the byte length of the script.
func (s Script) Size() int { return len(s) }

// Concat returns the concatenation of the receiver and t.
func (s Script) Concat(t Script) Script {
	out := make(Script, 0, len(s)+len(t))
	out = append(out, s...)
	out = append(out, t...)
	return out
}

// Builder accumulates opcodes, numbers and data pushes.
type Builder struct {
	buf []byte
}

func NewBuilder() *Builder {
	return &Builder{buf: make([]byte, 0, 1024)}
}

// Op appends a single opcode.
func (b *Builder) Op(op byte) *Builder {
	b.buf = append(b.buf, op)
	return b
}

// Ops appends a sequence of opcodes.
func (b *Builder) Ops(ops ...byte) *Builder {
	b.buf = append(b.buf, ops...)
	return b
}

// OpN appends the same opcode n times.
func (b *Builder) OpN(n int, op byte) *Builder {
	for i := 0; i < n; i++ {
		b.buf = append(b.buf, op)
	}
	return b
}

// Num pushes n with minimal encoding: OP_0..OP_16 and OP_1NEGATE where
// possible, otherwise a canonical ScriptNum data push.
func (b *Builder) Num(n int64) *Builder {
	switch {
	case n == 0:
		return b.Op(txscript.OP_0)
	case n == -1:
		return b.Op(txscript.OP_1NEGATE)
	case n >= 1 && n <= 16:
		return b.Op(txscript.OP_1 - 1 + byte(n))
	}
	return b.Data(scriptNumBytes(n))
}

// scriptNumBytes serializes n the way txscript's (unexported) scriptNum.Bytes
// does: little endian with a trailing sign bit, zero as an empty slice. See
// https://github.com/btcsuite/btcd/blob/v0.25.0/txscript/scriptnum.go for the
// reference encoding this mirrors.
func scriptNumBytes(n int64) []byte {
	if n == 0 {
		return nil
	}

	isNegative := n < 0
	if isNegative {
		n = -n
	}

	result := make([]byte, 0, 9)
	for n > 0 {
		result = append(result, byte(n&0xff))
		n >>= 8
	}

	if result[len(result)-1]&0x80 != 0 {
		extraByte := byte(0x00)
		if isNegative {
			extraByte = 0x80
		}
		result = append(result, extraByte)
	} else if isNegative {
		result[len(result)-1] |= 0x80
	}

	return result
}

// Bool pushes OP_0 or OP_1.
func (b *Builder) Bool(v bool) *Builder {
	if v {
		return b.Op(txscript.OP_1)
	}
	return b.Op(txscript.OP_0)
}

// Data appends a canonical data push of data.
func (b *Builder) Data(data []byte) *Builder {
	n := len(data)
	switch {
	case n == 0:
		return b.Op(txscript.OP_0)
	case n == 1 && data[0] >= 1 && data[0] <= 16:
		return b.Op(txscript.OP_1 - 1 + data[0])
	case n == 1 && data[0] == 0x81:
		return b.Op(txscript.OP_1NEGATE)
	case n < txscript.OP_PUSHDATA1:
		b.buf = append(b.buf, byte(n))
	case n <= 0xff:
		b.buf = append(b.buf, txscript.OP_PUSHDATA1, byte(n))
	case n <= 0xffff:
		b.buf = append(b.buf, txscript.OP_PUSHDATA2)
		b.buf = binary.LittleEndian.AppendUint16(b.buf, uint16(n))
	default:
		b.buf = append(b.buf, txscript.OP_PUSHDATA4)
		b.buf = binary.LittleEndian.AppendUint32(b.buf, uint32(n))
	}
	b.buf = append(b.buf, data...)
	return b
}

// Script splices a previously built script verbatim.
func (b *Builder) Script(s Script) *Builder {
	b.buf = append(b.buf, s...)
	return b
}

// Size reports the current byte length.
func (b *Builder) Size() int { return len(b.buf) }

// Done finalizes the builder and returns the script.
func (b *Builder) Done() Script {
	out := make(Script, len(b.buf))
	copy(out, b.buf)
	return out
}

// Disasm renders the script through txscript's disassembler, for debugging
// and golden tests.
func (s Script) Disasm() (string, error) {
	str, err := txscript.DisasmString(s)
	if err != nil {
		return "", fmt.Errorf("disassemble script: %w", err)
	}
	return str, nil
}

// Stack shuffling helpers shared by every generator. Depths are in stack
// items, 0 being the top.

// Pick copies the item at depth n to the top.
func (b *Builder) Pick(n int) *Builder {
	if n == 0 {
		return b.Op(txscript.OP_DUP)
	}
	if n == 1 {
		return b.Op(txscript.OP_OVER)
	}
	return b.Num(int64(n)).Op(txscript.OP_PICK)
}

// RollN moves the item at depth n to the top.
func (b *Builder) RollN(n int) *Builder {
	switch n {
	case 0:
		return b
	case 1:
		return b.Op(txscript.OP_SWAP)
	case 2:
		return b.Op(txscript.OP_ROT)
	}
	return b.Num(int64(n)).Op(txscript.OP_ROLL)
}

// ToAlt moves n items to the altstack.
func (b *Builder) ToAlt(n int) *Builder {
	return b.OpN(n, txscript.OP_TOALTSTACK)
}

// FromAlt brings n items back from the altstack.
func (b *Builder) FromAlt(n int) *Builder {
	return b.OpN(n, txscript.OP_FROMALTSTACK)
}

// DropN drops n items.
func (b *Builder) DropN(n int) *Builder {
	b.OpN(n/2, txscript.OP_2DROP)
	if n%2 == 1 {
		b.Op(txscript.OP_DROP)
	}
	return b
}
