// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package machine

import (
	"fmt"
	"strings"

	"github.com/lassandro/golc3vm/pkg/encoding"
)

// Disassemble renders the instruction found at addr as LC-3 assembly.
// PC-relative operands are shown as absolute target addresses.
func Disassemble(addr uint16, instruction uint16) string {
	dest := (instruction >> 9) & 0x7
	src := (instruction >> 6) & 0x7
	next := addr + 1

	target := func(bitcount uint16) string {
		mask := uint16(1)<<bitcount - 1
		return fmt.Sprintf("x%04X", next+encoding.SignExtend(instruction&mask, bitcount))
	}

	opcode := DecodeOpcode(instruction)

	switch opcode {
	case OP_ADD, OP_AND:
		if (instruction>>5)&0x1 == 1 {
			imm5 := int16(encoding.SignExtend(instruction&0x1F, 5))
			return fmt.Sprintf("%v R%d, R%d, #%d", opcode, dest, src, imm5)
		}
		return fmt.Sprintf("%v R%d, R%d, R%d", opcode, dest, src, instruction&0x7)

	case OP_BR:
		var flags strings.Builder
		if instruction&(FLAG_NEG<<9) != 0 {
			flags.WriteByte('n')
		}
		if instruction&(FLAG_ZERO<<9) != 0 {
			flags.WriteByte('z')
		}
		if instruction&(FLAG_POS<<9) != 0 {
			flags.WriteByte('p')
		}
		if flags.Len() == 0 {
			return "NOP"
		}
		return fmt.Sprintf("BR%s %s", flags.String(), target(9))

	case OP_JMP:
		if src == REG_R7 {
			return "RET"
		}
		return fmt.Sprintf("JMP R%d", src)

	case OP_JSR:
		if (instruction>>11)&0x1 == 1 {
			return fmt.Sprintf("JSR %s", target(11))
		}
		return fmt.Sprintf("JSRR R%d", src)

	case OP_LD, OP_LDI, OP_LEA, OP_ST, OP_STI:
		return fmt.Sprintf("%v R%d, %s", opcode, dest, target(9))

	case OP_LDR, OP_STR:
		offset6 := int16(encoding.SignExtend(instruction&0x3F, 6))
		return fmt.Sprintf("%v R%d, R%d, #%d", opcode, dest, src, offset6)

	case OP_NOT:
		return fmt.Sprintf("NOT R%d, R%d", dest, src)

	case OP_RTI, OP_RES:
		return opcode.String()

	case OP_TRAP:
		if vector, ok := DecodeTrap(instruction); ok {
			return vector.String()
		}
		return fmt.Sprintf("TRAP x%02X", instruction&0xFF)
	}

	return fmt.Sprintf(".FILL x%04X", instruction)
}
