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

	"github.com/lassandro/golc3vm/pkg/encoding"
)

var opcodeNames = [...]string{
	OP_BR:   "BR",
	OP_ADD:  "ADD",
	OP_LD:   "LD",
	OP_ST:   "ST",
	OP_JSR:  "JSR",
	OP_AND:  "AND",
	OP_LDR:  "LDR",
	OP_STR:  "STR",
	OP_RTI:  "RTI",
	OP_NOT:  "NOT",
	OP_LDI:  "LDI",
	OP_STI:  "STI",
	OP_JMP:  "JMP",
	OP_RES:  "RES",
	OP_LEA:  "LEA",
	OP_TRAP: "TRAP",
}

var trapNames = map[TrapVector]string{
	TRAP_GETC:  "GETC",
	TRAP_OUT:   "OUT",
	TRAP_PUTS:  "PUTS",
	TRAP_IN:    "IN",
	TRAP_PUTSP: "PUTSP",
	TRAP_HALT:  "HALT",
}

// DecodeOpcode returns the opcode held in the top four bits of an
// instruction. Every 4-bit value names an opcode, so OP_INVALID is only
// returned for values that cannot come out of the field.
func DecodeOpcode(instruction uint16) Opcode {
	op := instruction >> 12

	if int(op) >= len(opcodeNames) {
		return OP_INVALID
	}

	return Opcode(op)
}

// DecodeTrap extracts the trap vector of a TRAP instruction. ok is false
// for vectors outside the service table.
func DecodeTrap(instruction uint16) (vector TrapVector, ok bool) {
	vector = TrapVector(encoding.ZeroExtend(instruction, 8))
	_, ok = trapNames[vector]
	return
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) {
		return opcodeNames[op]
	}

	return fmt.Sprintf("Opcode(%d)", uint8(op))
}

func (vector TrapVector) String() string {
	if name, ok := trapNames[vector]; ok {
		return name
	}

	return fmt.Sprintf("TRAP x%02X", uint8(vector))
}

func (outcome Outcome) String() string {
	switch outcome {
	case Continue:
		return "continue"
	case Halt:
		return "halt"
	case Faulted:
		return "fault"
	}

	return fmt.Sprintf("Outcome(%d)", uint8(outcome))
}
