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

const (
	FLAG_POS  uint16 = 1 << 0
	FLAG_ZERO uint16 = 1 << 1
	FLAG_NEG  uint16 = 1 << 2
)

// Register file indices. R0-R7 are selected by 3-bit instruction fields,
// PC and COND are only touched by the engine itself.
const (
	REG_R0 uint16 = iota
	REG_R1
	REG_R2
	REG_R3
	REG_R4
	REG_R5
	REG_R6
	REG_R7
	REG_PC
	REG_COND
	REG_COUNT
)

type TrapVector uint8

const (
	TRAP_GETC  TrapVector = 0x20
	TRAP_OUT   TrapVector = 0x21
	TRAP_PUTS  TrapVector = 0x22
	TRAP_IN    TrapVector = 0x23
	TRAP_PUTSP TrapVector = 0x24
	TRAP_HALT  TrapVector = 0x25
)

const (
	MEMSPACE_TRAP_TABLE uint16 = 0x0000
	MEMSPACE_INT_TABLE  uint16 = 0x0100
	MEMSPACE_SUPERVISOR uint16 = 0x0200
	MEMSPACE_USER       uint16 = 0x3000
	MEMSPACE_DEVICES    uint16 = 0xFE00

	MEMSPACE_SIZE = 1 << 16
)

const (
	DEV_KBSR uint16 = 0xFE00
	DEV_KBDR uint16 = 0xFE02
	DEV_DSR  uint16 = 0xFE04
	DEV_DDR  uint16 = 0xFE06
)

// Set in KBSR when a key is waiting in KBDR, and in DSR when the display
// accepts a character.
const DEV_READY uint16 = 1 << 15

type Opcode uint8

const (
	OP_BR   Opcode = 0b0000
	OP_ADD  Opcode = 0b0001
	OP_LD   Opcode = 0b0010
	OP_ST   Opcode = 0b0011
	OP_JSR  Opcode = 0b0100
	OP_AND  Opcode = 0b0101
	OP_LDR  Opcode = 0b0110
	OP_STR  Opcode = 0b0111
	OP_RTI  Opcode = 0b1000
	OP_NOT  Opcode = 0b1001
	OP_LDI  Opcode = 0b1010
	OP_STI  Opcode = 0b1011
	OP_JMP  Opcode = 0b1100
	OP_RES  Opcode = 0b1101
	OP_LEA  Opcode = 0b1110
	OP_TRAP Opcode = 0b1111

	// Never produced from a 4-bit field
	OP_INVALID Opcode = 0xFF
)

type Outcome uint8

const (
	Continue Outcome = iota
	Halt
	Faulted
)

const inPrompt = "Enter a character :"
const haltMessage = "Halt\n"
