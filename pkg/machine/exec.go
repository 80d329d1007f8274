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
	"github.com/lassandro/golc3vm/pkg/encoding"
)

func (mc *Machine) execute(opcode Opcode, instruction uint16) (Outcome, error) {
	switch opcode {
	case OP_ADD:
		mc.add(instruction)
	case OP_AND:
		mc.and(instruction)
	case OP_BR:
		mc.br(instruction)
	case OP_JMP:
		mc.jmp(instruction)
	case OP_JSR:
		mc.jsr(instruction)
	case OP_LD:
		return Continue, mc.ld(instruction)
	case OP_LDI:
		return Continue, mc.ldi(instruction)
	case OP_LDR:
		return Continue, mc.ldr(instruction)
	case OP_LEA:
		mc.lea(instruction)
	case OP_NOT:
		mc.not(instruction)
	case OP_ST:
		return Continue, mc.st(instruction)
	case OP_STI:
		return Continue, mc.sti(instruction)
	case OP_STR:
		return Continue, mc.str(instruction)
	case OP_TRAP:
		return mc.trap(instruction)

	// RTI  |1000    |000000000000            | Return from interrupt
	// RES  |1101    |                        | Reserved
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_RTI, OP_RES:
		// No supervisor mode; both are no-ops

	default:
		return Faulted, ErrInvalidOpcode
	}

	return Continue, nil
}

func (mc *Machine) pcOffset(instruction uint16, bitcount uint16) uint16 {
	return mc.State.Registers[REG_PC] +
		encoding.SignExtend(instruction, bitcount)
}

// ADD  |0001    |DR   |SR1  |0|00 |SR2   | Register  addition
// ADD  |0001    |DR   |SR1  |1|imm5      | Immediate addition
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) add(instruction uint16) {
	dest := (instruction >> 9) & 0x7
	src1 := (instruction >> 6) & 0x7

	if (instruction>>5)&0x1 == 1 {
		imm5 := encoding.SignExtend(instruction&0x1F, 5)

		mc.State.Registers[dest] = mc.State.Registers[src1] + imm5
	} else {
		src2 := instruction & 0x7

		mc.State.Registers[dest] = mc.State.Registers[src1] +
			mc.State.Registers[src2]
	}

	mc.UpdateFlags(dest)
}

// AND  |0101    |DR   |SR1  |0|00 |SR2   | Register  bitwise
// AND  |0101    |DR   |SR1  |1|imm5      | Immediate bitwise
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) and(instruction uint16) {
	dest := (instruction >> 9) & 0x7
	src1 := (instruction >> 6) & 0x7

	if (instruction>>5)&0x1 == 1 {
		imm5 := encoding.SignExtend(instruction&0x1F, 5)

		mc.State.Registers[dest] = mc.State.Registers[src1] & imm5
	} else {
		src2 := instruction & 0x7

		mc.State.Registers[dest] = mc.State.Registers[src1] &
			mc.State.Registers[src2]
	}

	mc.UpdateFlags(dest)
}

// BR   |0000    |N|Z|P|PCoffset9         | Conditional branch
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) br(instruction uint16) {
	flags := (instruction >> 9) & 0x7

	if flags&mc.State.Registers[REG_COND] != 0 {
		mc.State.Registers[REG_PC] = mc.pcOffset(instruction&0x1FF, 9)
	}
}

// JMP  |1100    |000  |BaseR|000000      | Jump
// RET  |1100    |000  |111  |000000      | Return
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) jmp(instruction uint16) {
	src := (instruction >> 6) & 0x7

	mc.State.Registers[REG_PC] = mc.State.Registers[src]
}

// JSR  |0100    |1|PCoffset11            | Jump to subroutine
// JSRR |0100    |0|00 |BaseR|000000      | Jump to subroutine register
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) jsr(instruction uint16) {
	// Read the base register before R7 is overwritten so JSRR R7 jumps to
	// the old value
	src := mc.State.Registers[(instruction>>6)&0x7]

	mc.State.Registers[REG_R7] = mc.State.Registers[REG_PC]

	if (instruction>>11)&0x1 == 1 {
		mc.State.Registers[REG_PC] = mc.pcOffset(instruction&0x7FF, 11)
	} else {
		mc.State.Registers[REG_PC] = src
	}
}

// LD   |0010    |DR   |PCoffset9         | Load
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) ld(instruction uint16) error {
	dest := (instruction >> 9) & 0x7

	value, err := mc.Read(mc.pcOffset(instruction&0x1FF, 9))
	if err != nil {
		return err
	}

	mc.State.Registers[dest] = value
	mc.UpdateFlags(dest)

	return nil
}

// LDI  |1010    |DR   |PCoffset9         | Load indirect
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) ldi(instruction uint16) error {
	dest := (instruction >> 9) & 0x7

	addr, err := mc.Read(mc.pcOffset(instruction&0x1FF, 9))
	if err != nil {
		return err
	}

	value, err := mc.Read(addr)
	if err != nil {
		return err
	}

	mc.State.Registers[dest] = value
	mc.UpdateFlags(dest)

	return nil
}

// LDR  |0110    |DR   |BaseR|offset6     | Load base+offset
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) ldr(instruction uint16) error {
	dest := (instruction >> 9) & 0x7
	src := (instruction >> 6) & 0x7
	addr := mc.State.Registers[src] +
		encoding.SignExtend(instruction&0x3F, 6)

	value, err := mc.Read(addr)
	if err != nil {
		return err
	}

	mc.State.Registers[dest] = value
	mc.UpdateFlags(dest)

	return nil
}

// LEA  |1110    |DR   |PCoffset9         | Load effective address
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) lea(instruction uint16) {
	dest := (instruction >> 9) & 0x7

	mc.State.Registers[dest] = mc.pcOffset(instruction&0x1FF, 9)
	mc.UpdateFlags(dest)
}

// NOT  |1001    |DR   |SR   |1|11111     | Bitwise complement
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) not(instruction uint16) {
	dest := (instruction >> 9) & 0x7
	src := (instruction >> 6) & 0x7

	mc.State.Registers[dest] = ^mc.State.Registers[src]
	mc.UpdateFlags(dest)
}

// ST   |0011    |SR   |PCoffset9         | Store
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) st(instruction uint16) error {
	src := (instruction >> 9) & 0x7

	return mc.Write(mc.pcOffset(instruction&0x1FF, 9), mc.State.Registers[src])
}

// STI  |1011    |SR   |PCoffset9         | Store indirect
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) sti(instruction uint16) error {
	src := (instruction >> 9) & 0x7

	addr, err := mc.Read(mc.pcOffset(instruction&0x1FF, 9))
	if err != nil {
		return err
	}

	return mc.Write(addr, mc.State.Registers[src])
}

// STR  |0111    |SR   |BaseR|offset6     | Store base+offset
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) str(instruction uint16) error {
	src := (instruction >> 9) & 0x7
	base := (instruction >> 6) & 0x7
	addr := mc.State.Registers[base] +
		encoding.SignExtend(instruction&0x3F, 6)

	return mc.Write(addr, mc.State.Registers[src])
}
