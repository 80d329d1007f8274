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

package machine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lassandro/golc3vm/pkg/machine"
)

func TestKeyboardStatus(t *testing.T) {
	mc, _ := newTestMachine("ab")

	status, err := mc.Read(machine.DEV_KBSR)
	require.NoError(t, err)
	assert.Equal(t, machine.DEV_READY, status)
	assert.Equal(t, uint16('a'), mc.State.Memory[machine.DEV_KBDR])

	status, err = mc.Read(machine.DEV_KBSR)
	require.NoError(t, err)
	assert.Equal(t, machine.DEV_READY, status)

	data, err := mc.Read(machine.DEV_KBDR)
	require.NoError(t, err)
	assert.Equal(t, uint16('b'), data)

	status, err = mc.Read(machine.DEV_KBSR)
	require.NoError(t, err)
	assert.Equal(t, uint16(0), status)
}

func TestKeyboardStatusFromProgram(t *testing.T) {
	mc, _ := newTestMachine("k")
	loadProgram(mc, 0x3000, []uint16{
		0b1010_000_000000010, // LDI R0, x3003
		0b1010_001_000000010, // LDI R1, x3004
		0xF025,               // HALT
		machine.DEV_KBSR,
		machine.DEV_KBDR,
	})

	_, err := mc.Step()
	require.NoError(t, err)
	assert.Equal(t, machine.DEV_READY, mc.ReadRegister(machine.REG_R0))
	assert.Equal(t, machine.FLAG_NEG, mc.ReadRegister(machine.REG_COND))

	_, err = mc.Step()
	require.NoError(t, err)
	assert.Equal(t, uint16('k'), mc.ReadRegister(machine.REG_R1))
}

func TestKeyboardDetached(t *testing.T) {
	mc := machine.NewMachine(nil)
	mc.State.Memory[machine.DEV_KBSR] = machine.DEV_READY

	status, err := mc.Read(machine.DEV_KBSR)
	require.NoError(t, err)
	assert.Equal(t, uint16(0), status)
}

func TestDisplay(t *testing.T) {
	mc, display := newTestMachine("")

	status, err := mc.Read(machine.DEV_DSR)
	require.NoError(t, err)
	assert.Equal(t, machine.DEV_READY, status)

	require.NoError(t, mc.Write(machine.DEV_DDR, 'Z'))
	assert.Equal(t, "Z", display.String())
	assert.Equal(t, uint16(0), mc.State.Memory[machine.DEV_DDR])

	detached := machine.NewMachine(nil)

	status, err = detached.Read(machine.DEV_DSR)
	require.NoError(t, err)
	assert.Equal(t, uint16(0), status)
	assert.ErrorIs(t, detached.Write(machine.DEV_DDR, 'Z'), machine.ErrNoOutput)
}

// Counts accesses and hides the stored value.
type counterDevice struct {
	reads  int
	writes []uint16
}

func (dev *counterDevice) Read(mc *machine.Machine, addr uint16) error {
	dev.reads++
	mc.State.Memory[addr] = uint16(dev.reads)
	return nil
}

func (dev *counterDevice) Write(mc *machine.Machine, addr uint16, value uint16) (bool, error) {
	dev.writes = append(dev.writes, value)
	return true, nil
}

func TestMapDevice(t *testing.T) {
	var dev counterDevice

	mc := machine.NewMachine(nil)
	mc.Map(0xFE10, &dev)

	for i := 1; i <= 3; i++ {
		value, err := mc.Read(0xFE10)
		require.NoError(t, err)
		assert.Equal(t, uint16(i), value)
	}

	require.NoError(t, mc.Write(0xFE10, 0x00AA))
	assert.Equal(t, []uint16{0x00AA}, dev.writes)
	assert.Equal(t, uint16(3), mc.State.Memory[0xFE10])

	// Unmapping returns the address to plain memory
	mc.Map(0xFE10, nil)
	require.NoError(t, mc.Write(0xFE10, 0x00BB))

	value, err := mc.Read(0xFE10)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x00BB), value)
	assert.Equal(t, 3, dev.reads)
}

func TestDecodeOpcode(t *testing.T) {
	want := []machine.Opcode{
		machine.OP_BR, machine.OP_ADD, machine.OP_LD, machine.OP_ST,
		machine.OP_JSR, machine.OP_AND, machine.OP_LDR, machine.OP_STR,
		machine.OP_RTI, machine.OP_NOT, machine.OP_LDI, machine.OP_STI,
		machine.OP_JMP, machine.OP_RES, machine.OP_LEA, machine.OP_TRAP,
	}

	for i, op := range want {
		instruction := uint16(i)<<12 | 0x0ABC
		assert.Equal(t, op, machine.DecodeOpcode(instruction))
		assert.NotEqual(t, machine.OP_INVALID, machine.DecodeOpcode(instruction))
	}

	assert.Equal(t, "TRAP", machine.OP_TRAP.String())
	assert.Equal(t, "Opcode(255)", machine.OP_INVALID.String())
}

func TestDecodeTrap(t *testing.T) {
	for vector, name := range map[uint16]string{
		0x20: "GETC",
		0x21: "OUT",
		0x22: "PUTS",
		0x23: "IN",
		0x24: "PUTSP",
		0x25: "HALT",
	} {
		decoded, ok := machine.DecodeTrap(0xF000 | vector)
		assert.True(t, ok, name)
		assert.Equal(t, name, decoded.String())
	}

	for _, vector := range []uint16{0x00, 0x1F, 0x26, 0xFF} {
		decoded, ok := machine.DecodeTrap(0xF000 | vector)
		assert.False(t, ok)
		assert.Equal(t, machine.TrapVector(vector), decoded)
	}
}

func TestDisassemble(t *testing.T) {
	tests := []struct {
		Addr        uint16
		Instruction uint16
		Want        string
	}{
		{0x3000, 0b0001_000_001_1_11111, "ADD R0, R1, #-1"},
		{0x3000, 0b0001_010_011_0_00_100, "ADD R2, R3, R4"},
		{0x3000, 0b0101_001_001_1_00000, "AND R1, R1, #0"},
		{0x3000, 0b0000_111_111111111, "BRnzp x3000"},
		{0x3000, 0b0000_010_000000100, "BRz x3005"},
		{0x3000, 0b0000_000_000000100, "NOP"},
		{0x3000, 0b1100_000_011_000000, "JMP R3"},
		{0x3000, 0b1100_000_111_000000, "RET"},
		{0x3000, 0b0100_1_00000010000, "JSR x3011"},
		{0x3000, 0b0100_0_00_101_000000, "JSRR R5"},
		{0x3000, 0b0010_000_000000010, "LD R0, x3003"},
		{0x3000, 0b1010_001_000000001, "LDI R1, x3002"},
		{0x3000, 0b1110_100_111111111, "LEA R4, x3000"},
		{0x3000, 0b0011_000_000000101, "ST R0, x3006"},
		{0x3000, 0b1011_001_000000001, "STI R1, x3002"},
		{0x3000, 0b0110_010_011_111110, "LDR R2, R3, #-2"},
		{0x3000, 0b0111_010_011_000001, "STR R2, R3, #1"},
		{0x3000, 0b1001_101_110_111111, "NOT R5, R6"},
		{0x3000, 0b1000_000000000000, "RTI"},
		{0x3000, 0b1101_000000000000, "RES"},
		{0x3000, 0xF022, "PUTS"},
		{0x3000, 0xF025, "HALT"},
		{0x3000, 0xF030, "TRAP x30"},
	}

	for _, test := range tests {
		assert.Equal(
			t, test.Want, machine.Disassemble(test.Addr, test.Instruction),
			"%#04x", test.Instruction,
		)
	}
}
