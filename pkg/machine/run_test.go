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
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lassandro/golc3vm/pkg/machine"
)

// Prints the digits 3, 2 and 1 then halts.
var countdown = []uint16{
	0x5260, // AND R1, R1, #0
	0x1263, // ADD R1, R1, #3
	0x2406, // LD R2, x3009
	0x1042, // ADD R0, R1, R2
	0xF021, // OUT
	0x127F, // ADD R1, R1, #-1
	0x03FC, // BRp x3003
	0xF025, // HALT
	0x0000,
	0x0030, // '0'
}

func loadProgram(mc *machine.Machine, origin uint16, words []uint16) {
	for i, word := range words {
		mc.State.Memory[origin+uint16(i)] = word
	}
}

func TestRun(t *testing.T) {
	mc, display := newTestMachine("")
	loadProgram(mc, 0x3000, countdown)

	err := mc.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "321Halt\n", display.String())
	assert.Equal(t, uint16(0x3008), mc.ReadRegister(machine.REG_PC))
	assert.Equal(t, machine.FLAG_ZERO, mc.ReadRegister(machine.REG_COND))
}

func TestRunStopsAtHalt(t *testing.T) {
	mc, _ := newTestMachine("")
	loadProgram(mc, 0x3000, []uint16{
		0b0001_000_000_1_00001, // ADD R0, R0, #1
		0xF025,                 // HALT
		0b0001_000_000_1_00001, // ADD R0, R0, #1
	})

	require.NoError(t, mc.Run(context.Background()))

	assert.Equal(t, uint16(1), mc.ReadRegister(machine.REG_R0))
	assert.Equal(t, uint16(0x3002), mc.ReadRegister(machine.REG_PC))
}

func TestRunFault(t *testing.T) {
	mc, _ := newTestMachine("")
	loadProgram(mc, 0x3000, []uint16{
		0b0001_000_000_1_00001, // ADD R0, R0, #1
		0xF0FF,                 // TRAP xFF
	})

	err := mc.Run(context.Background())

	assert.ErrorIs(t, err, machine.ErrInvalidTrap)

	var fault *machine.Fault
	require.True(t, errors.As(err, &fault))
	assert.Equal(t, uint16(0x3001), fault.PC)
	assert.Equal(t, uint16(0xF0FF), fault.Instruction)
	assert.Contains(t, fault.Error(), "invalid trap")
}

func TestRunCancelled(t *testing.T) {
	mc, _ := newTestMachine("")

	// BRnzp to itself
	loadProgram(mc, 0x3000, []uint16{0b0000_111_111111111})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := mc.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, uint16(0x3000), mc.ReadRegister(machine.REG_PC))
}

func TestTrace(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	mc, _ := newTestMachine("")
	mc.Trace = logger
	loadProgram(mc, 0x3000, []uint16{
		0b0001_000_000_1_00001, // ADD R0, R0, #1
		0xF025,                 // HALT
	})

	require.NoError(t, mc.Run(context.Background()))
	require.Len(t, hook.AllEntries(), 2)

	first := hook.AllEntries()[0]
	assert.Equal(t, "ADD R0, R0, #1", first.Message)
	assert.Equal(t, "0x3000", first.Data["pc"])
	assert.Equal(t, "ADD", first.Data["op"])
	assert.Equal(t, "HALT", hook.LastEntry().Message)
}

type countingDebugger struct {
	steps  int
	reads  []uint16
	writes []uint16
}

func (dbg *countingDebugger) Step(mc *machine.Machine) {
	dbg.steps++
}

func (dbg *countingDebugger) Read(addr uint16, mc *machine.Machine) {
	dbg.reads = append(dbg.reads, addr)
}

func (dbg *countingDebugger) Write(addr uint16, mc *machine.Machine) {
	dbg.writes = append(dbg.writes, addr)
}

func TestDebuggerHooks(t *testing.T) {
	var dbg countingDebugger

	mc, _ := newTestMachine("")
	mc.Debugger = &dbg
	loadProgram(mc, 0x3000, []uint16{
		0b0011_000_000000010, // ST R0, x3003
		0xF025,               // HALT
	})

	require.NoError(t, mc.Run(context.Background()))

	assert.Equal(t, 2, dbg.steps)
	assert.Equal(t, []uint16{0x3000, 0x3001}, dbg.reads)
	assert.Equal(t, []uint16{0x3003}, dbg.writes)
}
