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
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// NewMachine returns a reset machine wired to the given devices, which may
// be nil.
func NewMachine(devices *DeviceHandler) *Machine {
	mc := &Machine{Devices: devices}
	mc.State.Reset()
	return mc
}

func (mc *MachineState) Reset() {
	for i := range mc.Registers {
		mc.Registers[i] = 0x0000
	}

	for i := range mc.Memory {
		mc.Memory[i] = 0x0000
	}

	mc.Registers[REG_PC] = MEMSPACE_USER
	mc.Registers[REG_COND] = FLAG_ZERO
}

// LoadImage reads an object image: a big-endian origin word followed by
// big-endian program words, stored from the origin upward. It returns the
// number of words stored. Memory outside the image is left untouched so
// several images can share one machine.
func (mc *Machine) LoadImage(reader io.Reader) (int, error) {
	scratch := make([]byte, 2)

	if _, err := io.ReadFull(reader, scratch); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return 0, ErrImageTooShort
		}
		return 0, err
	}

	return mc.LoadImageAt(reader, int(binary.BigEndian.Uint16(scratch)))
}

// LoadImageAt stores big-endian words from reader starting at origin,
// stopping at the top of memory.
func (mc *Machine) LoadImageAt(reader io.Reader, origin int) (int, error) {
	if origin < 0 || origin >= MEMSPACE_SIZE {
		return 0, ErrOriginRange
	}

	buffered := bufio.NewReader(reader)
	scratch := make([]byte, 2)
	index := origin

	for index < MEMSPACE_SIZE {
		_, err := io.ReadFull(buffered, scratch)

		if err == io.EOF {
			break
		} else if err == io.ErrUnexpectedEOF {
			// A dangling byte lands in the high half of the last word
			scratch[1] = 0
			mc.State.Memory[index] = binary.BigEndian.Uint16(scratch[:2])
			index++
			break
		} else if err != nil {
			return index - origin, err
		}

		mc.State.Memory[index] = binary.BigEndian.Uint16(scratch)
		index++
	}

	return index - origin, nil
}

func (mc *Machine) ReadRegister(index uint16) uint16 {
	return mc.State.Registers[index]
}

func (mc *Machine) WriteRegister(index uint16, value uint16) {
	mc.State.Registers[index] = value
}

// Map attaches dev to addr, replacing whatever was mapped there. A nil dev
// turns the address back into plain memory.
func (mc *Machine) Map(addr uint16, dev Device) {
	mc.devices()

	if dev == nil {
		delete(mc.mapped, addr)
		return
	}

	mc.mapped[addr] = dev
}

func (mc *Machine) devices() map[uint16]Device {
	if mc.mapped == nil {
		mc.mapped = map[uint16]Device{
			DEV_KBSR: keyboard{},
			DEV_KBDR: keyboard{},
			DEV_DSR:  display{},
			DEV_DDR:  display{},
		}
	}

	return mc.mapped
}

// Read returns the word at addr, giving a mapped device the chance to
// refresh it first.
func (mc *Machine) Read(addr uint16) (uint16, error) {
	if dev, ok := mc.devices()[addr]; ok {
		if err := dev.Read(mc, addr); err != nil {
			return 0, err
		}
	}

	if mc.Debugger != nil {
		mc.Debugger.Read(addr, mc)
	}

	return mc.State.Memory[addr], nil
}

func (mc *Machine) Write(addr uint16, value uint16) error {
	handled := false

	if dev, ok := mc.devices()[addr]; ok {
		var err error
		if handled, err = dev.Write(mc, addr, value); err != nil {
			return err
		}
	}

	if !handled {
		mc.State.Memory[addr] = value
	}

	if mc.Debugger != nil {
		mc.Debugger.Write(addr, mc)
	}

	return nil
}

// UpdateFlags sets exactly one condition flag from the value held in the
// given register.
func (mc *Machine) UpdateFlags(index uint16) {
	value := mc.State.Registers[index]

	if value == 0 {
		mc.State.Registers[REG_COND] = FLAG_ZERO
	} else if value>>15 == 1 {
		mc.State.Registers[REG_COND] = FLAG_NEG
	} else {
		mc.State.Registers[REG_COND] = FLAG_POS
	}
}

// Step executes one instruction. A non-nil error is always a *Fault and
// comes with the Faulted outcome.
func (mc *Machine) Step() (Outcome, error) {
	pc := mc.State.Registers[REG_PC]

	instruction, err := mc.Read(pc)
	if err != nil {
		return Faulted, &Fault{PC: pc, Instruction: instruction, Err: err}
	}

	mc.State.Registers[REG_PC]++

	opcode := DecodeOpcode(instruction)

	if mc.Trace != nil {
		mc.Trace.WithFields(logrus.Fields{
			"pc":    fmt.Sprintf("%#04x", pc),
			"instr": fmt.Sprintf("%#04x", instruction),
			"op":    opcode.String(),
		}).Debug(Disassemble(pc, instruction))
	}

	outcome, err := mc.execute(opcode, instruction)
	if err != nil {
		return Faulted, &Fault{PC: pc, Instruction: instruction, Err: err}
	}

	if mc.Debugger != nil {
		mc.Debugger.Step(mc)
	}

	return outcome, nil
}

// Run steps the machine until it halts or faults. Cancelling ctx stops it
// between two instructions.
func (mc *Machine) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		outcome, err := mc.Step()
		if err != nil {
			return err
		}

		if outcome == Halt {
			return nil
		}
	}
}
