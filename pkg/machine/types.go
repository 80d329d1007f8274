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

	"github.com/sirupsen/logrus"
)

// Input is the keyboard as seen by the machine.
type Input interface {
	// Poll returns the next byte if one can be had. ok is false when
	// nothing is waiting.
	Poll() (key byte, ok bool, err error)

	// ReadByte blocks until a byte arrives.
	ReadByte() (byte, error)
}

type DeviceHandler struct {
	Keyboard Input
	Display  *bufio.Writer
}

// A Device intercepts accesses to the addresses it is mapped at.
type Device interface {
	// Read runs before the word at addr is returned and may refresh it.
	Read(mc *Machine, addr uint16) error

	// Write runs before the word is stored. Returning handled skips the
	// store.
	Write(mc *Machine, addr uint16, value uint16) (handled bool, err error)
}

type Memory [MEMSPACE_SIZE]uint16

type MachineState struct {
	Registers [REG_COUNT]uint16
	Memory    Memory
}

type MachineDebugger interface {
	Step(mc *Machine)
	Read(addr uint16, mc *Machine)
	Write(addr uint16, mc *Machine)
}

type Machine struct {
	Devices  *DeviceHandler
	State    MachineState
	Debugger MachineDebugger

	// Trace receives one debug entry per executed instruction.
	Trace logrus.FieldLogger

	mapped map[uint16]Device
}
