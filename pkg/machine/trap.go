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
	"fmt"
)

// TRAP |1111    |0000   |trapvect8       | System call
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) trap(instruction uint16) (Outcome, error) {
	mc.State.Registers[REG_R7] = mc.State.Registers[REG_PC]

	vector, ok := DecodeTrap(instruction)
	if !ok {
		return Faulted, fmt.Errorf("%w %v", ErrInvalidTrap, vector)
	}

	switch vector {
	case TRAP_GETC:
		return Continue, mc.trapGetc()
	case TRAP_OUT:
		return Continue, mc.trapOut()
	case TRAP_PUTS:
		return Continue, mc.trapPuts()
	case TRAP_IN:
		return Continue, mc.trapIn()
	case TRAP_PUTSP:
		return Continue, mc.trapPutsp()
	case TRAP_HALT:
		return mc.trapHalt()
	}

	return Faulted, fmt.Errorf("%w %v", ErrInvalidTrap, vector)
}

func (mc *Machine) keyboard() (Input, error) {
	if mc.Devices == nil || mc.Devices.Keyboard == nil {
		return nil, ErrNoInput
	}

	return mc.Devices.Keyboard, nil
}

func (mc *Machine) display() (*bufio.Writer, error) {
	if mc.Devices == nil || mc.Devices.Display == nil {
		return nil, ErrNoOutput
	}

	return mc.Devices.Display, nil
}

// Makes anything already written visible before the program waits for a
// key.
func (mc *Machine) flushDisplay() error {
	if mc.Devices == nil || mc.Devices.Display == nil {
		return nil
	}

	return mc.Devices.Display.Flush()
}

func (mc *Machine) trapGetc() error {
	kb, err := mc.keyboard()
	if err != nil {
		return err
	}

	if err := mc.flushDisplay(); err != nil {
		return err
	}

	key, err := kb.ReadByte()
	if err != nil {
		return fmt.Errorf("GETC: %w", err)
	}

	mc.State.Registers[REG_R0] = uint16(key)

	return nil
}

func (mc *Machine) trapOut() error {
	display, err := mc.display()
	if err != nil {
		return err
	}

	if err := display.WriteByte(byte(mc.State.Registers[REG_R0])); err != nil {
		return fmt.Errorf("OUT: %w", err)
	}

	return display.Flush()
}

func (mc *Machine) trapPuts() error {
	display, err := mc.display()
	if err != nil {
		return err
	}

	for addr := mc.State.Registers[REG_R0]; ; addr++ {
		value, err := mc.Read(addr)
		if err != nil {
			return err
		}

		if value == 0 {
			break
		}

		if err := display.WriteByte(byte(value)); err != nil {
			return fmt.Errorf("PUTS: %w", err)
		}
	}

	return display.Flush()
}

func (mc *Machine) trapIn() error {
	display, err := mc.display()
	if err != nil {
		return err
	}

	kb, err := mc.keyboard()
	if err != nil {
		return err
	}

	if _, err := display.WriteString(inPrompt); err != nil {
		return fmt.Errorf("IN: %w", err)
	}

	if err := display.Flush(); err != nil {
		return fmt.Errorf("IN: %w", err)
	}

	key, err := kb.ReadByte()
	if err != nil {
		return fmt.Errorf("IN: %w", err)
	}

	if err := display.WriteByte(key); err != nil {
		return fmt.Errorf("IN: %w", err)
	}

	mc.State.Registers[REG_R0] = uint16(key)

	return display.Flush()
}

func (mc *Machine) trapPutsp() error {
	display, err := mc.display()
	if err != nil {
		return err
	}

	for addr := mc.State.Registers[REG_R0]; ; addr++ {
		value, err := mc.Read(addr)
		if err != nil {
			return err
		}

		if value == 0 {
			break
		}

		if err := display.WriteByte(byte(value & 0xFF)); err != nil {
			return fmt.Errorf("PUTSP: %w", err)
		}

		if high := byte(value >> 8); high != 0 {
			if err := display.WriteByte(high); err != nil {
				return fmt.Errorf("PUTSP: %w", err)
			}
		}
	}

	return display.Flush()
}

func (mc *Machine) trapHalt() (Outcome, error) {
	if mc.Devices == nil || mc.Devices.Display == nil {
		return Halt, nil
	}

	if _, err := mc.Devices.Display.WriteString(haltMessage); err != nil {
		return Faulted, fmt.Errorf("HALT: %w", err)
	}

	if err := mc.Devices.Display.Flush(); err != nil {
		return Faulted, fmt.Errorf("HALT: %w", err)
	}

	return Halt, nil
}
