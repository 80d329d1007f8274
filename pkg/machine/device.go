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
	"io"
)

// keyboard backs KBSR and KBDR. Every read of KBSR polls the input so
// the status always reflects whether a key is waiting.
type keyboard struct{}

func (keyboard) Read(mc *Machine, addr uint16) error {
	if addr != DEV_KBSR {
		return nil
	}

	if mc.Devices == nil || mc.Devices.Keyboard == nil {
		mc.State.Memory[DEV_KBSR] = 0
		return nil
	}

	key, ok, err := mc.Devices.Keyboard.Poll()
	if err != nil {
		return err
	}

	if ok {
		mc.State.Memory[DEV_KBSR] = DEV_READY
		mc.State.Memory[DEV_KBDR] = uint16(key)
	} else {
		mc.State.Memory[DEV_KBSR] = 0
	}

	return nil
}

func (keyboard) Write(mc *Machine, addr uint16, value uint16) (bool, error) {
	return false, nil
}

// display backs DSR and DDR. Words written to DDR go straight to the
// display and are never stored.
type display struct{}

func (display) Read(mc *Machine, addr uint16) error {
	switch addr {
	case DEV_DSR:
		if mc.Devices != nil && mc.Devices.Display != nil {
			mc.State.Memory[DEV_DSR] = DEV_READY
		} else {
			mc.State.Memory[DEV_DSR] = 0
		}
	case DEV_DDR:
		mc.State.Memory[DEV_DDR] = 0
	}

	return nil
}

func (display) Write(mc *Machine, addr uint16, value uint16) (bool, error) {
	if addr != DEV_DDR {
		return false, nil
	}

	if mc.Devices == nil || mc.Devices.Display == nil {
		return true, ErrNoOutput
	}

	if err := mc.Devices.Display.WriteByte(byte(value & 0xFF)); err != nil {
		return true, err
	}

	return true, mc.Devices.Display.Flush()
}

// ReaderInput adapts any reader into a keyboard. Poll blocks like a read
// when the reader has nothing buffered, and reports no key once the reader
// is exhausted.
type ReaderInput struct {
	reader *bufio.Reader
}

func NewReaderInput(r io.Reader) *ReaderInput {
	if br, ok := r.(*bufio.Reader); ok {
		return &ReaderInput{reader: br}
	}

	return &ReaderInput{reader: bufio.NewReader(r)}
}

func (in *ReaderInput) Poll() (byte, bool, error) {
	key, err := in.reader.ReadByte()

	if err == io.EOF {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}

	return key, true, nil
}

func (in *ReaderInput) ReadByte() (byte, error) {
	return in.reader.ReadByte()
}
