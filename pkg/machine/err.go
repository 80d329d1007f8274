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
	"errors"

	"github.com/lassandro/golc3vm/internal/translate"
)

var f = translate.From

var (
	// Loader errors
	ErrImageTooShort = errors.New(f("image too short"))
	ErrOriginRange   = errors.New(f("origin outside address space"))

	// Execution errors
	ErrInvalidOpcode = errors.New(f("invalid opcode"))
	ErrInvalidTrap   = errors.New(f("invalid trap"))
	ErrNoInput       = errors.New(f("no keyboard attached"))
	ErrNoOutput      = errors.New(f("no display attached"))
)

// Fault stops execution. It records where the failing instruction was
// fetched from.
type Fault struct {
	PC          uint16
	Instruction uint16
	Err         error
}

func (err *Fault) Error() string {
	return f("fault at %#04x (%#04x): %v", err.PC, err.Instruction, err.Err)
}

func (err *Fault) Unwrap() error {
	return err.Err
}
