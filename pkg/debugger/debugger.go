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

package debugger

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/lassandro/golc3vm/internal/translate"
	"github.com/lassandro/golc3vm/pkg/machine"
)

var f = translate.From

var ErrIndex = errors.New(f("invalid index"))

func (dbg *Debugger) Step(mc *machine.Machine) {
	if dbg.HandleBreak == nil {
		return
	}

	if dbg.interrupt.Swap(false) || dbg.Break {
		dbg.HandleBreak(dbg, mc)
		return
	}

	for _, breakpoint := range dbg.Breakpoints {
		if mc.State.Registers[machine.REG_PC] == breakpoint.Addr {
			dbg.HandleBreak(dbg, mc)
			break
		}
	}
}

func (dbg *Debugger) Read(addr uint16, mc *machine.Machine) {
	if dbg.HandleRead == nil {
		return
	}

	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type&ReadWatch == 0 {
			continue
		}

		if addr == watchpoint.Addr {
			dbg.HandleRead(addr, dbg, mc)
			break
		}
	}
}

func (dbg *Debugger) Write(addr uint16, mc *machine.Machine) {
	if dbg.HandleWrite == nil {
		return
	}

	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type&WriteWatch == 0 {
			continue
		}

		if addr == watchpoint.Addr {
			dbg.HandleWrite(addr, dbg, mc)
			break
		}
	}
}

// Interrupt requests a break after the instruction currently executing.
// Safe to call from any goroutine.
func (dbg *Debugger) Interrupt() {
	dbg.interrupt.Store(true)
}

// AddBreakpoint reports false if addr already has a breakpoint.
func (dbg *Debugger) AddBreakpoint(addr uint16) bool {
	for _, breakpoint := range dbg.Breakpoints {
		if breakpoint.Addr == addr {
			return false
		}
	}

	dbg.Breakpoints = append(dbg.Breakpoints, Breakpoint{addr})
	return true
}

func (dbg *Debugger) RemoveBreakpoint(i int) error {
	if i < 0 || i >= len(dbg.Breakpoints) {
		return ErrIndex
	}

	dbg.Breakpoints[i] = dbg.Breakpoints[len(dbg.Breakpoints)-1]
	dbg.Breakpoints = dbg.Breakpoints[:len(dbg.Breakpoints)-1]
	return nil
}

func (dbg *Debugger) ClearBreakpoints() {
	dbg.Breakpoints = make([]Breakpoint, 0)
}

// AddWatchpoint reports false if the same watchpoint already exists.
func (dbg *Debugger) AddWatchpoint(addr uint16, wtype WatchpointType) bool {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Addr == addr && watchpoint.Type == wtype {
			return false
		}
	}

	dbg.Watchpoints = append(dbg.Watchpoints, Watchpoint{addr, wtype})
	return true
}

func (dbg *Debugger) RemoveWatchpoint(i int) error {
	if i < 0 || i >= len(dbg.Watchpoints) {
		return ErrIndex
	}

	dbg.Watchpoints[i] = dbg.Watchpoints[len(dbg.Watchpoints)-1]
	dbg.Watchpoints = dbg.Watchpoints[:len(dbg.Watchpoints)-1]
	return nil
}

func (dbg *Debugger) ClearWatchpoints() {
	dbg.Watchpoints = make([]Watchpoint, 0)
}

func (dbg *Debugger) output() io.Writer {
	if dbg.Output == nil {
		return os.Stdout
	}

	return dbg.Output
}

func (dbg *Debugger) PrintDisasm(mc *machine.MachineState, addr, count uint16) {
	out := dbg.output()

	for i := uint16(0); i < count; i++ {
		at := addr + i
		word := mc.Memory[at]

		marker := "  "
		if at == mc.Registers[machine.REG_PC] {
			marker = "=>"
		}

		for _, breakpoint := range dbg.Breakpoints {
			if breakpoint.Addr == at {
				marker = marker[:1] + "*"
				break
			}
		}

		fmt.Fprintf(
			out, "%s \033[1m[%#04x]\033[0m %#04x  %s\n",
			marker, at, word, machine.Disassemble(at, word),
		)
	}
}

func (dbg *Debugger) PrintMem(mc *machine.MachineState, addr, count uint16) {
	out := dbg.output()

	for i := uint16(0); i < count; i++ {
		at := addr + i

		if i == 0 {
			fmt.Fprintf(out, "\033[1m[%#04x]\033[0m ", at)
		} else if i%4 == 0 {
			fmt.Fprintln(out)
			fmt.Fprintf(out, "\033[1m[%#04x]\033[0m ", at)
		}

		result := mc.Memory[at]

		if result == 0 {
			fmt.Fprintf(out, "\033[1;30m%#04x\033[0m ", result)
		} else {
			fmt.Fprintf(out, "%#04x ", result)
		}
	}

	fmt.Fprintln(out)
}

func (dbg *Debugger) PrintRegisters(mc *machine.MachineState) {
	out := dbg.output()

	for i, register := range mc.Registers[:machine.REG_PC] {
		fmt.Fprintf(out, "\033[1mR%d:\033[0m %#04x\t", i, register)
		if i == int(machine.REG_PC-1)/2 {
			fmt.Fprintln(out)
		}
	}

	fmt.Fprintln(out)

	cond := mc.Registers[machine.REG_COND]
	flags := []byte("---")
	if cond&machine.FLAG_NEG != 0 {
		flags[0] = 'n'
	}
	if cond&machine.FLAG_ZERO != 0 {
		flags[1] = 'z'
	}
	if cond&machine.FLAG_POS != 0 {
		flags[2] = 'p'
	}

	fmt.Fprintf(
		out,
		"\033[1mPC:\033[0m %#04x\t\033[1mCC:\033[0m %s\n",
		mc.Registers[machine.REG_PC],
		flags,
	)
}
