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

package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/lassandro/golc3vm/pkg/debugger"
	"github.com/lassandro/golc3vm/pkg/encoding"
	"github.com/lassandro/golc3vm/pkg/machine"
)

type debugSession struct {
	term    *rawTerm
	cancel  context.CancelFunc
	reload  func() error
	quit    bool
	lastcmd []string
}

func newDebugSession(term *rawTerm, cancel context.CancelFunc, reload func() error) *debugSession {
	return &debugSession{term: term, cancel: cancel, reload: reload}
}

// Accepts hex (x1F, 0x1F) or decimal (#-3, 12) values.
func parseValue(s string) (uint16, error) {
	if value, err := encoding.DecodeHex(s); err == nil {
		return value, nil
	}

	value, err := encoding.DecodeInt(s)
	if err != nil {
		return 0, err
	}

	return uint16(value), nil
}

func indexFormat(count int, rest string) string {
	digits := math.Floor(math.Log10(float64(count + 1)))
	return fmt.Sprintf("#%%0%dd: %s\n", int64(digits)+1, rest)
}

func debugBreak(dbg *debugger.Debugger, args []string) {
	if len(args) == 0 {
		args = append(args, "l")
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "break add [0x####]"

		if len(args) != 1 {
			log.Warn(usage)
			return
		}

		addr, err := encoding.DecodeHex(args[0])

		if err != nil {
			log.Warn(err)
			return
		}

		if dbg.AddBreakpoint(addr) {
			fmt.Printf("Breakpoint added [%#04x]\n", addr)
		}

	case "l", "ls", "list":
		fmtstring := indexFormat(len(dbg.Breakpoints), "%#x")

		for i, breakpoint := range dbg.Breakpoints {
			fmt.Printf(fmtstring, i, breakpoint.Addr)
		}

	case "r", "rm", "remove":
		const usage = "break remove [#]"

		if len(args) != 1 {
			log.Warn(usage)
			return
		}

		i, err := strconv.Atoi(args[0])

		if err != nil {
			log.Warn(err)
			return
		}

		if err := dbg.RemoveBreakpoint(i); err != nil {
			log.Warn(err)
			return
		}

		fmt.Printf("Breakpoint removed [%d]\n", i)

	case "clear":
		dbg.ClearBreakpoints()
		fmt.Println("Breakpoints reset")

	default:
		log.Warnf("break: '%s' is not a valid command", cmd)
	}
}

func debugWatch(dbg *debugger.Debugger, args []string) {
	const usage = "watch [add|list|rm|clear]"

	if len(args) == 0 {
		log.Warn(usage)
		return
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "watch add [0x####] [read|write|readwrite]"

		if len(args) != 2 {
			log.Warn(usage)
			return
		}

		addr, err := encoding.DecodeHex(args[0])

		if err != nil {
			log.Warn(err)
			return
		}

		var wtype debugger.WatchpointType

		switch args[1] {
		case "r", "read":
			wtype = debugger.ReadWatch
		case "w", "write":
			wtype = debugger.WriteWatch
		case "rw", "rwrite", "readwrite":
			wtype = debugger.ReadWriteWatch
		default:
			log.Warn(usage)
			return
		}

		if dbg.AddWatchpoint(addr, wtype) {
			fmt.Printf("Watchpoint added [%#04x] (%v)\n", addr, wtype)
		}

	case "l", "ls", "list":
		fmtstring := indexFormat(len(dbg.Watchpoints), "%#x %v")

		for i, watchpoint := range dbg.Watchpoints {
			fmt.Printf(fmtstring, i, watchpoint.Addr, watchpoint.Type)
		}

	case "r", "rm", "remove":
		const usage = "watch rm [#]"

		if len(args) != 1 {
			log.Warn(usage)
			return
		}

		i, err := strconv.Atoi(args[0])

		if err != nil {
			log.Warn(err)
			return
		}

		if err := dbg.RemoveWatchpoint(i); err != nil {
			log.Warn(err)
			return
		}

		fmt.Printf("Watchpoint removed [%d]\n", i)

	case "clear":
		dbg.ClearWatchpoints()
		fmt.Println("Watchpoints reset")

	default:
		log.Warnf("watch: '%s' is not a valid command", cmd)
	}
}

func debugReg(dbg *debugger.Debugger, mc *machine.MachineState, args []string) {
	const usage = "register [R#|PC|CC] [0x####|#]"

	if len(args) == 0 {
		dbg.PrintRegisters(mc)
		return
	}

	if len(args) != 2 {
		log.Warn(usage)
		return
	}

	value, err := parseValue(args[1])

	if err != nil {
		log.Warn(err)
		return
	}

	name := strings.ToUpper(args[0])

	switch {
	case name == "PC":
		mc.Registers[machine.REG_PC] = value
	case name == "CC":
		if value != machine.FLAG_POS && value != machine.FLAG_ZERO &&
			value != machine.FLAG_NEG {
			log.Warn("CC takes exactly one of 0x1 (p), 0x2 (z), 0x4 (n)")
			return
		}
		mc.Registers[machine.REG_COND] = value
	case len(name) == 2 && name[0] == 'R' && name[1] >= '0' && name[1] <= '7':
		mc.Registers[name[1]-'0'] = value
	default:
		log.Warn("Invalid register")
		return
	}

	fmt.Printf("\033[1m%s:\033[0m %#04x\n", name, value)
}

// Parses "[0x####|#] [#]" where a lone decimal is a count from PC.
func addrCount(mc *machine.MachineState, args []string, size uint16) (uint16, uint16, bool) {
	addr := mc.Registers[machine.REG_PC]

	if len(args) > 0 {
		var err error
		addr, err = encoding.DecodeHex(args[0])

		if err != nil {
			value, err := strconv.ParseUint(args[0], 10, 16)

			if err != nil {
				log.Warn(err)
				return 0, 0, false
			}

			addr = mc.Registers[machine.REG_PC]
			size = uint16(value)
		}
	}

	if len(args) > 1 {
		value, err := strconv.ParseUint(args[1], 10, 16)

		if err != nil {
			log.Warn(err)
			return 0, 0, false
		}

		size = uint16(value)
	}

	return addr, size, true
}

func debugDisasm(dbg *debugger.Debugger, mc *machine.MachineState, args []string) {
	const usage = "disasm [0x####|#] [#]"

	if len(args) > 2 {
		log.Warn(usage)
		return
	}

	if addr, size, ok := addrCount(mc, args, 8); ok {
		dbg.PrintDisasm(mc, addr, size)
	}
}

func debugMemory(dbg *debugger.Debugger, mc *machine.MachineState, args []string) {
	const usage = "memory [0x####|#] [#]"

	if len(args) > 2 {
		log.Warn(usage)
		return
	}

	if addr, size, ok := addrCount(mc, args, 1); ok {
		dbg.PrintMem(mc, addr, size)
	}
}

func debugJump(mc *machine.MachineState, args []string) {
	const usage = "jump [0x####]"

	if len(args) != 1 {
		log.Warn(usage)
		return
	}

	addr, err := encoding.DecodeHex(args[0])

	if err != nil {
		log.Warn(err)
		return
	}

	mc.Registers[machine.REG_PC] = addr
	fmt.Printf("\033[1mPC:\033[0m %#04x\n", addr)
}

func debugSet(dbg *debugger.Debugger, mc *machine.MachineState, args []string) {
	const usage = "set [0x####] [0x####|#]"

	if len(args) != 2 {
		log.Warn(usage)
		return
	}

	addr, err := encoding.DecodeHex(args[0])

	if err != nil {
		log.Warn(err)
		return
	}

	value, err := parseValue(args[1])

	if err != nil {
		log.Warn(err)
		return
	}

	mc.Memory[addr] = value
	dbg.PrintMem(mc, addr, 1)
}

func (s *debugSession) stop() {
	s.quit = true
	s.cancel()
}

func (s *debugSession) repl(dbg *debugger.Debugger, mc *machine.Machine) {
	s.term.Restore()
	defer s.term.Resume()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "\033[1;30m(dbg)\033[0m ",
		HistoryFile: filepath.Join(os.TempDir(), "golc3_history"),
	})

	if err != nil {
		log.Error(err)
		s.stop()
		return
	}

	defer rl.Close()

	for {
		line, err := rl.Readline()

		if err == readline.ErrInterrupt {
			continue
		} else if err != nil {
			fmt.Println()
			s.stop()
			return
		}

		args := strings.Fields(line)

		if len(args) == 0 {
			if len(s.lastcmd) == 0 {
				continue
			}
			args = s.lastcmd
		} else {
			s.lastcmd = make([]string, len(args))
			copy(s.lastcmd, args)
		}

		cmd := args[0]
		args = args[1:]

		switch cmd {
		case "b", "bp", "break", "breakpoint":
			debugBreak(dbg, args)

		case "w", "wp", "watch", "watchpoint":
			debugWatch(dbg, args)

		case "r", "reg", "register", "registers":
			debugReg(dbg, &mc.State, args)

		case "d", "dis", "disasm":
			debugDisasm(dbg, &mc.State, args)

		case "j", "jmp", "jump":
			debugJump(&mc.State, args)

		case "m", "mem", "memory":
			debugMemory(dbg, &mc.State, args)

		case "set":
			debugSet(dbg, &mc.State, args)

		case "c", "continue":
			dbg.Break = false
			return

		case "n", "next":
			dbg.Break = true
			return

		case "q", "quit", "exit":
			s.stop()
			return

		case "clear":
			fmt.Print("\033[H\033[2J")

		case "reset":
			if err := s.reload(); err != nil {
				log.Error(err)
			} else {
				dbg.PrintDisasm(&mc.State, mc.State.Registers[machine.REG_PC], 1)
			}

		default:
			fmt.Printf("error: '%s' is not a valid command\n", cmd)
		}
	}
}

func (s *debugSession) stopped() {
	fmt.Println()
	fmt.Println("Program stopped")
}

func (s *debugSession) handleBreak(dbg *debugger.Debugger, mc *machine.Machine) {
	if !dbg.Break {
		s.stopped()
		dbg.PrintDisasm(&mc.State, mc.State.Registers[machine.REG_PC], 8)
	} else {
		dbg.PrintDisasm(&mc.State, mc.State.Registers[machine.REG_PC], 1)
	}
	s.repl(dbg, mc)
}

func (s *debugSession) handleRead(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
	s.stopped()
	dbg.PrintMem(&mc.State, addr, 1)
	s.repl(dbg, mc)
}

func (s *debugSession) handleWrite(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
	s.stopped()
	dbg.PrintMem(&mc.State, addr, 1)
	s.repl(dbg, mc)
}
