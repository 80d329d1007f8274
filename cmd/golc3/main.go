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
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lassandro/golc3vm/internal/translate"
	"github.com/lassandro/golc3vm/pkg/debugger"
	"github.com/lassandro/golc3vm/pkg/encoding"
	"github.com/lassandro/golc3vm/pkg/machine"
)

var f = translate.From

var log *logrus.Entry

type options struct {
	debug     bool
	trace     bool
	pc        string
	faultExit int
}

const usage = "golc3 [--debug] [--trace] [--pc x3000] image..."

func init() {
	exe, _ := os.Executable()
	log = logrus.WithField("prog", filepath.Base(exe))

	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
}

func newRootCmd(status *int) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   usage,
		Short: "LC-3 virtual machine",
		Long: `Loads one or more LC-3 object images into memory and runs them.
Execution starts at --pc regardless of the image origins.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			*status = golc3(args, &opts)
			return nil
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	flags := cmd.Flags()
	flags.BoolVar(&opts.debug, "debug", false, "Runs the machine in a debug CLI")
	flags.BoolVar(&opts.trace, "trace", false, "Logs every executed instruction")
	flags.StringVar(&opts.pc, "pc", "x3000", "Start address")
	flags.IntVar(&opts.faultExit, "fault-exit-code", 1, "Exit status when the program faults")

	return cmd
}

// loadImages resets the machine and loads every image in order, later
// images overwriting earlier ones where they overlap.
func loadImages(mc *machine.Machine, paths []string, start uint16) error {
	mc.State.Reset()
	mc.State.Registers[machine.REG_PC] = start

	for _, path := range paths {
		file, err := os.Open(path)
		if err != nil {
			return err
		}

		n, err := mc.LoadImage(file)
		file.Close()

		if err != nil {
			return fmt.Errorf("%v: %w", path, err)
		}

		if n == 0 {
			return errors.New(f("failed to read from %v", path))
		}

		log.WithField("image", path).Infof("Read count: %d", n)
	}

	return nil
}

func faultMessage(fault *machine.Fault) string {
	if errors.Is(fault, machine.ErrInvalidOpcode) ||
		errors.Is(fault, machine.ErrInvalidTrap) {
		return f("ended due to invalid instruction: %v", fault.Err)
	}

	return f("ended due to I/O fault: %v", fault.Err)
}

func golc3(args []string, opts *options) int {
	start, err := encoding.DecodeAddr(opts.pc)
	if err != nil {
		log.Errorf("--pc: %v", err)
		return 2
	}

	display := bufio.NewWriter(os.Stdout)
	defer display.Flush()

	mc := machine.NewMachine(&machine.DeviceHandler{
		Keyboard: newStdinInput(os.Stdin),
		Display:  display,
	})

	if err := loadImages(mc, args, start); err != nil {
		log.Error(err)
		return 1
	}

	if opts.trace {
		logrus.SetLevel(logrus.DebugLevel)
		mc.Trace = log
	}

	ctx := context.Background()

	if !opts.debug {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, os.Interrupt)
		defer stop()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	term, err := enterRawTerm(os.Stdin)
	if err != nil {
		log.Error(err)
		return 1
	}
	defer term.Restore()

	var session *debugSession

	if opts.debug {
		session = newDebugSession(term, cancel, func() error {
			return loadImages(mc, args, start)
		})

		dbg := &debugger.Debugger{
			HandleBreak: session.handleBreak,
			HandleRead:  session.handleRead,
			HandleWrite: session.handleWrite,
		}
		mc.Debugger = dbg

		// Ctrl-C breaks back into the prompt instead of ending the run
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, os.Interrupt)
		defer func() {
			signal.Stop(sigs)
			close(sigs)
		}()

		go func() {
			for range sigs {
				dbg.Interrupt()
			}
		}()

		session.repl(dbg, mc)
	}

	err = mc.Run(ctx)

	var fault *machine.Fault

	switch {
	case err == nil:
		return 0

	case errors.As(err, &fault):
		display.Flush()
		term.Restore()
		log.WithFields(logrus.Fields{
			"pc":    fmt.Sprintf("%#04x", fault.PC),
			"instr": fmt.Sprintf("%#04x", fault.Instruction),
		}).Error(faultMessage(fault))
		return opts.faultExit

	case errors.Is(err, context.Canceled):
		if session != nil && session.quit {
			return 0
		}
		display.Flush()
		term.Restore()
		log.Warn(f("interrupted"))
		return 130
	}

	log.Error(err)
	return 1
}

func main() {
	status := 0

	cmd := newRootCmd(&status)
	if err := cmd.Execute(); err != nil {
		log.Error(err)
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	os.Exit(status)
}
