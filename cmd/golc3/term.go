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
	"io"
	"os"

	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// rawTerm switches a terminal into non-canonical, non-echoing mode. It
// does nothing when the file is not a terminal.
type rawTerm struct {
	file    *os.File
	restore unix.Termios
	tty     bool
	raw     bool
}

func enterRawTerm(file *os.File) (*rawTerm, error) {
	rt := &rawTerm{file: file, tty: term.IsTerminal(int(file.Fd()))}

	if !rt.tty {
		return rt, nil
	}

	if err := termios.Tcgetattr(file.Fd(), &rt.restore); err != nil {
		return nil, err
	}

	return rt, rt.Resume()
}

// Resume re-enters raw mode after Restore.
func (rt *rawTerm) Resume() error {
	if !rt.tty || rt.raw {
		return nil
	}

	termstate := rt.restore

	termstate.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.INLCR
	termstate.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.IEXTEN
	termstate.Cflag &^= unix.CSIZE | unix.PARENB
	termstate.Cflag |= unix.CS8

	// Reads block for one byte; polling goes through stdinInput.Poll
	termstate.Cc[unix.VMIN] = 1
	termstate.Cc[unix.VTIME] = 0

	if err := termios.Tcsetattr(
		rt.file.Fd(), termios.TCSANOW, &termstate,
	); err != nil {
		return err
	}

	rt.raw = true
	return nil
}

func (rt *rawTerm) Restore() error {
	if !rt.tty || !rt.raw {
		return nil
	}

	if err := termios.Tcsetattr(
		rt.file.Fd(), termios.TCSANOW, &rt.restore,
	); err != nil {
		return err
	}

	rt.raw = false
	return nil
}

// stdinInput is the machine keyboard backed by a file descriptor. Poll
// never waits, ReadByte does.
type stdinInput struct {
	file *os.File
}

func newStdinInput(file *os.File) *stdinInput {
	return &stdinInput{file: file}
}

func (in *stdinInput) Poll() (byte, bool, error) {
	fds := []unix.PollFd{{Fd: int32(in.file.Fd()), Events: unix.POLLIN}}

	n, err := unix.Poll(fds, 0)
	if err == unix.EINTR {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}

	if n == 0 || fds[0].Revents&(unix.POLLIN|unix.POLLHUP) == 0 {
		return 0, false, nil
	}

	key, err := in.ReadByte()
	if err == io.EOF {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}

	return key, true, nil
}

func (in *stdinInput) ReadByte() (byte, error) {
	var scratch [1]byte

	for {
		n, err := in.file.Read(scratch[:])
		if n == 1 {
			return scratch[0], nil
		}

		if err != nil {
			return 0, err
		}
	}
}
