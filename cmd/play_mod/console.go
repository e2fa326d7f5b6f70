package main

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/term"
)

// console puts stdin in raw mode so single key presses arrive without
// Enter, and keeps a one-line status display at the bottom of the output.
type console struct {
	mu       sync.Mutex
	fd       int
	oldState *term.State
	keys     chan byte
	status   string
}

func openConsole() (*console, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("stdin is not a terminal")
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("set raw mode: %w", err)
	}
	c := &console{fd: fd, oldState: oldState, keys: make(chan byte, 16)}
	go c.read()
	return c, nil
}

// read blocks on stdin for the life of the process; the goroutine is
// abandoned rather than interrupted on Close.
func (c *console) read() {
	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			close(c.keys)
			return
		}
		if n > 0 {
			c.keys <- buf[0]
		}
	}
}

func (c *console) Keys() <-chan byte { return c.keys }

// Println prints msg above the status line. Raw mode needs explicit
// carriage returns.
func (c *console) Println(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Printf("\r\x1b[K%s\r\n%s", msg, c.status)
}

func (c *console) Status(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = line
	fmt.Printf("\r\x1b[K%s", line)
}

func (c *console) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.oldState == nil {
		return
	}
	fmt.Print("\r\n")
	_ = term.Restore(c.fd, c.oldState)
	c.oldState = nil
}
