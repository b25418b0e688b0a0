package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/playperu/fingergame/internal/readiness"
)

// console serializes output from the REPL and from readiness timers.
type console struct {
	mu  sync.Mutex
	out io.Writer
}

func newConsole(out io.Writer) *console {
	return &console{out: out}
}

func (c *console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

// readiness reports transitions. Players are numbered from 1 on screen.
func (c *console) readiness(ch readiness.Change) {
	if ch.Player < 0 {
		return
	}
	switch ch.To {
	case readiness.Holding:
		c.printf("player %d holding...\n", ch.Player+1)
	case readiness.Ready:
		c.printf("player %d ready!\n", ch.Player+1)
	case readiness.NotReady:
		c.printf("player %d not ready\n", ch.Player+1)
	}
	if ch.AllReady {
		c.printf("everyone is ready: type start\n")
	}
}
