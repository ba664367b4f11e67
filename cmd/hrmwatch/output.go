package main

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/srg/hrmwatch/internal/hrm"
	"golang.org/x/term"
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// printer renders monitor output. It is shared by the event loop and the
// alarm, so every write is serialized.
type printer struct {
	mu  sync.Mutex
	w   io.Writer
	tty bool

	rate  *color.Color
	state *color.Color
	alert *color.Color
	ok    *color.Color
}

func newPrinter(w io.Writer) *printer {
	p := &printer{
		w:     w,
		tty:   isTerminal(w),
		rate:  color.New(color.FgHiWhite, color.Bold),
		state: color.New(color.FgCyan),
		alert: color.New(color.FgRed, color.Bold),
		ok:    color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{p.rate, p.state, p.alert, p.ok} {
		if p.tty {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *printer) printf(c *color.Color, format string, args ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = c.Fprintf(p.w, format, args...)
}

func (p *printer) State(s hrm.State, dev hrm.DeviceHandle, known bool) {
	if known && s != hrm.Scanning && s != hrm.Idle {
		p.printf(p.state, "[%s] %s\n", s, dev)
		return
	}
	p.printf(p.state, "[%s]\n", s)
}

func (p *printer) Sample(bpm int, at time.Time) {
	p.printf(p.rate, "%s  %3d bpm\n", at.Format("15:04:05"), bpm)
}

func (p *printer) bell() {
	if !p.tty {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = io.WriteString(p.w, "\a")
}

// terminalAlarm is the alarm.Alarm shown in the terminal.
type terminalAlarm struct {
	out *printer
}

func (a *terminalAlarm) Start(rate, maxRate int) {
	a.out.printf(a.out.alert, "!!! HEART RATE %d ABOVE %d !!!\n", rate, maxRate)
	a.out.bell()
}

func (a *terminalAlarm) Stop() {
	a.out.printf(a.out.ok, "Heart rate back at or below maximum\n")
}

// Pulse repeats the bell while the alarm is active.
func (a *terminalAlarm) Pulse(int, int) {
	a.out.bell()
}
