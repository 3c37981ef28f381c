// Package debugger implements two front ends over vm.VM's read-only
// Snapshot introspection surface: a line-mode REPL and a tview/tcell
// full-screen TUI, grounded on the teacher's Debugger/BreakpointManager
// split (debugger/debugger.go, debugger/breakpoints.go) but narrowed from
// ARM's full command set (watchpoints, expression evaluator, call-stack
// stepping) down to ESIUX's REPL grammar (SPEC_FULL.md 4.M): step,
// continue, break <addr>, regs, mem <addr> <len>, quit.
package debugger

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/esiux/esiux/register"
	"github.com/esiux/esiux/vm"
)

// Debugger holds the breakpoint set and command history over a VM. It
// changes VM state only by calling Step; for display it reads Snapshot,
// the Halted flag, and bytes through VM.Memory.ReadU8 (spec.md §5).
type Debugger struct {
	VM          *vm.VM
	Breakpoints *BreakpointManager
	History     []string
}

// NewDebugger wraps machine for interactive inspection.
func NewDebugger(machine *vm.VM) *Debugger {
	return &Debugger{VM: machine, Breakpoints: NewBreakpointManager()}
}

// Run drives the line-mode REPL: it reads commands from in, writes
// responses to out, and returns when the user issues "quit" or EOF.
func Run(in io.Reader, out io.Writer, machine *vm.VM) error {
	d := NewDebugger(machine)
	scanner := bufio.NewScanner(in)

	fmt.Fprintln(out, "esiux debugger — type 'help' for commands")
	for {
		fmt.Fprint(out, "(esiux) ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		d.History = append(d.History, line)

		quit, err := d.dispatch(line, out)
		if err != nil {
			fmt.Fprintln(out, "error:", err)
		}
		if quit {
			return nil
		}
	}
}

func (d *Debugger) dispatch(line string, out io.Writer) (quit bool, err error) {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch strings.ToLower(cmd) {
	case "step", "s":
		err = d.VM.Step()
		d.printRegs(out)
	case "continue", "c":
		err = d.runUntilBreakOrHalt(out)
	case "break", "b":
		err = d.cmdBreak(args, out)
	case "regs", "r":
		d.printRegs(out)
	case "mem", "m":
		err = d.cmdMem(args, out)
	case "quit", "q":
		quit = true
	case "help", "h", "?":
		fmt.Fprintln(out, "commands: step, continue, break <addr>, regs, mem <addr> <len>, quit")
	default:
		err = fmt.Errorf("unknown command: %s (type 'help')", cmd)
	}
	return quit, err
}

func (d *Debugger) runUntilBreakOrHalt(out io.Writer) error {
	for !d.VM.Halted {
		if err := d.VM.Step(); err != nil {
			return err
		}
		pc := d.VM.Snapshot().Registers[register.PC]
		if d.Breakpoints.Has(pc) {
			fmt.Fprintf(out, "breakpoint hit at 0x%08x\n", pc)
			d.printRegs(out)
			return nil
		}
	}
	fmt.Fprintln(out, "halted")
	d.printRegs(out)
	return nil
}

func (d *Debugger) cmdBreak(args []string, out io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: break <addr>")
	}
	addr, err := parseAddress(args[0])
	if err != nil {
		return err
	}
	bp := d.Breakpoints.Add(addr)
	fmt.Fprintf(out, "breakpoint %d set at 0x%08x\n", bp.ID, addr)
	return nil
}

func (d *Debugger) cmdMem(args []string, out io.Writer) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: mem <addr> <len>")
	}
	addr, err := parseAddress(args[0])
	if err != nil {
		return err
	}
	length, err := strconv.Atoi(args[1])
	if err != nil || length <= 0 {
		return fmt.Errorf("invalid length: %s", args[1])
	}

	for i := 0; i < length; i += 16 {
		fmt.Fprintf(out, "%08x: ", addr+uint32(i))
		for j := 0; j < 16 && i+j < length; j++ {
			b, err := d.VM.Memory.ReadU8(addr + uint32(i+j))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%02x ", b)
		}
		fmt.Fprintln(out)
	}
	return nil
}

func (d *Debugger) printRegs(out io.Writer) {
	snap := d.VM.Snapshot()
	for i := 0; i < 16; i += 4 {
		for j := 0; j < 4; j++ {
			fmt.Fprintf(out, "r%-2d=0x%08x  ", i+j, snap.Registers[i+j])
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "cpsr: N=%t Z=%t C=%t V=%t  halted=%t  cycles=%d\n",
		snap.Flags.N, snap.Flags.Z, snap.Flags.C, snap.Flags.V, snap.Halted, snap.Cycles)
}

func parseAddress(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid address: %s", s)
	}
	return uint32(v), nil
}
