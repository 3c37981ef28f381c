package debugger

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/esiux/esiux/register"
	"github.com/esiux/esiux/vm"
)

// TUI is the full-screen front end over a VM, grounded on the teacher's
// tview.Flex layout (debugger/tui.go) but narrowed to a registers view
// (which also shows the CPSR flags and cycle count), a hex dump of
// memory at PC, an output log, and a command input. ESIUX has no disassembler or
// call-stack tracking, so the source/stack/disassembly views the teacher
// built around ARM symbol resolution have no equivalent here.
type TUI struct {
	Debugger *Debugger
	App      *tview.Application
	Pages    *tview.Pages

	MainLayout   *tview.Flex
	RegisterView *tview.TextView
	MemoryView   *tview.TextView
	OutputView   *tview.TextView
	CommandInput *tview.InputField

	MemoryAddress uint32
}

// NewTUI builds a TUI over debugger, laying out its views but not yet
// running the application event loop.
func NewTUI(debugger *Debugger) *TUI {
	t := &TUI{
		Debugger: debugger,
		App:      tview.NewApplication(),
	}

	t.initializeViews()
	t.buildLayout()
	t.setupKeyBindings()

	return t
}

func (t *TUI) initializeViews() {
	t.RegisterView = tview.NewTextView().SetDynamicColors(true).SetScrollable(false)
	t.RegisterView.SetBorder(true).SetTitle(" Registers / CPSR ")

	t.MemoryView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.MemoryView.SetBorder(true).SetTitle(" Memory @ PC ")

	t.OutputView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(true)
	t.OutputView.SetBorder(true).SetTitle(" Output ")

	t.CommandInput = tview.NewInputField().SetLabel("> ").SetFieldWidth(0)
	t.CommandInput.SetBorder(true).SetTitle(" Command ")
	t.CommandInput.SetDoneFunc(t.handleCommand)
}

func (t *TUI) buildLayout() {
	top := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(t.RegisterView, 0, 1, false).
		AddItem(t.MemoryView, 0, 2, false)

	t.MainLayout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(top, 0, 3, false).
		AddItem(t.OutputView, 8, 0, false).
		AddItem(t.CommandInput, 3, 0, true)

	t.Pages = tview.NewPages().AddPage("main", t.MainLayout, true, true)
}

func (t *TUI) setupKeyBindings() {
	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF5:
			t.executeCommand("continue")
			return nil
		case tcell.KeyF11:
			t.executeCommand("step")
			return nil
		case tcell.KeyCtrlC:
			t.App.Stop()
			return nil
		case tcell.KeyCtrlL:
			t.RefreshAll()
			return nil
		}
		return event
	})
}

func (t *TUI) handleCommand(key tcell.Key) {
	if key != tcell.KeyEnter {
		return
	}
	cmd := t.CommandInput.GetText()
	if cmd != "" {
		t.executeCommand(cmd)
		t.CommandInput.SetText("")
	}
}

func (t *TUI) executeCommand(cmd string) {
	var out strings.Builder
	quit, err := t.Debugger.dispatch(cmd, &out)
	if err != nil {
		t.WriteOutput(fmt.Sprintf("[red]error:[white] %v\n", err))
	}
	if out.Len() > 0 {
		t.WriteOutput(out.String())
	}
	if quit {
		t.App.Stop()
		return
	}
	t.RefreshAll()
}

// WriteOutput appends text to the output panel and scrolls to it.
func (t *TUI) WriteOutput(text string) {
	fmt.Fprint(t.OutputView, text)
	t.OutputView.ScrollToEnd()
}

// RefreshAll redraws every panel from the VM's current snapshot.
func (t *TUI) RefreshAll() {
	t.updateRegisterView()
	t.updateMemoryView()
	t.App.Draw()
}

func (t *TUI) updateRegisterView() {
	t.RegisterView.Clear()
	snap := t.Debugger.VM.Snapshot()

	var lines []string
	for i := 0; i < 4; i++ {
		var cols []string
		for j := 0; j < 4; j++ {
			reg := i*4 + j
			name := fmt.Sprintf("R%-2d", reg)
			switch register.Register(reg) {
			case register.SP:
				name = "SP "
			case register.LR:
				name = "LR "
			case register.PC:
				name = "PC "
			}
			cols = append(cols, fmt.Sprintf("%s: 0x%08X", name, snap.Registers[reg]))
		}
		lines = append(lines, strings.Join(cols, "  "))
	}

	lines = append(lines, "")

	flag := func(set bool, letter string) string {
		if set {
			return "[yellow]" + strings.ToUpper(letter) + "[white]"
		}
		return strings.ToLower(letter)
	}
	flags := flag(snap.Flags.N, "n") + flag(snap.Flags.Z, "z") + flag(snap.Flags.C, "c") + flag(snap.Flags.V, "v")
	lines = append(lines, fmt.Sprintf("Flags: %s", flags))
	lines = append(lines, fmt.Sprintf("Cycles: %d  Halted: %t", snap.Cycles, snap.Halted))

	t.RegisterView.SetText(strings.Join(lines, "\n"))
}

func (t *TUI) updateMemoryView() {
	t.MemoryView.Clear()

	addr := t.MemoryAddress
	if addr == 0 {
		addr = t.Debugger.VM.Snapshot().Registers[register.PC]
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("[yellow]Address: 0x%08X[white]", addr))

	for row := 0; row < 16; row++ {
		rowAddr := addr + uint32(row*16)
		line := fmt.Sprintf("0x%08X: ", rowAddr)

		var hexBytes []string
		var asciiBytes []byte
		for col := 0; col < 16; col++ {
			byteAddr := rowAddr + uint32(col)
			b, err := t.Debugger.VM.Memory.ReadU8(byteAddr)
			if err != nil {
				hexBytes = append(hexBytes, "??")
				asciiBytes = append(asciiBytes, '.')
				continue
			}
			hexBytes = append(hexBytes, fmt.Sprintf("%02X", b))
			if b >= 32 && b < 127 {
				asciiBytes = append(asciiBytes, b)
			} else {
				asciiBytes = append(asciiBytes, '.')
			}
		}

		line += strings.Join(hexBytes, " ") + "  " + string(asciiBytes)
		lines = append(lines, line)
	}

	t.MemoryView.SetText(strings.Join(lines, "\n"))
}

// RunTUI starts the TUI's event loop over machine until the user quits.
func RunTUI(machine *vm.VM) error {
	t := NewTUI(NewDebugger(machine))

	t.RefreshAll()
	t.WriteOutput("[green]esiux debugger[white]\n")
	t.WriteOutput("Press F11 to step, F5 to continue, Ctrl-C to quit\n\n")

	return t.App.SetRoot(t.Pages, true).SetFocus(t.CommandInput).Run()
}

// Stop halts the TUI's event loop.
func (t *TUI) Stop() {
	t.App.Stop()
}
