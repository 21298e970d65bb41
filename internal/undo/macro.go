package undo

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/msalah0e/nodecanvas/internal/layout"
)

var (
	ErrMacroNesting = errors.New("macro command already open")
	ErrNoOpenMacro  = errors.New("no macro command open")
)

// Macro is an ordered group of commands recorded as one history entry.
type Macro struct {
	Label    string
	Commands []Command
}

func (m *Macro) Name() string { return m.Label }

func (m *Macro) Do(l *layout.Layout) error {
	for i, cmd := range m.Commands {
		if err := cmd.Do(l); err != nil {
			// Leave the layout as it was before this Do.
			for j := i - 1; j >= 0; j-- {
				_ = m.Commands[j].Undo(l)
			}
			return fmt.Errorf("%s: %w", cmd.Name(), err)
		}
	}
	return nil
}

func (m *Macro) Undo(l *layout.Layout) error {
	for i := len(m.Commands) - 1; i >= 0; i-- {
		if err := m.Commands[i].Undo(l); err != nil {
			return fmt.Errorf("%s: %w", m.Commands[i].Name(), err)
		}
	}
	return nil
}

// Recorder is the single entry point for edits made by the editor. It
// executes commands against the layout and either records them one by one
// or, between StartMacroCommand and CompleteMacroCommand, collects them
// into one Macro.
type Recorder struct {
	layout *layout.Layout
	stack  Stack
	log    *zap.Logger
	debug  bool

	open *Macro
}

// NewRecorder creates a recorder. In debug mode macro imbalance panics
// instead of being reported as an error.
func NewRecorder(l *layout.Layout, stack Stack, log *zap.Logger, debug bool) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{layout: l, stack: stack, log: log, debug: debug}
}

// Layout returns the layout the recorder edits.
func (r *Recorder) Layout() *layout.Layout {
	return r.layout
}

// Depth returns 1 while a macro is open and 0 otherwise.
func (r *Recorder) Depth() int {
	if r.open != nil {
		return 1
	}
	return 0
}

// StartMacroCommand opens a macro. Macros do not nest.
func (r *Recorder) StartMacroCommand(label string) error {
	if r.open != nil {
		return r.violation(fmt.Errorf("start %q while %q is open: %w", label, r.open.Label, ErrMacroNesting))
	}
	r.open = &Macro{Label: label}
	return nil
}

// CompleteMacroCommand closes the open macro and records it. Empty macros
// are dropped.
func (r *Recorder) CompleteMacroCommand() error {
	if r.open == nil {
		return r.violation(ErrNoOpenMacro)
	}
	m := r.open
	r.open = nil
	if len(m.Commands) > 0 {
		r.stack.Add(m)
	}
	return nil
}

// Abort rolls back every command executed in the open macro and discards it.
func (r *Recorder) Abort() error {
	if r.open == nil {
		return r.violation(ErrNoOpenMacro)
	}
	m := r.open
	r.open = nil
	if err := m.Undo(r.layout); err != nil {
		r.log.Error("rolling back macro failed", zap.String("macro", m.Label), zap.Error(err))
		return err
	}
	r.log.Debug("macro rolled back", zap.String("macro", m.Label), zap.Int("commands", len(m.Commands)))
	return nil
}

// Execute runs cmd. Inside a macro it joins the macro, otherwise it is
// recorded on its own.
func (r *Recorder) Execute(cmd Command) error {
	if r.open == nil {
		return r.stack.AddAndExecute(cmd)
	}
	if err := cmd.Do(r.layout); err != nil {
		return fmt.Errorf("%s: %w", cmd.Name(), err)
	}
	r.open.Commands = append(r.open.Commands, cmd)
	return nil
}

// ExecuteTransient runs cmd without recording it. It is meant for
// transient state that never reaches history, such as placeholder items
// and live drag previews.
func (r *Recorder) ExecuteTransient(cmd Command) error {
	return cmd.Do(r.layout)
}

// Do brackets fn in a macro: it is completed when fn succeeds and rolled
// back when fn fails.
func (r *Recorder) Do(label string, fn func() error) error {
	if err := r.StartMacroCommand(label); err != nil {
		return err
	}
	if err := fn(); err != nil {
		if abortErr := r.Abort(); abortErr != nil {
			return errors.Join(err, abortErr)
		}
		return err
	}
	return r.CompleteMacroCommand()
}

func (r *Recorder) violation(err error) error {
	if r.debug {
		panic(err)
	}
	r.log.Error("macro command imbalance", zap.Error(err))
	return err
}
