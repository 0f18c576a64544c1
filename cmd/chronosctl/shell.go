package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"chronos/internal/core/actions"
	"chronos/internal/core/model"
)

var errUnknownRef = errors.New("no match")

// Shell executes one command line at a time against the action service.
type Shell struct {
	service *actions.Service
	out     io.Writer
}

// NewShell creates a shell writing its replies to out.
func NewShell(service *actions.Service, out io.Writer) *Shell {
	return &Shell{service: service, out: out}
}

// Exec runs line and reports whether the user asked to quit.
func (shell *Shell) Exec(line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	var err error
	switch cmd {
	case "help", "?":
		shell.printHelp()
	case "list", "ls":
		shell.cmdList()
	case "add", "a":
		err = shell.cmdAdd(args)
	case "preset":
		err = shell.cmdPreset(args)
	case "toggle", "t":
		err = shell.withTimer(args, shell.service.ToggleTimer)
	case "reset":
		err = shell.withTimer(args, shell.service.ResetTimer)
	case "delete", "rm":
		err = shell.withTimer(args, shell.service.DeleteTimer)
	case "label":
		err = shell.cmdText(args, func(text string) model.Patch { return model.Patch{Label: &text} })
	case "note":
		err = shell.cmdText(args, func(text string) model.Patch { return model.Patch{Note: &text} })
	case "stacks":
		shell.cmdStacks()
	case "stack":
		err = shell.cmdStack(args)
	case "unstack":
		err = shell.withStack(args, shell.service.DeleteStack)
	case "run":
		err = shell.withStack(args, func(id string) {
			if timerID := shell.service.RunStack(id); timerID != "" {
				fmt.Fprintf(shell.out, "started %s\n", shortID(timerID))
			}
		})
	case "presets":
		shell.cmdPresets()
	case "save-preset":
		err = shell.cmdSavePreset(args)
	case "drop-preset":
		err = shell.service.DeletePreset(strings.Join(args, " "))
	case "space":
		shell.service.ToggleFocused()
	case "r":
		shell.service.ResetFocused()
	case "quit", "exit", "q":
		return true
	default:
		fmt.Fprintf(shell.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	if err != nil {
		fmt.Fprintf(shell.out, "error: %v\n", err)
	}
	return false
}

func (shell *Shell) printHelp() {
	fmt.Fprintln(shell.out, `
Chronos Commands:
  Timers:
    list                          - List timers (refs are list numbers or id prefixes)
    add <kind> [duration] [label] - Add timer|stopwatch|pomodoro
    preset <label>                - Add a timer from a preset
    toggle <ref>                  - Start or pause
    reset <ref>                   - Reset to the initial duration
    delete <ref>                  - Delete a timer
    label <ref> <text>            - Rename a timer
    note <ref> <text>             - Set a timer note
    space | r                     - Toggle or reset the focused timer

  Stacks:
    stacks                                  - List stacks
    stack <name> <seq|rec> <dur[=name]>...  - Create a stack
    run <stack>                             - Run a stack
    unstack <stack>                         - Delete a stack

  Presets:
    presets                              - List presets
    save-preset <kind> <duration> <label> - Save a custom preset
    drop-preset <label>                  - Delete a custom preset

  quit`)
}

func (shell *Shell) cmdList() {
	timers := shell.service.Timers()
	if len(timers) == 0 {
		fmt.Fprintln(shell.out, "no timers")
		return
	}
	focused, _ := shell.service.FocusedTimer()
	for index, timer := range timers {
		marker := " "
		if timer.ID == focused.ID {
			marker = "*"
		}
		line := fmt.Sprintf("%s%2d. %-8s %-10s %8s  %s",
			marker, index+1, shortID(timer.ID), kindName(timer),
			model.FormatClock(timer.Display(), timer.Kind.CountsDown()), timer.Label)
		if timer.HasPhases() {
			line += fmt.Sprintf(" [phase %d/%d]", timer.Stack.CurrentPhase+1, timer.PhaseCount())
		}
		line += " " + stateName(timer)
		fmt.Fprintln(shell.out, line)
	}
}

func (shell *Shell) cmdAdd(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: add <kind> [duration] [label]")
	}
	kind, err := model.ParseKind(args[0])
	if err != nil {
		return err
	}
	rest := args[1:]
	var duration time.Duration
	if kind != model.KindStopwatch {
		if len(rest) == 0 {
			return errors.New("missing duration")
		}
		duration, err = model.ParseDuration(rest[0])
		if err != nil {
			return err
		}
		rest = rest[1:]
	}
	id, err := shell.service.AddTimer(kind, duration, strings.Join(rest, " "), "")
	if err != nil {
		return err
	}
	fmt.Fprintf(shell.out, "added %s\n", shortID(id))
	return nil
}

func (shell *Shell) cmdPreset(args []string) error {
	id, err := shell.service.AddFromPreset(strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(shell.out, "added %s\n", shortID(id))
	return nil
}

func (shell *Shell) cmdText(args []string, patch func(string) model.Patch) error {
	if len(args) == 0 {
		return errors.New("missing timer")
	}
	id, err := shell.timerRef(args[0])
	if err != nil {
		return err
	}
	return shell.service.UpdateTimer(id, patch(strings.Join(args[1:], " ")))
}

func (shell *Shell) cmdStacks() {
	stacks := shell.service.Stacks()
	if len(stacks) == 0 {
		fmt.Fprintln(shell.out, "no stacks")
		return
	}
	for index, stack := range stacks {
		mode := "sequential"
		if stack.IsRecurring {
			mode = "recurring"
		}
		names := make([]string, 0, len(stack.Timers))
		for phaseIndex, phase := range stack.Timers {
			names = append(names, fmt.Sprintf("%s %s", model.PhaseName(phase, phaseIndex), phase.Duration))
		}
		fmt.Fprintf(shell.out, "%2d. %-8s %s (%s, %s): %s\n",
			index+1, shortID(stack.ID), stack.Name, mode, stack.TotalDuration(), strings.Join(names, ", "))
	}
}

func (shell *Shell) cmdStack(args []string) error {
	if len(args) < 3 {
		return errors.New("usage: stack <name> <seq|rec> <dur[=name]>...")
	}
	var recurring bool
	switch strings.ToLower(args[1]) {
	case "seq", "sequential":
	case "rec", "recurring":
		recurring = true
	default:
		return fmt.Errorf("unknown stack mode %q", args[1])
	}
	phases := make([]model.StackedTimer, 0, len(args)-2)
	for _, field := range args[2:] {
		value, name, _ := strings.Cut(field, "=")
		duration, err := model.ParseDuration(value)
		if err != nil {
			return err
		}
		phases = append(phases, model.StackedTimer{Duration: duration, Note: strings.ReplaceAll(name, "_", " ")})
	}
	stack, err := shell.service.CreateStack(strings.ReplaceAll(args[0], "_", " "), phases, recurring)
	if err != nil {
		return err
	}
	fmt.Fprintf(shell.out, "created stack %s\n", shortID(stack.ID))
	return nil
}

func (shell *Shell) cmdPresets() {
	for _, preset := range shell.service.Presets() {
		origin := "custom"
		if preset.BuiltIn {
			origin = "built-in"
		}
		fmt.Fprintf(shell.out, "  %-16s %-10s %8s  %s\n", preset.Label, preset.Kind, preset.Duration, origin)
	}
}

func (shell *Shell) cmdSavePreset(args []string) error {
	if len(args) < 3 {
		return errors.New("usage: save-preset <kind> <duration> <label>")
	}
	kind, err := model.ParseKind(args[0])
	if err != nil {
		return err
	}
	duration, err := model.ParseDuration(args[1])
	if err != nil {
		return err
	}
	return shell.service.SavePreset(model.Preset{Label: strings.Join(args[2:], " "), Kind: kind, Duration: duration})
}

func (shell *Shell) withTimer(args []string, action func(string)) error {
	if len(args) != 1 {
		return errors.New("expected one timer")
	}
	id, err := shell.timerRef(args[0])
	if err != nil {
		return err
	}
	action(id)
	return nil
}

func (shell *Shell) withStack(args []string, action func(string)) error {
	if len(args) != 1 {
		return errors.New("expected one stack")
	}
	stacks := shell.service.Stacks()
	ids := make([]string, len(stacks))
	for index, stack := range stacks {
		ids[index] = stack.ID
	}
	id, err := resolveRef(args[0], ids)
	if err != nil {
		return err
	}
	action(id)
	return nil
}

func (shell *Shell) timerRef(ref string) (string, error) {
	timers := shell.service.Timers()
	ids := make([]string, len(timers))
	for index, timer := range timers {
		ids[index] = timer.ID
	}
	return resolveRef(ref, ids)
}

// resolveRef accepts a 1-based list index or a unique id prefix.
func resolveRef(ref string, ids []string) (string, error) {
	if number, err := strconv.Atoi(ref); err == nil {
		if number < 1 || number > len(ids) {
			return "", fmt.Errorf("%w: %d", errUnknownRef, number)
		}
		return ids[number-1], nil
	}
	var match string
	for _, id := range ids {
		if strings.HasPrefix(id, ref) {
			if match != "" {
				return "", fmt.Errorf("ambiguous id prefix %q", ref)
			}
			match = id
		}
	}
	if match == "" {
		return "", fmt.Errorf("%w: %q", errUnknownRef, ref)
	}
	return match, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func kindName(timer model.Timer) string {
	switch timer.Kind {
	case model.KindStopwatch:
		return "stopwatch"
	case model.KindPomodoro:
		return strings.ToLower(string(timer.Pomodoro))
	default:
		return "timer"
	}
}

func stateName(timer model.Timer) string {
	switch {
	case timer.IsCompleted:
		return "done"
	case timer.IsRunning:
		return "running"
	default:
		return "paused"
	}
}
