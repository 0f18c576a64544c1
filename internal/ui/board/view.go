package board

import (
	"fmt"
	"strings"

	"chronos/internal/core/model"
)

// View is the display state of one timer card.
type View struct {
	Title     string
	Note      string
	Clock     string
	Phase     string
	Badge     string
	Toggle    string
	Progress  float64
	Running   bool
	Completed bool
}

// NewView derives the card contents from a timer snapshot.
func NewView(timer model.Timer) View {
	view := View{
		Title:     timer.Label,
		Note:      timer.Note,
		Clock:     model.FormatClock(timer.Display(), timer.Kind.CountsDown()),
		Badge:     badge(timer),
		Progress:  timer.Progress(),
		Running:   timer.IsRunning,
		Completed: timer.IsCompleted,
	}
	if timer.HasPhases() {
		view.Phase = fmt.Sprintf("Phase %d/%d", timer.Stack.CurrentPhase+1, timer.PhaseCount())
	}
	switch {
	case timer.IsCompleted:
		view.Toggle = "Restart"
	case timer.IsRunning:
		view.Toggle = "Pause"
	default:
		view.Toggle = "Start"
	}
	return view
}

func badge(timer model.Timer) string {
	switch timer.Kind {
	case model.KindStopwatch:
		return "Stopwatch"
	case model.KindPomodoro:
		switch timer.Pomodoro {
		case model.PomodoroShortBreak:
			return "Short break"
		case model.PomodoroLongBreak:
			return "Long break"
		default:
			return "Focus"
		}
	default:
		if timer.HasPhases() {
			return "Stack"
		}
		return "Timer"
	}
}

// ParsePhases reads one phase per non-blank line:
//
//	<duration> [name] [| description]
func ParsePhases(text string) ([]model.StackedTimer, error) {
	var phases []model.StackedTimer
	for number, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		head, description, _ := strings.Cut(line, "|")
		fields := strings.Fields(head)
		if len(fields) == 0 {
			return nil, fmt.Errorf("line %d: missing duration", number+1)
		}
		duration, err := model.ParseDuration(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", number+1, err)
		}
		phases = append(phases, model.StackedTimer{
			Duration:    duration,
			Note:        strings.Join(fields[1:], " "),
			Description: strings.TrimSpace(description),
		})
	}
	if len(phases) == 0 {
		return nil, model.ErrEmptyPhases
	}
	return phases, nil
}

// KindOptions are the add-form choices in display order.
var KindOptions = []string{"Timer", "Stopwatch", "Pomodoro"}

// KindFromOption maps an add-form choice to a timer kind.
func KindFromOption(option string) model.Kind {
	switch option {
	case "Stopwatch":
		return model.KindStopwatch
	case "Pomodoro":
		return model.KindPomodoro
	default:
		return model.KindCountdown
	}
}

func sameIDs(timers []model.Timer, cards []*card) bool {
	if len(timers) != len(cards) {
		return false
	}
	for index, timer := range timers {
		if cards[index].id != timer.ID {
			return false
		}
	}
	return true
}
