package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"keel/internal/buildpipeline"
)

// unit is one file row: a strip with a cell per pipeline stage.
type unit struct {
	path string
	// at is the stage in flight, or the failing one once outcome is set.
	at      int
	outcome buildpipeline.Status
	err     string
	elapsed time.Duration
}

func (u *unit) finished() bool { return u.outcome != "" }

// fraction is 1 for finished units and at/len(Stages) otherwise.
func (u *unit) fraction() float64 {
	if u.finished() {
		return 1
	}
	if u.at < 0 {
		return 0
	}
	return float64(u.at) / float64(len(buildpipeline.Stages))
}

type progressEvent buildpipeline.Event
type eventsClosed struct{}

type buildView struct {
	title  string
	events <-chan buildpipeline.Event
	spin   spinner.Model
	bar    progress.Model
	units  []unit
	byPath map[string]int
	cols   int
	closed bool
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	busyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	dimStyle   = lipgloss.NewStyle().Faint(true)
)

// NewProgressModel shows a stage strip per file until events is closed.
func NewProgressModel(title string, files []string, events <-chan buildpipeline.Event) tea.Model {
	v := &buildView{
		title:  title,
		events: events,
		spin:   spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(busyStyle)),
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		units:  make([]unit, len(files)),
		byPath: make(map[string]int, len(files)),
	}
	for i, f := range files {
		v.units[i] = unit{path: f, at: -1}
		v.byPath[f] = i
	}
	v.resize(80)
	return v
}

func (v *buildView) resize(cols int) {
	v.cols = cols
	v.bar.Width = max(cols-4, 10)
}

func (v *buildView) next() tea.Msg {
	ev, ok := <-v.events
	if !ok {
		return eventsClosed{}
	}
	return progressEvent(ev)
}

func (v *buildView) Init() tea.Cmd {
	return tea.Batch(v.spin.Tick, v.next)
}

func (v *buildView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressEvent:
		return v, tea.Batch(v.record(buildpipeline.Event(msg)), v.next)
	case eventsClosed:
		v.closed = true
		return v, tea.Quit
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return v, tea.Quit
		}
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			v.resize(msg.Width)
		}
	case spinner.TickMsg:
		if v.closed {
			return v, nil
		}
		var cmd tea.Cmd
		v.spin, cmd = v.spin.Update(msg)
		return v, cmd
	case progress.FrameMsg:
		m, cmd := v.bar.Update(msg)
		v.bar = m.(progress.Model)
		return v, cmd
	}
	return v, nil
}

// record applies ev to its unit; events for unknown files are dropped.
func (v *buildView) record(ev buildpipeline.Event) tea.Cmd {
	i, ok := v.byPath[ev.File]
	if !ok {
		return nil
	}
	u := &v.units[i]
	switch ev.Status {
	case buildpipeline.StatusWorking:
		u.at = ev.Stage.Index()
	case buildpipeline.StatusError:
		// Stage of a failure event is the last stage that succeeded
		u.at = ev.Stage.Index() + 1
		u.outcome = ev.Status
		if ev.Err != nil {
			u.err = ev.Err.Error()
		}
	case buildpipeline.StatusDone, buildpipeline.StatusCached:
		u.at = ev.Stage.Index()
		u.outcome = ev.Status
	}
	if ev.Elapsed > 0 {
		u.elapsed = ev.Elapsed
	}
	return v.bar.SetPercent(v.completion())
}

func (v *buildView) completion() float64 {
	if len(v.units) == 0 {
		return 0
	}
	sum := 0.0
	for i := range v.units {
		sum += v.units[i].fraction()
	}
	return sum / float64(len(v.units))
}

func (v *buildView) counts() (ok, cached, failed int) {
	for i := range v.units {
		switch v.units[i].outcome {
		case buildpipeline.StatusDone:
			ok++
		case buildpipeline.StatusCached:
			cached++
		case buildpipeline.StatusError:
			failed++
		}
	}
	return ok, cached, failed
}

func (v *buildView) View() string {
	if len(v.units) == 0 {
		return ""
	}
	var b strings.Builder
	lead := v.spin.View()
	if v.closed {
		lead = okStyle.Render("✓")
	}
	ok, cached, failed := v.counts()
	fmt.Fprintf(&b, "%s %s  %s\n\n", lead, titleStyle.Render(v.title),
		dimStyle.Render(fmt.Sprintf("%d/%d built, %d cached, %d failed", ok+cached+failed, len(v.units), cached, failed)))

	strip := len(buildpipeline.Stages)
	const label = 10
	pathCols := max(v.cols-strip-label-8, 16)
	for i := range v.units {
		u := &v.units[i]
		fmt.Fprintf(&b, "  %s %-*s %s", v.strip(u), label, stateLabel(u), truncate(u.path, pathCols))
		if u.elapsed > 0 {
			b.WriteString(dimStyle.Render(" " + u.elapsed.Round(time.Millisecond).String()))
		}
		b.WriteByte('\n')
		if u.err != "" {
			b.WriteString("    " + failStyle.Render(truncate(u.err, max(v.cols-4, 16))) + "\n")
		}
	}
	b.WriteByte('\n')
	if v.closed {
		b.WriteString(v.bar.ViewAs(1))
	} else {
		b.WriteString(v.bar.View())
	}
	b.WriteByte('\n')
	return b.String()
}

// strip renders one cell per stage: ■ ran, ▸ running, ✗ failed, · pending.
func (v *buildView) strip(u *unit) string {
	var b strings.Builder
	for i := range buildpipeline.Stages {
		switch {
		case u.outcome == buildpipeline.StatusError && i == u.at:
			b.WriteString(failStyle.Render("✗"))
		case u.finished() && i <= u.at, i < u.at:
			b.WriteString(okStyle.Render("■"))
		case !u.finished() && i == u.at:
			b.WriteString(busyStyle.Render("▸"))
		default:
			b.WriteString(dimStyle.Render("·"))
		}
	}
	return b.String()
}

func stateLabel(u *unit) string {
	switch {
	case u.finished():
		return string(u.outcome)
	case u.at >= 0:
		return string(buildpipeline.Stages[u.at])
	default:
		return string(buildpipeline.StatusQueued)
	}
}

// truncate cuts value to width display columns, "..." included.
func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
