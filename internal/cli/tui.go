package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/causalite/causalite/pkg/data"
	"github.com/causalite/causalite/pkg/search"
	"github.com/causalite/causalite/pkg/search/boss"
)

// =============================================================================
// SearchModel - Live search progress view
// =============================================================================

// searchEventMsg carries a progress event from the running search.
type searchEventMsg boss.Event

// searchDoneMsg signals that the search goroutine has finished.
type searchDoneMsg struct {
	res *search.Result
	err error
}

// tickMsg drives the spinner animation.
type tickMsg time.Time

var searchFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// SearchModel is the bubbletea model showing live search progress: the
// current restart, sweep phase, and best score, updated from boss events.
// Pressing q or ctrl+c cancels the search via the model's cancel func; the
// search then winds down and returns a partial result with a cancelled
// status rather than being killed mid-move.
type SearchModel struct {
	Dataset   string
	Algorithm search.Algorithm

	cancel context.CancelFunc
	frame  int
	events int

	restart   int
	phase     string
	score     float64
	haveScore bool

	res *search.Result
	err error
}

// NewSearchModel creates a progress model for a search over the named dataset.
func NewSearchModel(dataset string, algorithm search.Algorithm, cancel context.CancelFunc) SearchModel {
	return SearchModel{Dataset: dataset, Algorithm: algorithm, cancel: cancel}
}

func tickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m SearchModel) Init() tea.Cmd {
	return tickCmd()
}

func (m SearchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.cancel()
			return m, nil
		}
	case tickMsg:
		m.frame++
		return m, tickCmd()
	case searchEventMsg:
		m.events++
		m.restart = msg.Restart
		m.phase = string(msg.Phase)
		m.score = msg.Score
		m.haveScore = true
		return m, nil
	case searchDoneMsg:
		m.res = msg.res
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m SearchModel) View() string {
	if m.res != nil || m.err != nil {
		return ""
	}

	var b strings.Builder
	frame := searchFrames[m.frame%len(searchFrames)]
	b.WriteString(styleIconSpinner.Render(frame))
	b.WriteString(" ")
	b.WriteString(StyleValue.Render(fmt.Sprintf("Searching %s", m.Dataset)))
	b.WriteString(StyleDim.Render(fmt.Sprintf(" (%s)", m.Algorithm)))
	b.WriteString("\n")

	if m.haveScore {
		b.WriteString("  ")
		b.WriteString(StyleDim.Render(fmt.Sprintf("restart %d", m.restart+1)))
		b.WriteString(StyleDim.Render(" · "))
		b.WriteString(StyleDim.Render(m.phase))
		b.WriteString(StyleDim.Render(" · "))
		b.WriteString(StyleHighlight.Render(fmt.Sprintf("score %.2f", m.score)))
		b.WriteString(StyleDim.Render(fmt.Sprintf(" · %d improvements", m.events)))
	} else {
		b.WriteString("  ")
		b.WriteString(StyleDim.Render("scoring initial order"))
	}
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("  q to cancel"))
	b.WriteString("\n")
	return b.String()
}

// searchWithView runs the search behind the interactive progress view.
// The search runs in a goroutine and feeds events into the program; the
// returned result reflects cancellation as a status, not an error.
func (c *CLI) searchWithView(ctx context.Context, d *data.Dataset, opts search.Options, dataset string) (*search.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewSearchModel(dataset, opts.Algorithm, cancel), tea.WithOutput(os.Stderr))
	opts.Progress = func(ev boss.Event) {
		p.Send(searchEventMsg(ev))
	}

	go func() {
		res, err := search.Run(ctx, d, opts)
		p.Send(searchDoneMsg{res: res, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		cancel() // stop the search goroutine; sends to a dead program are dropped
		return nil, err
	}
	m := final.(SearchModel)
	if m.err != nil {
		printError("Search failed")
		return nil, m.err
	}
	printSuccess("Search finished: score %.2f", m.res.Score)
	return m.res, nil
}
