package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/brensch/snekguard/game"
	"github.com/brensch/snekguard/selfplay"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("24")).
			Padding(0, 1)
	statsStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
	boardStyle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("8"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	foodStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	hazardStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	// One colour per snake slot.
	snakeColors = []lipgloss.Color{"10", "12", "11", "13", "14", "208", "141", "15"}
)

// GameUpdate is sent by a worker after each finished game.
type GameUpdate struct {
	WorkerID int
	Result   selfplay.GameResult
	Rows     int
}

// TurnUpdate carries the latest board of the watched worker.
type TurnUpdate struct {
	selfplay.Turn
}

type tickMsg time.Time

type model struct {
	updates <-chan tea.Msg

	startTime   time.Time
	games       int
	turns       int
	rows        int
	fallbacks   int
	surprises   int
	wins        map[string]int
	recentGames []string
	board       *game.GameState
	boardGame   string
}

func initialModel(updates <-chan tea.Msg) model {
	return model{
		updates:   updates,
		startTime: time.Now(),
		wins:      make(map[string]int),
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForUpdate(updates <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-updates
		if !ok {
			return tea.Quit()
		}
		return msg
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitForUpdate(m.updates), tickCmd())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case tickMsg:
		return m, tickCmd()
	case TurnUpdate:
		m.board = msg.State
		m.boardGame = msg.GameID
		return m, waitForUpdate(m.updates)
	case GameUpdate:
		m.apply(msg)
		return m, waitForUpdate(m.updates)
	}
	return m, nil
}

func (m *model) apply(u GameUpdate) {
	m.games++
	m.turns += u.Result.Turns
	m.rows += u.Rows
	m.fallbacks += u.Result.Fallbacks
	m.surprises += u.Result.Surprises

	winner := u.Result.WinnerId
	if winner == "" {
		winner = "draw"
	}
	m.wins[winner]++

	line := fmt.Sprintf("worker %d: %s in %d turns (fallbacks %d, surprises %d)",
		u.WorkerID, winner, u.Result.Turns, u.Result.Fallbacks, u.Result.Surprises)
	m.recentGames = append([]string{line}, m.recentGames...)
	if len(m.recentGames) > 8 {
		m.recentGames = m.recentGames[:8]
	}
}

func (m model) View() string {
	elapsed := time.Since(m.startTime)
	gamesPerSec := 0.0
	if elapsed > time.Second {
		gamesPerSec = float64(m.games) / elapsed.Seconds()
	}
	avgTurns := 0.0
	if m.games > 0 {
		avgTurns = float64(m.turns) / float64(m.games)
	}

	stats := fmt.Sprintf("Games:      %d (%.2f/s)\n", m.games, gamesPerSec)
	stats += fmt.Sprintf("Avg turns:  %.1f\n", avgTurns)
	stats += fmt.Sprintf("Decisions:  %d\n", m.rows)
	stats += fmt.Sprintf("Fallbacks:  %d\n", m.fallbacks)
	stats += fmt.Sprintf("Surprises:  %d\n", m.surprises)
	stats += fmt.Sprintf("Draws:      %d\n", m.wins["draw"])
	stats += fmt.Sprintf("Elapsed:    %s", elapsed.Round(time.Second))

	top := lipgloss.JoinHorizontal(lipgloss.Top, statsStyle.Render(stats), " ", m.renderBoard())

	var recent strings.Builder
	recent.WriteString("Recent games:\n")
	for _, g := range m.recentGames {
		recent.WriteString(g + "\n")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("snekguard arena"),
		top,
		recent.String(),
		dimStyle.Render("Press q to quit."),
	)
}

func (m model) renderBoard() string {
	if m.board == nil {
		return boardStyle.Render(dimStyle.Render("waiting for a game"))
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s turn %d\n", m.boardGame, m.board.Turn)
	for _, row := range selfplay.Board(m.board) {
		for x, r := range row {
			if x > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(styleCell(r))
		}
		sb.WriteByte('\n')
	}
	return boardStyle.Render(strings.TrimRight(sb.String(), "\n"))
}

func styleCell(r rune) string {
	switch {
	case r == selfplay.CellFood:
		return foodStyle.Render(string(r))
	case r == selfplay.CellHazard:
		return hazardStyle.Render(string(r))
	case r >= 'A' && r < 'A'+rune(len(snakeColors)):
		return lipgloss.NewStyle().Bold(true).Foreground(snakeColors[r-'A']).Render("●")
	case r >= 'a' && r < 'a'+rune(len(snakeColors)):
		return lipgloss.NewStyle().Foreground(snakeColors[r-'a']).Render("○")
	}
	return dimStyle.Render(string(r))
}
