package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/wricardo/obstacle-course/desktop/board"
	"github.com/wricardo/obstacle-course/desktop/remote"
)

const (
	cellSize     = 100
	gridX        = 20
	gridY        = 90
	panelX       = gridX + cellSize*remote.GridSize + 30
	screenWidth  = 900
	screenHeight = 620
	pollInterval = time.Second
	maxAnswerLen = 200
)

// ScreenType represents different screens in the app
type ScreenType int

const (
	ScreenSelect ScreenType = iota
	ScreenGame
)

var (
	colorBackground = color.RGBA{30, 30, 40, 255}
	colorHidden     = color.RGBA{60, 90, 160, 255}
	colorIncorrect  = color.RGBA{90, 90, 90, 255}
	colorCursor     = color.RGBA{255, 210, 0, 255}
	colorPrompt     = color.RGBA{15, 15, 20, 235}
)

// SelectScreen manages the session selection screen state
type SelectScreen struct {
	sessions  []remote.SessionListItem
	sets      []remote.QuestionSetItem
	cursor    int
	setCursor int
	errorMsg  string
}

// Game represents the desktop game client
type Game struct {
	client *remote.Client
	screen ScreenType
	menu   *SelectScreen

	// Active session
	sessionID  string
	state      *remote.GameState
	stateMutex sync.Mutex
	updates    chan *remote.GameState
	wsConn     *websocket.Conn
	polling    bool
	lastPoll   time.Time
	tiles      map[[2]int]*ebiten.Image
	cursorRow  int
	cursorCol  int
	prompt     *board.TextField
	notice     string
}

// NewGame creates the client. With a session ID it opens that session
// straight away, otherwise it shows the selection screen.
func NewGame(client *remote.Client, sessionID string) *Game {
	g := &Game{
		client: client,
		menu:   &SelectScreen{},
		tiles:  make(map[[2]int]*ebiten.Image),
	}
	if sessionID != "" {
		g.openSession(sessionID)
	} else {
		g.loadSelectData()
	}
	return g
}

// loadSelectData fetches available sessions and question sets
func (g *Game) loadSelectData() {
	g.screen = ScreenSelect
	g.menu.errorMsg = ""

	sessions, err := g.client.ListSessions()
	if err != nil {
		g.menu.errorMsg = fmt.Sprintf("Error loading sessions: %v", err)
		return
	}
	g.menu.sessions = sessions

	sets, err := g.client.ListQuestionSets()
	if err != nil {
		g.menu.errorMsg = fmt.Sprintf("Error loading question sets: %v", err)
		return
	}
	g.menu.sets = sets

	if g.menu.cursor >= len(sessions) {
		g.menu.cursor = 0
	}
	if g.menu.setCursor >= len(sets) {
		g.menu.setCursor = 0
	}
}

// openSession switches to the game screen for a session and starts live updates
func (g *Game) openSession(sessionID string) {
	g.closeSession()

	state, err := g.client.State(sessionID)
	if err != nil {
		g.menu.errorMsg = fmt.Sprintf("Cannot open session %s: %v", sessionID, err)
		g.screen = ScreenSelect
		return
	}

	g.sessionID = sessionID
	g.tiles = make(map[[2]int]*ebiten.Image)
	g.setState(state)
	g.updates = make(chan *remote.GameState, 16)
	g.screen = ScreenGame
	g.notice = ""

	conn, err := g.client.Dial(sessionID)
	if err != nil {
		log.Printf("WebSocket unavailable for %s: %v (falling back to polling)", sessionID, err)
		g.polling = true
		return
	}
	g.wsConn = conn
	g.polling = false
	go g.listenWebSocket(conn, g.updates)
}

func (g *Game) closeSession() {
	if g.wsConn != nil {
		g.wsConn.Close()
		g.wsConn = nil
	}
	g.prompt = nil
	g.sessionID = ""
}

// listenWebSocket forwards pushed states until the connection drops
func (g *Game) listenWebSocket(conn *websocket.Conn, updates chan<- *remote.GameState) {
	for {
		state, err := remote.ReadState(conn)
		if err != nil {
			log.Printf("WebSocket closed: %v", err)
		}
		// Never block once the session has been closed and nobody drains
		select {
		case updates <- state:
		default:
		}
		if err != nil {
			return
		}
	}
}

func (g *Game) setState(state *remote.GameState) {
	g.stateMutex.Lock()
	defer g.stateMutex.Unlock()

	// A reset hides every square again
	if state.TotalActions == 0 && len(g.tiles) > 0 {
		g.tiles = make(map[[2]int]*ebiten.Image)
	}
	g.state = state
}

func (g *Game) currentState() *remote.GameState {
	g.stateMutex.Lock()
	defer g.stateMutex.Unlock()
	return g.state
}

// drainUpdates applies pushed states, or polls when live updates are down
func (g *Game) drainUpdates() {
	for {
		select {
		case state := <-g.updates:
			if state == nil {
				g.polling = true
				continue
			}
			g.setState(state)
		default:
			if g.polling && time.Since(g.lastPoll) > pollInterval {
				g.lastPoll = time.Now()
				if state, err := g.client.State(g.sessionID); err == nil {
					g.setState(state)
				} else {
					g.notice = err.Error()
				}
			}
			return
		}
	}
}

// loadTiles downloads tiles for squares that were revealed since the last frame
func (g *Game) loadTiles(state *remote.GameState) {
	for row := 0; row < remote.GridSize; row++ {
		for col := 0; col < remote.GridSize; col++ {
			key := [2]int{row, col}
			if !state.Revealed[row][col] || g.tiles[key] != nil {
				continue
			}
			img, err := g.client.Tile(g.sessionID, row, col)
			if err != nil {
				log.Printf("Tile %d,%d: %v", row, col, err)
				continue
			}
			g.tiles[key] = ebiten.NewImageFromImage(img)
		}
	}
}

// Update updates game logic
func (g *Game) Update() error {
	switch g.screen {
	case ScreenSelect:
		g.updateSelectScreen()
	case ScreenGame:
		g.updateGameScreen()
	}
	return nil
}

func (g *Game) updateSelectScreen() {
	m := g.menu
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		g.loadSelectData()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && m.cursor < len(m.sessions)-1 {
		m.cursor++
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && m.cursor > 0 {
		m.cursor--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) && len(m.sets) > 0 {
		m.setCursor = (m.setCursor + 1) % len(m.sets)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		if len(m.sets) == 0 {
			m.errorMsg = "No question sets available"
			return
		}
		id, err := g.client.CreateSession(m.sets[m.setCursor].ID)
		if err != nil {
			m.errorMsg = fmt.Sprintf("Error creating session: %v", err)
			return
		}
		log.Printf("Created new session: %s (question set %s)", id, m.sets[m.setCursor].ID)
		g.openSession(id)
		return
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		if len(m.sessions) == 0 {
			m.errorMsg = "No sessions yet. Press N to create one."
			return
		}
		g.openSession(m.sessions[m.cursor].ID)
	}
}

func (g *Game) updateGameScreen() {
	g.drainUpdates()
	state := g.currentState()
	if state == nil {
		return
	}
	g.loadTiles(state)

	if g.prompt != nil && state.Phase == remote.PhaseFinished {
		g.prompt = nil
	}
	if g.prompt != nil {
		g.updatePrompt()
		return
	}

	if state.Phase == remote.PhaseFinalGuess {
		label := "All squares are open. What is the obstacle?"
		if state.Pending != nil {
			label = state.Pending.Prompt
		}
		g.prompt = board.NewTextField(board.PromptFinal, 0, label, maxAnswerLen)
		g.prompt.Hint = state.FinalHint
		return
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && g.cursorRow > 0 {
		g.cursorRow--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && g.cursorRow < remote.GridSize-1 {
		g.cursorRow++
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft) && g.cursorCol > 0 {
		g.cursorCol--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowRight) && g.cursorCol < remote.GridSize-1 {
		g.cursorCol++
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		if row, col, ok := board.CellAt(x, y, gridX, gridY, cellSize); ok {
			g.cursorRow, g.cursorCol = row, col
			g.openSquarePrompt()
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		g.openSquarePrompt()
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyG) && state.Phase == remote.PhasePlaying {
		label := fmt.Sprintf("%s, what is the obstacle?", board.TeamName(state.CurrentTeam))
		g.prompt = board.NewTextField(board.PromptObstacle, 0, label, maxAnswerLen)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		if err := g.client.Reset(g.sessionID); err != nil {
			g.notice = err.Error()
		} else if state, err := g.client.State(g.sessionID); err == nil {
			g.setState(state)
			g.notice = "Game reset"
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.closeSession()
		g.loadSelectData()
	}
}

// openSquarePrompt asks the server for the question behind the cursor square
func (g *Game) openSquarePrompt() {
	square := board.Layout[g.cursorRow][g.cursorCol]
	req, err := g.client.Prompt(g.sessionID, square)
	if err != nil {
		g.notice = err.Error()
		return
	}
	g.prompt = board.NewTextField(board.PromptSquare, square, req.Prompt, maxAnswerLen)
	g.prompt.Hint = req.Hint
}

func (g *Game) updatePrompt() {
	g.prompt.Append(ebiten.AppendInputChars(nil))
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		g.prompt.Backspace()
	}
	answer := g.prompt.Value()
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		// A skipped square still uses up the turn; an obstacle guess is optional.
		switch g.prompt.Kind {
		case board.PromptFinal:
			return
		case board.PromptObstacle:
			g.prompt = nil
			return
		}
		answer = ""
	case !inpututil.IsKeyJustPressed(ebiten.KeyEnter) || !g.prompt.Ready():
		return
	}

	var (
		resp *remote.ActionResponse
		err  error
	)
	switch g.prompt.Kind {
	case board.PromptSquare:
		resp, err = g.client.Attempt(g.sessionID, g.prompt.Square, answer)
	case board.PromptObstacle:
		resp, err = g.client.GuessObstacle(g.sessionID, answer)
	case board.PromptFinal:
		resp, err = g.client.FinalGuess(g.sessionID, answer)
	}
	g.prompt = nil
	if err != nil {
		g.notice = err.Error()
		return
	}
	g.notice = resp.Result.Message
	if resp.GameState != nil {
		g.setState(resp.GameState)
	}
}

// Draw renders the game
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(colorBackground)
	switch g.screen {
	case ScreenSelect:
		g.drawSelectScreen(screen)
	case ScreenGame:
		g.drawGameScreen(screen)
	}
}

func (g *Game) drawSelectScreen(screen *ebiten.Image) {
	m := g.menu
	y := 20
	ebitenutil.DebugPrintAt(screen, "=== OBSTACLE COURSE - SESSION SELECT ===", 20, y)
	y += 30

	if m.errorMsg != "" {
		ebitenutil.DebugPrintAt(screen, "ERROR: "+m.errorMsg, 20, y)
		y += 25
	}

	ebitenutil.DebugPrintAt(screen, "Sessions:", 20, y)
	y += 20
	if len(m.sessions) == 0 {
		ebitenutil.DebugPrintAt(screen, "  No sessions found. Press N to create one.", 20, y)
		y += 20
	}
	for i, s := range m.sessions {
		marker := "  "
		if i == m.cursor {
			marker = "> "
		}
		line := fmt.Sprintf("%s%s  set %s %s", marker, s.ID, s.QuestionSetID, s.QuestionSetName)
		if s.GameState != nil {
			line += fmt.Sprintf("  [%s]", s.GameState.Phase)
		}
		ebitenutil.DebugPrintAt(screen, line, 20, y)
		y += 18
	}

	y += 20
	ebitenutil.DebugPrintAt(screen, "Question sets (TAB to cycle):", 20, y)
	y += 20
	for i, set := range m.sets {
		marker := "  "
		if i == m.setCursor {
			marker = "* "
		}
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%s%s - %s (%d hints)", marker, set.ID, set.Name, set.HintCount), 20, y)
		y += 18
	}

	y += 30
	for _, line := range []string{
		"CONTROLS:",
		"  UP/DOWN  - Choose session",
		"  ENTER    - Open session",
		"  TAB      - Cycle question set",
		"  N        - New session with the selected question set",
		"  F5       - Refresh",
	} {
		ebitenutil.DebugPrintAt(screen, line, 20, y)
		y += 16
	}
}

func (g *Game) drawGameScreen(screen *ebiten.Image) {
	state := g.currentState()
	if state == nil {
		ebitenutil.DebugPrint(screen, "Loading...")
		return
	}

	mode := "live"
	if g.polling {
		mode = "polling"
	}
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("Session %s  |  question set %s  |  %s", g.sessionID, state.QuestionSetID, mode), gridX, 20)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("Phase: %s", state.Phase), gridX, 45)

	for row := 0; row < remote.GridSize; row++ {
		for col := 0; col < remote.GridSize; col++ {
			g.drawSquare(screen, state, row, col)
		}
	}

	if state.Phase != remote.PhaseFinished {
		x := float64(gridX + g.cursorCol*cellSize)
		y := float64(gridY + g.cursorRow*cellSize)
		ebitenutil.DrawRect(screen, x, y, cellSize, 3, colorCursor)
		ebitenutil.DrawRect(screen, x, y+cellSize-3, cellSize, 3, colorCursor)
		ebitenutil.DrawRect(screen, x, y, 3, cellSize, colorCursor)
		ebitenutil.DrawRect(screen, x+cellSize-3, y, 3, cellSize, colorCursor)
	}

	g.drawPanel(screen, state)

	ebitenutil.DebugPrintAt(screen, "Arrows/click: choose | ENTER: answer | G: guess obstacle | R: reset | ESC: menu", gridX, screenHeight-20)

	if g.prompt != nil {
		g.drawPrompt(screen)
	}
}

func (g *Game) drawSquare(screen *ebiten.Image, state *remote.GameState, row, col int) {
	x := float64(gridX + col*cellSize)
	y := float64(gridY + row*cellSize)

	switch board.SquareStatus(state, row, col) {
	case board.Correct:
		if tile := g.tiles[[2]int{row, col}]; tile != nil {
			op := &ebiten.DrawImageOptions{}
			b := tile.Bounds()
			op.GeoM.Scale(float64(cellSize)/float64(b.Dx()), float64(cellSize)/float64(b.Dy()))
			op.GeoM.Translate(x, y)
			screen.DrawImage(tile, op)
			return
		}
		ebitenutil.DrawRect(screen, x+1, y+1, cellSize-2, cellSize-2, colorHidden)
	case board.Incorrect:
		ebitenutil.DrawRect(screen, x+1, y+1, cellSize-2, cellSize-2, colorIncorrect)
		ebitenutil.DebugPrintAt(screen, "X", int(x)+cellSize/2-3, int(y)+cellSize/2-8)
	default:
		ebitenutil.DrawRect(screen, x+1, y+1, cellSize-2, cellSize-2, colorHidden)
		square := board.Layout[row][col]
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%d", square), int(x)+cellSize/2-6, int(y)+cellSize/2-8)
	}
}

func (g *Game) drawPanel(screen *ebiten.Image, state *remote.GameState) {
	y := gridY
	ebitenutil.DebugPrintAt(screen, "SCORES", panelX, y)
	y += 20
	for _, line := range board.Scoreboard(state) {
		ebitenutil.DebugPrintAt(screen, line, panelX, y)
		y += 18
	}

	if hints := board.HintLines(state); len(hints) > 0 {
		y += 15
		ebitenutil.DebugPrintAt(screen, "HINTS", panelX, y)
		y += 20
		for _, line := range hints {
			ebitenutil.DebugPrintAt(screen, line, panelX, y)
			y += 18
		}
	}
	if state.FinalHint != "" {
		y += 10
		ebitenutil.DebugPrintAt(screen, "Final hint: "+state.FinalHint, panelX, y)
		y += 18
	}

	if state.Phase == remote.PhaseFinished {
		y += 15
		names := make([]string, 0, remote.NumTeams)
		for _, team := range board.Winners(state) {
			names = append(names, board.TeamName(team))
		}
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("GAME OVER (%s)", state.Outcome), panelX, y)
		y += 18
		ebitenutil.DebugPrintAt(screen, "Winner: "+strings.Join(names, ", "), panelX, y)
		y += 18
	}

	y += 20
	for _, line := range wrap(g.notice, 50) {
		ebitenutil.DebugPrintAt(screen, line, panelX, y)
		y += 16
	}
}

func (g *Game) drawPrompt(screen *ebiten.Image) {
	const (
		boxX = 60
		boxY = 220
		boxW = screenWidth - 120
		boxH = 150
	)
	ebitenutil.DrawRect(screen, boxX, boxY, boxW, boxH, colorPrompt)

	y := boxY + 15
	for _, line := range wrap(g.prompt.Label, 100) {
		ebitenutil.DebugPrintAt(screen, line, boxX+15, y)
		y += 16
	}
	if g.prompt.Hint != "" {
		ebitenutil.DebugPrintAt(screen, "Hint: "+g.prompt.Hint, boxX+15, y)
		y += 16
	}
	y += 10
	ebitenutil.DebugPrintAt(screen, "> "+g.prompt.Value()+"_", boxX+15, y)

	help := "ENTER: submit"
	switch g.prompt.Kind {
	case board.PromptSquare:
		help += " | ESC: skip (counts as wrong)"
	case board.PromptObstacle:
		help += " | ESC: cancel"
	}
	ebitenutil.DebugPrintAt(screen, help, boxX+15, boxY+boxH-22)
}

// wrap splits text into lines of at most width characters
func wrap(text string, width int) []string {
	var lines []string
	line := ""
	for _, word := range strings.Fields(text) {
		if line != "" && len(line)+1+len(word) > width {
			lines = append(lines, line)
			line = ""
		}
		if line != "" {
			line += " "
		}
		line += word
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

// Layout returns the game screen size
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

func main() {
	serverURL := flag.String("url", "http://localhost:8080", "game server URL")
	flag.Parse()

	sessionID := ""
	if flag.NArg() > 0 {
		sessionID = flag.Arg(0)
	}

	game := NewGame(remote.NewClient(*serverURL), sessionID)

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("Obstacle Course - Desktop Client")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
