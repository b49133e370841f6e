// Command autoplay is a REST bot that plays obstacle course sessions end to
// end. It reads the answer key from the local problems directory and answers
// correctly with a configurable accuracy, guessing the obstacle once enough
// squares are open. Useful for smoke-testing a server and for watching the
// live board update.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/wricardo/obstacle-course/game/config"
	"github.com/wricardo/obstacle-course/game/engine"
	"github.com/wricardo/obstacle-course/game/service"
	"github.com/wricardo/obstacle-course/logging"
)

// maxActions bounds a single game; a legal game never needs more than
// one action per team turn plus the final guess
const maxActions = engine.NumTeams*engine.TurnsPerTeam + 1

var errStuck = errors.New("server rejected the bot's action")

// GameSummary describes one finished game
type GameSummary struct {
	Actions int
	Outcome engine.Outcome
	Scores  [engine.NumTeams]int
	Winners []int
}

// play drives one game from state to the end
func play(ctx context.Context, client *Client, strategy *Strategy, state *engine.GameState, delay time.Duration, logger *zap.Logger) (*GameSummary, error) {
	strategy.Reset()
	actions := 0

	for actions < maxActions {
		move, ok := strategy.NextMove(state)
		if !ok {
			break
		}

		var (
			resp *service.ActionResponse
			err  error
		)
		switch move.Kind {
		case engine.ActionAttempt:
			resp, err = client.Attempt(ctx, move.Square, move.Answer)
		case engine.ActionObstacleGuess:
			resp, err = client.GuessObstacle(ctx, move.Answer)
		case engine.ActionFinalGuess:
			resp, err = client.FinalGuess(ctx, move.Answer)
		}
		if err != nil {
			return nil, err
		}
		if !resp.Result.Applied {
			return nil, fmt.Errorf("%w: %s", errStuck, resp.Result.Message)
		}
		actions++

		logger.Debug("action",
			zap.String("kind", string(move.Kind)),
			zap.String("team", engine.TeamName(resp.Result.Team)),
			zap.Int("square", move.Square),
			zap.Bool("correct", resp.Result.Correct),
			zap.Int("points", resp.Result.Points))

		state = resp.GameState
		if delay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	if state.Phase != engine.PhaseFinished {
		return nil, fmt.Errorf("game not finished after %d actions", actions)
	}
	return &GameSummary{
		Actions: actions,
		Outcome: state.Outcome,
		Scores:  state.Scores,
		Winners: engine.Leaders(state.Scores),
	}, nil
}

func winnerNames(winners []int) string {
	names := make([]string, len(winners))
	for i, team := range winners {
		names[i] = engine.TeamName(team)
	}
	return strings.Join(names, ", ")
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "autoplay",
		Usage: "Play obstacle course games against a running server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "game server URL"},
			&cli.StringFlag{Name: "set", Value: "1", Usage: "question set id for a new session"},
			&cli.StringFlag{Name: "session", Usage: "resume an existing session by ID instead of creating one"},
			&cli.StringFlag{Name: "problems-dir", Value: "problems", Usage: "directory holding the answer key"},
			&cli.FloatFlag{Name: "accuracy", Value: 0.8, Usage: "probability that an answer is correct (0-1)"},
			&cli.IntFlag{Name: "threshold", Value: 6, Usage: "correct squares before a team guesses the obstacle (0 never guesses early)"},
			&cli.IntFlag{Name: "games", Value: 1, Usage: "number of games to play, resetting between them"},
			&cli.DurationFlag{Name: "delay", Usage: "pause between actions"},
			&cli.IntFlag{Name: "seed", Usage: "random seed (default: current time)"},
			&cli.StringFlag{Name: "env", Value: "development", Usage: "logging environment"},
		},
		Action: runAutoplay,
	}
}

func runAutoplay(ctx context.Context, cmd *cli.Command) error {
	logger, err := logging.New(cmd.String("env"))
	if err != nil {
		return err
	}
	defer logger.Sync()

	client := NewClient(cmd.String("url"))
	logger.Info("connecting to game server", zap.String("url", cmd.String("url")))

	var state *engine.GameState
	var setID string
	if id := cmd.String("session"); id != "" {
		session, err := client.Resume(ctx, id)
		if err != nil {
			return err
		}
		setID = session.QuestionSetID
		logger.Info("session resumed", zap.String("session_id", id))
	} else {
		session, err := client.CreateSession(ctx, cmd.String("set"))
		if err != nil {
			return err
		}
		setID = session.QuestionSetID
		state = session.GameState
		logger.Info("session created", zap.String("session_id", session.ID), zap.String("question_set", setID))
	}

	bank, err := config.NewManager(cmd.String("problems-dir"), 0)
	if err != nil {
		return err
	}
	key, err := bank.LoadQuestionSet(setID)
	if err != nil {
		return fmt.Errorf("answer key: %w", err)
	}

	seed := int64(cmd.Int("seed"))
	if !cmd.IsSet("seed") {
		seed = time.Now().UnixNano()
	}
	strategy := NewStrategy(key, cmd.Float("accuracy"), int(cmd.Int("threshold")), seed)

	games := int(cmd.Int("games"))
	for game := 1; game <= games; game++ {
		if state == nil || state.Phase != engine.PhasePlaying || state.TotalActions > 0 {
			if state, err = client.Reset(ctx); err != nil {
				return err
			}
		}

		summary, err := play(ctx, client, strategy, state, cmd.Duration("delay"), logger)
		if err != nil {
			return fmt.Errorf("game %d: %w", game, err)
		}
		logger.Info("game finished",
			zap.Int("game", game),
			zap.Int("actions", summary.Actions),
			zap.String("outcome", string(summary.Outcome)),
			zap.Ints("scores", summary.Scores[:]),
			zap.String("winner", winnerNames(summary.Winners)))
		state = nil
	}

	logger.Info("done", zap.String("session_id", client.SessionID()))
	return nil
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
