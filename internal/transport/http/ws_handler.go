package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"riddle-quiz-service/internal/app"
	"riddle-quiz-service/internal/domain"
)

type WSHandler struct {
	service  *app.GameService
	tick     time.Duration
	upgrader websocket.Upgrader
}

// NewWSHandler builds the handler. tick is how often an active Time Challenge
// clock is pushed to the client; zero disables the push.
func NewWSHandler(service *app.GameService, tick time.Duration) *WSHandler {
	return &WSHandler{
		service: service,
		tick:    tick,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Choice int `json:"choice"`
}

type leaderboardPayload struct {
	Limit int `json:"limit"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// questionView hides the correct choice from clients.
type questionView struct {
	ID         string            `json:"id"`
	Prompt     string            `json:"prompt"`
	Choices    [4]string         `json:"choices"`
	Difficulty domain.Difficulty `json:"difficulty"`
}

type stateView struct {
	PlayerID            string                     `json:"playerId"`
	Mode                domain.Mode                `json:"mode"`
	Phase               domain.Phase               `json:"phase"`
	Classic             *domain.ClassicStats       `json:"classic"`
	TimeChallenge       *domain.TimeChallengeStats `json:"timeChallenge"`
	Question            *questionView              `json:"question"`
	LastCorrect         *bool                      `json:"lastCorrect"`
	ResumeClassic       bool                       `json:"resumeClassic"`
	ResumeTimeChallenge bool                       `json:"resumeTimeChallenge"`
	Outcome             *domain.Outcome            `json:"outcome"`
}

func newStateView(snap domain.Snapshot) stateView {
	view := stateView{
		PlayerID:            snap.PlayerID,
		Mode:                snap.Mode,
		Phase:               snap.Phase,
		Classic:             snap.Classic,
		TimeChallenge:       snap.TimeChallenge,
		LastCorrect:         snap.LastCorrect,
		ResumeClassic:       snap.ResumeClassic,
		ResumeTimeChallenge: snap.ResumeTimeChallenge,
		Outcome:             snap.Outcome,
	}
	if q := snap.Question; q != nil {
		view.Question = &questionView{ID: q.ID, Prompt: q.Prompt, Choices: q.Choices, Difficulty: q.Difficulty}
	}
	return view
}

// ServeWS upgrades HTTP requests to websockets and wires them into the game use cases.
// Players identify with ?userId=...; ?guest=1 creates a throwaway guest record.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("userId")
	if playerID == "" && r.URL.Query().Get("guest") == "1" {
		playerID = guestID()
	}
	if playerID == "" {
		http.Error(w, "missing userId (or guest=1)", http.StatusBadRequest)
		return
	}
	connID := uuid.NewString()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	record, err := h.service.Register(ctx, playerID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	log.Printf("ws %s: player %s connected", connID, playerID)
	// Dropping the connection is the same as returning to the menu: the run is suspended.
	defer h.service.Leave(context.Background(), playerID)

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	tickerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws %s: write error: %v", connID, err)
				return
			}
		}
	}()

	go func() {
		defer close(tickerDone)
		if h.tick <= 0 {
			return
		}
		ticker := time.NewTicker(h.tick)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				snap, ok := h.clockUpdate(ctx, playerID)
				if !ok {
					continue
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: newStateView(snap)}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "joined", Payload: record}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		for _, msg := range h.dispatch(ctx, playerID, inbound) {
			send <- msg
		}
	}

	close(closeSignals)
	<-tickerDone
	close(send)
	<-writerDone
	log.Printf("ws %s: player %s disconnected", connID, playerID)
}

// clockUpdate ticks an active Time Challenge and reports whether the result
// should be pushed. A run that another command already moved out of active
// is skipped so its final state is sent only once.
func (h *WSHandler) clockUpdate(ctx context.Context, playerID string) (domain.Snapshot, bool) {
	snap, err := h.service.Snapshot(ctx, playerID)
	if err != nil || snap.Phase != domain.PhaseActive || snap.Mode != domain.ModeTimeChallenge {
		return snap, false
	}
	snap, err = h.service.Tick(ctx, playerID)
	if errors.Is(err, domain.ErrInvalidState) {
		return snap, false
	}
	// Any other error means the run ended but its result was not saved.
	return snap, err == nil || snap.Phase == domain.PhaseEnded
}

// dispatch runs one client command and returns the replies to send.
func (h *WSHandler) dispatch(ctx context.Context, playerID string, inbound inboundMessage) []outboundMessage[any] {
	var (
		snap domain.Snapshot
		err  error
	)
	switch inbound.Type {
	case "start_classic":
		snap, err = h.service.StartClassic(ctx, playerID)
	case "start_time_challenge":
		snap, err = h.service.StartTimeChallenge(ctx, playerID)
	case "pause":
		snap, err = h.service.Pause(ctx, playerID)
	case "resume_classic":
		snap, err = h.service.ResumeClassic(ctx, playerID)
	case "resume_time_challenge":
		snap, err = h.service.ResumeTimeChallenge(ctx, playerID)
	case "restart":
		snap, err = h.service.Restart(ctx, playerID)
	case "tick":
		snap, err = h.service.Tick(ctx, playerID)
	case "state":
		snap, err = h.service.Snapshot(ctx, playerID)
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return []outboundMessage[any]{errorMessage("invalid answer payload")}
		}
		snap, err = h.service.SubmitAnswer(ctx, playerID, payload.Choice)
	case "player":
		record, err := h.service.Player(ctx, playerID)
		if err != nil {
			return []outboundMessage[any]{errorMessage(err.Error())}
		}
		return []outboundMessage[any]{{Type: "player", Payload: record}}
	case "leaderboard":
		var payload leaderboardPayload
		if len(inbound.Payload) > 0 {
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				return []outboundMessage[any]{errorMessage("invalid leaderboard payload")}
			}
		}
		board, err := h.service.Leaderboard(ctx, payload.Limit)
		if err != nil {
			return []outboundMessage[any]{errorMessage(err.Error())}
		}
		return []outboundMessage[any]{{Type: "leaderboard", Payload: board}}
	default:
		return []outboundMessage[any]{errorMessage("unsupported message type")}
	}

	if err != nil {
		msgs := []outboundMessage[any]{errorMessage(err.Error())}
		// A run that ended but failed to persist still changed state.
		if snap.Phase == domain.PhaseEnded && snap.Outcome != nil {
			msgs = append(msgs, outboundMessage[any]{Type: "state", Payload: newStateView(snap)})
		}
		return msgs
	}
	return []outboundMessage[any]{{Type: "state", Payload: newStateView(snap)}}
}

func errorMessage(message string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: message}}
}

func guestID() string {
	return "player_" + uuid.NewString()[:8]
}
