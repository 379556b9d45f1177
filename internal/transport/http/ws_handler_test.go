package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"riddle-quiz-service/internal/app"
	"riddle-quiz-service/internal/domain"
	"riddle-quiz-service/internal/infra/memory"
)

func TestWebSocketClassicFlow(t *testing.T) {
	server := newTestServer(0)
	defer server.Close()

	conn := dial(t, server, "userId=alice")
	defer conn.Close()

	msgType, payload := readNext(conn, t, "joined")
	if payload["playerId"] != "alice" {
		t.Fatalf("expected alice record, got %+v", payload)
	}

	send(t, conn, map[string]any{"type": "start_classic"})
	msgType, payload = readNext(conn, t, "state")
	if payload["phase"] != "active" || payload["mode"] != "classic" {
		t.Fatalf("expected active classic state, got %+v", payload)
	}
	question, ok := payload["question"].(map[string]any)
	if !ok {
		t.Fatalf("expected a question, got %+v", payload["question"])
	}
	if _, leaked := question["answer"]; leaked {
		t.Fatalf("answer must not be sent to clients")
	}

	// every sample riddle's answer is 2
	send(t, conn, map[string]any{"type": "answer", "payload": map[string]any{"choice": 2}})
	msgType, payload = readNext(conn, t, "state")
	classic := payload["classic"].(map[string]any)
	if classic["progress"].(float64) != 1 || payload["lastCorrect"] != true {
		t.Fatalf("expected progress 1 after a correct answer, got %+v", payload)
	}

	send(t, conn, map[string]any{"type": "answer", "payload": map[string]any{"choice": 9}})
	msgType, _ = readNext(conn, t, "")
	if msgType != "error" {
		t.Fatalf("expected error for out-of-range choice, got %s", msgType)
	}

	send(t, conn, map[string]any{"type": "pause"})
	_, payload = readNext(conn, t, "state")
	if payload["phase"] != "suspended" || payload["resumeClassic"] != true {
		t.Fatalf("expected resumable classic, got %+v", payload)
	}
}

func TestWebSocketLeaderboardAndGuest(t *testing.T) {
	server := newTestServer(0)
	defer server.Close()

	conn := dial(t, server, "guest=1")
	defer conn.Close()

	_, payload := readNext(conn, t, "joined")
	playerID, _ := payload["playerId"].(string)
	if !strings.HasPrefix(playerID, "player_") {
		t.Fatalf("expected guest id, got %q", playerID)
	}

	send(t, conn, map[string]any{"type": "leaderboard"})
	var msg struct {
		Type    string           `json:"type"`
		Payload []map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read leaderboard: %v", err)
	}
	if msg.Type != "leaderboard" || len(msg.Payload) != 1 || msg.Payload[0]["playerId"] != playerID {
		t.Fatalf("expected guest on the leaderboard, got %+v", msg)
	}
}

func TestWebSocketPushesTimeChallengeClock(t *testing.T) {
	server := newTestServer(20 * time.Millisecond)
	defer server.Close()

	conn := dial(t, server, "userId=bob")
	defer conn.Close()
	readNext(conn, t, "joined")

	send(t, conn, map[string]any{"type": "start_time_challenge"})
	readNext(conn, t, "state")

	_, payload := readNext(conn, t, "state")
	stats, ok := payload["timeChallenge"].(map[string]any)
	if !ok || stats["timeLeft"] == nil {
		t.Fatalf("expected pushed clock state, got %+v", payload)
	}
}

func TestWebSocketRequiresPlayer(t *testing.T) {
	server := newTestServer(0)
	defer server.Close()

	resp, err := http.Get(server.URL + "/ws")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestClockUpdatePushesTimeUpOnce(t *testing.T) {
	ctx := context.Background()
	clock := &manualClock{now: time.Date(2024, 12, 1, 12, 0, 0, 0, time.UTC)}
	service := newTestService(app.WithClock(clock.Now))
	h := NewWSHandler(service, time.Second)
	_, _ = service.Register(ctx, "carol")

	if _, ok := h.clockUpdate(ctx, "carol"); ok {
		t.Fatalf("nothing to push before a run starts")
	}
	if _, err := service.StartTimeChallenge(ctx, "carol"); err != nil {
		t.Fatalf("start: %v", err)
	}
	snap, ok := h.clockUpdate(ctx, "carol")
	if !ok || snap.TimeChallenge.TimeLeft != 180 {
		t.Fatalf("expected a running clock push, got ok=%v %+v", ok, snap.TimeChallenge)
	}

	clock.now = clock.now.Add(181 * time.Second)
	snap, ok = h.clockUpdate(ctx, "carol")
	if !ok || snap.Phase != domain.PhaseEnded || snap.Outcome.Result != domain.ResultTimeUp {
		t.Fatalf("expected time up push, got ok=%v %+v", ok, snap)
	}
	if _, ok := h.clockUpdate(ctx, "carol"); ok {
		t.Fatalf("ended run must not be pushed twice")
	}
}

func TestClockUpdateIgnoresClassic(t *testing.T) {
	ctx := context.Background()
	service := newTestService()
	h := NewWSHandler(service, time.Second)
	_, _ = service.Register(ctx, "dave")
	if _, err := service.StartClassic(ctx, "dave"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, ok := h.clockUpdate(ctx, "dave"); ok {
		t.Fatalf("classic runs have no clock to push")
	}
}

type manualClock struct {
	now time.Time
}

func (c *manualClock) Now() time.Time { return c.now }

func newTestService(opts ...app.SessionOption) *app.GameService {
	questions := memory.NewQuestionRepository(memory.NewStaticQuestionLoader(sampleQuestions()), time.Minute)
	return app.NewGameService(memory.NewSessionStore(), questions, memory.NewPlayerStore(), domain.DefaultRules(), opts...)
}

func newTestServer(tick time.Duration) *httptest.Server {
	wsHandler := NewWSHandler(newTestService(), tick)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	return httptest.NewServer(mux)
}

func dial(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws?" + query
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %v: %v", msg["type"], err)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}

func sampleQuestions() []domain.Question {
	var questions []domain.Question
	for _, d := range []domain.Difficulty{domain.Easy, domain.Medium, domain.Hard, domain.Medium1} {
		for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
			questions = append(questions, domain.Question{
				ID:         string(d) + "-" + id,
				Prompt:     "What is always in front of you but can't be seen?",
				Choices:    [4]string{"The past", "The future", "Air", "A mirror"},
				Answer:     2,
				Difficulty: d,
			})
		}
	}
	return questions
}
