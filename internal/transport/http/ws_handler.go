package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"recall-drill/internal/app"
	"recall-drill/internal/deck"
	"recall-drill/internal/domain"
	"recall-drill/internal/score"
	"github.com/gorilla/websocket"
)

// WSHandler drives one drill session per websocket connection.
type WSHandler struct {
	drill    *app.DrillService
	missions *app.MissionService
	upgrader websocket.Upgrader
}

func NewWSHandler(drill *app.DrillService, missions *app.MissionService) *WSHandler {
	return &WSHandler{
		drill:    drill,
		missions: missions,
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

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type loadPayload struct {
	Deck     string   `json:"deck"`
	Subject  string   `json:"subject"`
	Statuses []string `json:"statuses"`
	Recency  string   `json:"recency"`
}

type submitPayload struct {
	Text string `json:"text"`
}

type assessPayload struct {
	Label string `json:"label"`
}

type essayPayload struct {
	Text string `json:"text"`
}

type jumpPayload struct {
	N int `json:"n"`
}

type missionCreatePayload struct {
	Description string `json:"description"`
	Subject     string `json:"subject"`
}

type missionCompletePayload struct {
	ID      int `json:"id"`
	Minutes int `json:"minutes"`
}

type questionPayload struct {
	Index    int    `json:"index"`
	Total    int    `json:"total"`
	Subject  string `json:"subject"`
	Question string `json:"question"`
}

type scoredPayload struct {
	Score     int    `json:"score"`
	Band      string `json:"band"`
	Feedback  string `json:"feedback,omitempty"`
	Reference string `json:"reference"`
}

type completePayload struct {
	Total          int `json:"total"`
	ElapsedMinutes int `json:"elapsedMinutes"`
}

type coveragePayload struct {
	Covered      []bool `json:"covered"`
	CoveredCount int    `json:"coveredCount"`
	Percent      int    `json:"percent"`
}

type missionPayload struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
	Subject     string `json:"subject"`
}

type summaryPayload struct {
	Week  []domain.DayTotal `json:"week"`
	Today int               `json:"today"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and runs the drill loop. One user drives one
// session, so messages are handled and answered sequentially.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	var session *app.Session

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}

		switch inbound.Type {
		case "load":
			var payload loadPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.sendError(conn, "invalid load payload")
				continue
			}
			opts := deck.FilterOptions{
				Subject:  payload.Subject,
				Statuses: parseStatuses(payload.Statuses),
				Recency:  deck.ParseRecency(payload.Recency),
			}
			sess, err := h.drill.StartSession(ctx, payload.Deck, opts)
			if err != nil {
				h.sendError(conn, err.Error())
				continue
			}
			session = sess
			h.sendPosition(conn, session)
		case "submit":
			if session == nil {
				h.sendError(conn, domain.ErrNoSetLoaded.Error())
				continue
			}
			var payload submitPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.sendError(conn, "invalid submit payload")
				continue
			}
			grade, err := h.drill.Submit(ctx, session, payload.Text)
			if err != nil {
				h.sendError(conn, err.Error())
				continue
			}
			current, _ := session.Current()
			h.send(conn, "scored", scoredPayload{
				Score:     grade.Score,
				Band:      string(score.BandFor(grade.Score)),
				Feedback:  grade.Feedback,
				Reference: current.ReferenceAnswer,
			})
		case "assess":
			if session == nil {
				h.sendError(conn, domain.ErrNoSetLoaded.Error())
				continue
			}
			var payload assessPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.sendError(conn, "invalid assess payload")
				continue
			}
			label := domain.ParseResultLabel(payload.Label)
			if err := h.drill.Assess(ctx, session, label); err != nil {
				h.sendError(conn, err.Error())
				continue
			}
			h.sendPosition(conn, session)
		case "essay":
			if session == nil {
				h.sendError(conn, domain.ErrNoSetLoaded.Error())
				continue
			}
			var payload essayPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.sendError(conn, "invalid essay payload")
				continue
			}
			if strings.TrimSpace(payload.Text) == "" {
				h.sendError(conn, domain.ErrEmptyAnswer.Error())
				continue
			}
			refs := session.ReferenceAnswers()
			if len(refs) == 0 {
				h.sendError(conn, domain.ErrEmptySet.Error())
				continue
			}
			report := score.Coverage(payload.Text, refs)
			h.send(conn, "coverage", coveragePayload{
				Covered:      report.Covered,
				CoveredCount: report.CoveredCount,
				Percent:      report.Percent,
			})
		case "skip":
			if session == nil {
				h.sendError(conn, domain.ErrNoSetLoaded.Error())
				continue
			}
			if err := session.Skip(); err != nil {
				h.sendError(conn, err.Error())
				continue
			}
			h.sendPosition(conn, session)
		case "jump":
			if session == nil {
				h.sendError(conn, domain.ErrNoSetLoaded.Error())
				continue
			}
			var payload jumpPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.sendError(conn, "invalid jump payload")
				continue
			}
			if err := session.JumpTo(payload.N); err != nil {
				h.sendError(conn, err.Error())
				continue
			}
			h.sendPosition(conn, session)
		case "reset":
			if session == nil {
				h.sendError(conn, domain.ErrNoSetLoaded.Error())
				continue
			}
			session.Reset()
			h.sendPosition(conn, session)
		case "mission_next":
			mission, ok, err := h.missions.NextPending(ctx)
			if err != nil {
				h.sendError(conn, err.Error())
				continue
			}
			if !ok {
				h.send(conn, "mission_none", struct{}{})
				continue
			}
			h.send(conn, "mission", missionPayload{ID: mission.ID, Description: mission.Description, Subject: mission.Subject})
		case "mission_create":
			var payload missionCreatePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.sendError(conn, "invalid mission payload")
				continue
			}
			id, err := h.missions.Create(ctx, payload.Description, payload.Subject)
			if err != nil {
				h.sendError(conn, err.Error())
				continue
			}
			h.send(conn, "mission_created", missionPayload{ID: id, Description: payload.Description, Subject: payload.Subject})
		case "mission_complete":
			var payload missionCompletePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.sendError(conn, "invalid mission payload")
				continue
			}
			if err := h.missions.Complete(ctx, payload.ID, payload.Minutes); err != nil {
				h.sendError(conn, err.Error())
				continue
			}
			h.send(conn, "mission_done", missionPayload{ID: payload.ID})
		case "summary":
			week, err := h.missions.WeeklySummary(ctx)
			if err != nil {
				h.sendError(conn, err.Error())
				continue
			}
			today, err := h.missions.TodayTotal(ctx)
			if err != nil {
				h.sendError(conn, err.Error())
				continue
			}
			h.send(conn, "summary", summaryPayload{Week: week, Today: today})
		default:
			h.sendError(conn, "unsupported message type")
		}
	}
}

// sendPosition reports the question under the cursor, or completion when the
// cursor has moved past the end of the set.
func (h *WSHandler) sendPosition(conn *websocket.Conn, session *app.Session) {
	current, total := session.Progress()
	rec, err := session.Current()
	if errors.Is(err, domain.ErrSessionComplete) {
		h.send(conn, "complete", completePayload{Total: total, ElapsedMinutes: session.ElapsedMinutes()})
		return
	}
	h.send(conn, "question", questionPayload{
		Index:    current,
		Total:    total,
		Subject:  rec.Subject,
		Question: rec.Question,
	})
}

func (h *WSHandler) send(conn *websocket.Conn, msgType string, payload any) {
	if err := conn.WriteJSON(outboundMessage[any]{Type: msgType, Payload: payload}); err != nil {
		log.Printf("ws write error: %v", err)
	}
}

func (h *WSHandler) sendError(conn *websocket.Conn, message string) {
	h.send(conn, "error", errorPayload{Message: message})
}

func parseStatuses(raw []string) []domain.ResultLabel {
	labels := make([]domain.ResultLabel, 0, len(raw))
	for _, s := range raw {
		switch s {
		case "never":
			labels = append(labels, domain.ResultNone)
		case "correct":
			labels = append(labels, domain.ResultCorrect)
		case "partial":
			labels = append(labels, domain.ResultPartial)
		case "incorrect":
			labels = append(labels, domain.ResultIncorrect)
		}
	}
	return labels
}
