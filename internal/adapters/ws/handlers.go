package ws

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/croneya/pokersync/internal/app"
	"github.com/croneya/pokersync/internal/domain"
	"github.com/croneya/pokersync/internal/state"
)

// dispatch routes one inbound envelope. The participant identity is always
// the client token, never anything from the payload.
func (ctl *Controller) dispatch(connID, token string, c *wsConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad json")
		ctl.sendError(c, "bad payload")
		return
	}

	if !ctl.limiter.Allow(token) {
		log.Warn().Str("module", "ws").Str("client", token).Str("type", env.Type).Msg("rate limited")
		ctl.sendError(c, "too many requests")
		return
	}

	switch env.Type {
	case "createRoom":
		ctl.handleCreateRoom(connID, token, c, data)
	case "joinRoom":
		ctl.handleJoinRoom(connID, token, c, data)
	case "vote":
		ctl.handleVote(token, c, data)
	case "revealVotes":
		ctl.handleRoomCommand(token, c, data, state.Reveal{}, "Failed to reveal votes")
	case "resetVotes":
		ctl.handleRoomCommand(token, c, data, state.Reset{}, "Failed to reset votes")
	case "setCurrentStory":
		ctl.handleSetStory(token, c, data)
	case "toggleSpectator":
		ctl.handleRoomCommand(token, c, data, state.ToggleSpectator{UserID: token}, "Failed to toggle spectator")
	case "leaveRoom":
		ctl.handleLeaveRoom(connID, token, c, data)
	case "getActiveRooms":
		ctl.handleGetActiveRooms(c)
	default:
		log.Warn().Str("module", "ws").Str("type", env.Type).Msg("unknown command")
		ctl.sendError(c, "unknown command")
	}
}

func (ctl *Controller) handleCreateRoom(connID, token string, c *wsConn, data []byte) {
	var p struct {
		RoomName string `json:"roomName"`
		UserName string `json:"userName"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(c, "bad payload")
		return
	}

	roomID := uuid.NewString()
	cmd := state.Create{
		RoomID:   roomID,
		RoomName: p.RoomName,
		Creator:  domain.Participant{ID: token, Name: p.UserName},
	}

	// Subscribe before executing so the creator receives the first broadcast.
	prev, wasBound := ctl.Registry.Lookup(connID)
	ctl.Registry.Bind(connID, roomID, token)
	if _, err := ctl.Coordinator.Execute(execCtx(), roomID, cmd); err != nil {
		ctl.restoreBinding(connID, prev, wasBound)
		ctl.sendRejection(c, err, "Failed to create room")
		return
	}
	log.Info().Str("module", "ws").Str("room", roomID).Str("name", p.RoomName).Msg("room created")
}

func (ctl *Controller) handleJoinRoom(connID, token string, c *wsConn, data []byte) {
	var p struct {
		RoomID      string `json:"roomId"`
		UserName    string `json:"userName"`
		IsSpectator bool   `json:"isSpectator"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(c, "bad payload")
		return
	}

	cmd := state.Join{User: domain.Participant{ID: token, Name: p.UserName, IsSpectator: p.IsSpectator}}

	prev, wasBound := ctl.Registry.Lookup(connID)
	ctl.Registry.Bind(connID, p.RoomID, token)
	if _, err := ctl.Coordinator.Execute(execCtx(), p.RoomID, cmd); err != nil {
		ctl.restoreBinding(connID, prev, wasBound)
		ctl.sendRejection(c, err, "Failed to join room")
		return
	}
	log.Info().Str("module", "ws").Str("room", p.RoomID).Str("user", p.UserName).Msg("joined room")
}

func (ctl *Controller) handleVote(token string, c *wsConn, data []byte) {
	var p struct {
		RoomID string   `json:"roomId"`
		Value  *float64 `json:"value"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(c, "bad payload")
		return
	}
	if _, err := ctl.Coordinator.Execute(execCtx(), p.RoomID, state.CastVote{UserID: token, Value: p.Value}); err != nil {
		ctl.sendRejection(c, err, "Failed to submit vote")
	}
}

func (ctl *Controller) handleSetStory(token string, c *wsConn, data []byte) {
	var p struct {
		RoomID string `json:"roomId"`
		Story  string `json:"story"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(c, "bad payload")
		return
	}
	if _, err := ctl.Coordinator.Execute(execCtx(), p.RoomID, state.SetStory{Text: p.Story}); err != nil {
		ctl.sendRejection(c, err, "Failed to set story")
	}
}

// handleRoomCommand covers the commands whose payload is just a roomId.
func (ctl *Controller) handleRoomCommand(token string, c *wsConn, data []byte, cmd state.Command, fallback string) {
	var p struct {
		RoomID string `json:"roomId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(c, "bad payload")
		return
	}
	if _, err := ctl.Coordinator.Execute(execCtx(), p.RoomID, cmd); err != nil {
		ctl.sendRejection(c, err, fallback)
	}
}

func (ctl *Controller) handleLeaveRoom(connID, token string, c *wsConn, data []byte) {
	var p struct {
		RoomID string `json:"roomId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(c, "bad payload")
		return
	}
	// Execute while still subscribed: the leaver sees the final roomUpdated
	// (or roomClosed) before the binding goes away.
	if _, err := ctl.Coordinator.Execute(execCtx(), p.RoomID, leaveCommand(token)); err != nil {
		ctl.sendRejection(c, err, "Failed to leave room")
		return
	}
	ctl.Registry.Unbind(connID)
}

func (ctl *Controller) handleGetActiveRooms(c *wsConn) {
	sums, err := ctl.Coordinator.Summaries(context.Background())
	if err != nil {
		// Degrade to an empty lobby rather than leaving the client hanging.
		log.Error().Err(err).Str("module", "ws").Msg("get active rooms")
		sums = []domain.RoomSummary{}
	}
	ctl.sendJSON(c, struct {
		Type  string               `json:"type"`
		Rooms []domain.RoomSummary `json:"rooms"`
	}{app.EventActiveRooms, sums})
}

// restoreBinding undoes a speculative Bind after a rejected create/join. A
// caller that was already in a room goes back to that room; only a caller
// with no prior binding is unbound.
func (ctl *Controller) restoreBinding(connID string, prev app.Binding, wasBound bool) {
	if wasBound {
		ctl.Registry.Bind(connID, prev.RoomID, prev.ParticipantID)
		return
	}
	ctl.Registry.Unbind(connID)
}

func leaveCommand(participantID string) state.Command {
	return state.Leave{UserID: participantID}
}

// execCtx is the context commands run under. A connection dropping mid-command
// must not cancel the in-flight transition, so it is detached from the
// connection's context; the coordinator applies its own store timeout.
func execCtx() context.Context {
	return context.Background()
}

// sendRejection reports a failed command to the originating connection only.
// Validation and not-found rejections carry their own message; anything else
// surfaces as the generic fallback.
func (ctl *Controller) sendRejection(c *wsConn, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		ctl.sendError(c, "Room not found")
	case domain.IsValidation(err):
		ctl.sendError(c, err.Error())
	default:
		log.Error().Err(err).Str("module", "ws").Msg("command failed")
		ctl.sendError(c, fallback)
	}
}

func (ctl *Controller) sendError(c *wsConn, message string) {
	ctl.sendJSON(c, struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}{app.EventRoomError, message})
}

func (ctl *Controller) sendJSON(c *wsConn, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(data)
}
