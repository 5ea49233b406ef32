package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

type chatRequest struct {
	Action         string `json:"action"`
	ConversationID string `json:"conversationId"`
	Token          string `json:"token"`
	Text           string `json:"text"`
	UserID         string `json:"userId"`
	Watermark      string `json:"watermark"`
}

// chat proxies conversation operations to the Direct Line upstream. The
// engine does not depend on the bot; the proxy is a peer consumer of the
// same transport layer.
func (h *Handler) chat(w http.ResponseWriter, r *http.Request) {
	if h.bot == nil {
		writeErr(w, http.StatusServiceUnavailable, "chat upstream not configured")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ctx := r.Context()
	switch req.Action {
	case "start":
		conv, err := h.bot.StartConversation(ctx)
		if err != nil {
			h.chatUpstreamErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("conversationId", func(e *jx.Encoder) { e.Str(conv.ConversationID) })
				e.Field("token", func(e *jx.Encoder) { e.Str(conv.Token) })
				e.Field("expires_in", func(e *jx.Encoder) { e.Int(conv.ExpiresIn) })
			})
		})

	case "send":
		if req.ConversationID == "" || req.Token == "" || req.Text == "" {
			writeErr(w, http.StatusBadRequest, "Missing conversationId, token, or text")
			return
		}
		activityID, err := h.bot.SendMessage(ctx, req.ConversationID, req.Token, req.Text, req.UserID)
		if err != nil {
			h.chatUpstreamErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("activityId", func(e *jx.Encoder) { e.Str(activityID) })
			})
		})

	case "poll":
		if req.ConversationID == "" || req.Token == "" {
			writeErr(w, http.StatusBadRequest, "Missing conversationId or token")
			return
		}
		set, err := h.bot.Activities(ctx, req.ConversationID, req.Token, req.Watermark)
		if err != nil {
			h.chatUpstreamErr(w, r, err)
			return
		}
		// Activities carry upstream-defined channelData; re-encode with the
		// stdlib rather than spelling the dynamic shape out field by field.
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(set); err != nil {
			zctx.From(ctx).Error("encode activities", zap.Error(err))
		}

	case "token":
		conv, err := h.bot.GenerateToken(ctx)
		if err != nil {
			h.chatUpstreamErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("conversationId", func(e *jx.Encoder) { e.Str(conv.ConversationID) })
				e.Field("token", func(e *jx.Encoder) { e.Str(conv.Token) })
				e.Field("expires_in", func(e *jx.Encoder) { e.Int(conv.ExpiresIn) })
			})
		})

	default:
		writeErr(w, http.StatusBadRequest, "Unknown action: "+req.Action)
	}
}

func (h *Handler) chatUpstreamErr(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("direct line upstream error", zap.Error(err))
	writeErr(w, http.StatusBadGateway, err.Error())
}
