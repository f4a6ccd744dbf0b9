package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/pkg/ctxmanage"
	"storefront/pkg/logkey"
)

const chatApology = "Sorry, something went wrong. Please try again later or contact support."

type chatReq struct {
	Message string `json:"message"`
}

// Chatbot relays a shopper's message to the assistant. Only a broken request
// or an internal failure produces a non-200 answer.
func (h *Handler) Chatbot(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	defer func() {
		if r := recover(); r != nil {
			slog.Error("chatbot panic", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, fmt.Sprint(r)))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"response": chatApology})
		}
	}()

	var req chatReq
	limitBody(c)
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("invalid chatbot request", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"response": "Invalid request format."})
		return
	}
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"response": "Please enter a message."})
		return
	}

	reply, err := h.chat.Reply(c.Request.Context(), msg)
	if err != nil {
		slog.Error("chatbot error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"response": chatApology})
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": reply})
}
