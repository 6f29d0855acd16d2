package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Banter/internal/app/orch"
	"github.com/dkeye/Banter/internal/core"
)

// API serves the REST side of the chat: history, search, presence and
// attachment uploads. Live traffic goes over the WS endpoint.
type API struct {
	Orch         *orch.Orchestrator
	Files        core.FileStore
	HistoryLimit int
	SearchLimit  int
}

// GET /api/messages — the most recent page of the log, oldest first.
func (a *API) listMessages(c *gin.Context) {
	msgs, err := a.Orch.Latest(c.Request.Context(), a.HistoryLimit)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("list messages")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch messages"})
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// GET /api/messages/history?before=<RFC3339>&limit=<n> — pagination cursor
// is the creation timestamp; results are strictly older, oldest first.
func (a *API) messageHistory(c *gin.Context) {
	beforeParam := c.Query("before")
	if beforeParam == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": `a "before" timestamp is required`})
		return
	}
	before, err := time.Parse(time.RFC3339Nano, beforeParam)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": `"before" must be an RFC3339 timestamp`})
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": `"limit" must be a positive integer`})
			return
		}
		limit = min(parsed, a.HistoryLimit)
	}

	msgs, err := a.Orch.History(c.Request.Context(), before, limit)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("message history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch message history"})
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// GET /api/messages/search?term=&externalId= — full-text, relevance-ranked,
// restricted to what the given identity may see.
func (a *API) searchMessages(c *gin.Context) {
	term := c.Query("term")
	externalID := c.Query("externalId")
	if term == "" || externalID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a search term and externalId are required"})
		return
	}

	msgs, err := a.Orch.Search(c.Request.Context(), term, externalID, a.SearchLimit)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("search messages")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to search messages"})
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// GET /api/users — current presence snapshot.
func (a *API) listUsers(c *gin.Context) {
	c.JSON(http.StatusOK, a.Orch.Registry.Snapshot())
}

// GET /api/users/chatted?externalId= — distinct private-conversation
// partners, derived from the durable log.
func (a *API) chattedUsers(c *gin.Context) {
	externalID := c.Query("externalId")
	if externalID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "externalId is required"})
		return
	}

	users, err := a.Orch.ChattedWith(c.Request.Context(), externalID)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("chatted users")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch chatted users"})
		return
	}
	c.JSON(http.StatusOK, users)
}

// POST /api/upload — stores the blob and returns its reference; the chat
// message pointing at it is sent separately over the WS channel.
func (a *API) uploadFile(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a file is required"})
		return
	}
	f, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}
	defer f.Close()

	url, mediaType, err := a.Files.Save(header.Filename, f)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("upload")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store file"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"filePath": url, "fileType": mediaType})
}
