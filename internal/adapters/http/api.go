package http

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/dkeye/Canvas/internal/app/orch"
	"github.com/dkeye/Canvas/internal/core"
	"github.com/dkeye/Canvas/internal/domain"
	"github.com/dkeye/Canvas/internal/export"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// roomHandlers serve read-only views of the registry. Lookups never
// create rooms.
type roomHandlers struct {
	orch   *orch.Orchestrator
	width  float64
	height float64
}

type statsResponse struct {
	Rooms       int `json:"rooms"`
	Connections int `json:"connections"`
}

func (h *roomHandlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *roomHandlers) stats(c *gin.Context) {
	c.JSON(http.StatusOK, statsResponse{
		Rooms:       len(h.orch.Rooms.List()),
		Connections: h.orch.Registry.Count(),
	})
}

func (h *roomHandlers) listRooms(c *gin.Context) {
	c.JSON(http.StatusOK, h.orch.Rooms.List())
}

func (h *roomHandlers) room(c *gin.Context) (core.RoomService, bool) {
	name := domain.RoomName(c.Param("name"))
	room, ok := h.orch.Rooms.Get(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return nil, false
	}
	return room, true
}

func (h *roomHandlers) getRoom(c *gin.Context) {
	room, ok := h.room(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, core.RoomInfo{
		Name:        room.Room().Name,
		MemberCount: room.MemberCount(),
		OpCount:     room.OpCount(),
	})
}

func (h *roomHandlers) members(c *gin.Context) {
	room, ok := h.room(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, room.Users())
}

func (h *roomHandlers) history(c *gin.Context) {
	room, ok := h.room(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, room.History())
}

func (h *roomHandlers) exportPDF(c *gin.Context) {
	room, ok := h.room(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.RenderPDF(&buf, room.History(), h.width, h.height); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("room", string(room.Room().Name)).Msg("pdf export")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", string(room.Room().Name)+".pdf"))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
