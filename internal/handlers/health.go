package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type healthResponse struct {
	Status      string `json:"status"`
	Store       string `json:"store"`
	Driver      string `json:"driver"`
	Cache       string `json:"cache"`
	Environment string `json:"environment"`
}

func (h HandlerSet) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{
		Status:      "ok",
		Store:       "ok",
		Driver:      h.cfg.Store.Driver,
		Cache:       "ok",
		Environment: h.cfg.Environment,
	}

	if err := h.users.Ping(ctx); err != nil {
		resp.Store = "error"
		h.log.Error().Err(err).Msg("store ping failed")
	}
	if err := h.cache.Ping(ctx).Err(); err != nil {
		resp.Cache = "error"
		h.log.Error().Err(err).Msg("redis ping failed")
	}

	status := http.StatusOK
	if resp.Store != "ok" || resp.Cache != "ok" {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}
