package agent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"procwatch/internal/model"
	"procwatch/internal/monitor"
)

// runAPI serves the local read-only surface a UI polls: health, history
// rings, the process table, and track/untrack for on-demand per-process
// history.
func (a *Agent) runAPI(ctx context.Context) error {
	if a.cfg.APIListenAddr == "" {
		<-ctx.Done()
		return nil
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(log.WARN)

	e.GET("/healthz", a.healthHandler)
	e.GET("/api/history/:entity", a.historyHandler)
	e.GET("/api/processes", a.processesHandler)
	e.POST("/api/track/:entity", a.trackHandler)
	e.DELETE("/api/track/:entity", a.untrackHandler)

	a.logger.Info("api listening", "addr", a.cfg.APIListenAddr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(a.cfg.APIListenAddr)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = e.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api listen %s: %w", a.cfg.APIListenAddr, err)
		}
		return nil
	}
}

type historyResponse struct {
	EntityID model.EntityID       `json:"entity_id"`
	Samples  []model.MetricSample `json:"samples"`
	Stats    monitor.Stats        `json:"stats"`
}

func (a *Agent) healthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, a.health.Snapshot())
}

func (a *Agent) historyHandler(c echo.Context) error {
	entity, err := model.ParseEntityID(c.Param("entity"))
	if err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}
	samples, err := a.monitor.LatestSamples(entity)
	if err != nil {
		return c.String(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, historyResponse{
		EntityID: entity,
		Samples:  samples,
		Stats:    monitor.ComputeStats(samples),
	})
}

func (a *Agent) processesHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, a.monitor.Processes())
}

func (a *Agent) trackHandler(c echo.Context) error {
	entity, err := model.ParseEntityID(c.Param("entity"))
	if err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}
	a.monitor.Track(entity)
	return c.NoContent(http.StatusNoContent)
}

func (a *Agent) untrackHandler(c echo.Context) error {
	entity, err := model.ParseEntityID(c.Param("entity"))
	if err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}
	if entity.IsSystem() {
		return c.String(http.StatusBadRequest, "system entity cannot be untracked")
	}
	a.monitor.Untrack(entity)
	return c.NoContent(http.StatusNoContent)
}
