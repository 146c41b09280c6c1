package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	models "SimTape/internal/domain/models"
	domrepo "SimTape/internal/domain/repository"
	icache "SimTape/internal/service/cache"
	"SimTape/internal/service/metrics"
	"SimTape/internal/service/ratelimit"
	"SimTape/internal/usecase"
	pkgcache "SimTape/pkg/cache"
	xhttp "SimTape/pkg/http"
	xlogger "SimTape/pkg/logger"

	"github.com/labstack/echo/v4"
)

// MarketEchoHandler serves candle and signal reads.
type MarketEchoHandler struct {
	logger   *xlogger.Logger
	candles  *usecase.CandlesUseCase
	signals  *usecase.SignalsUseCase
	cache    icache.BytesCache
	sigCache pkgcache.Service
	rl       *ratelimit.Limiter
}

func NewMarketEchoHandler(logger *xlogger.Logger, candles *usecase.CandlesUseCase, signals *usecase.SignalsUseCase) *MarketEchoHandler {
	metrics.Register()
	return &MarketEchoHandler{logger: logger, candles: candles, signals: signals, rl: ratelimit.New()}
}

// SetCache enables short-TTL response caching for candles.
func (h *MarketEchoHandler) SetCache(c icache.BytesCache) { h.cache = c }

// SetSignalCache enables short-TTL caching of computed signals.
func (h *MarketEchoHandler) SetSignalCache(c pkgcache.Service) { h.sigCache = c }

func (h *MarketEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/candles", h.Candles)
	g.GET("/signals", h.Signals)
	g.GET("/symbols", h.Symbols)
}

func (h *MarketEchoHandler) Candles(c echo.Context) error {
	req := &models.CandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	if !h.rl.Allow(c.RealIP()+":candles", 20, 10) {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_RATE_LIMITED", "", "rate limited", 429))
	}

	// Optional historical replay point. Responses for a pinned time are not
	// cached; the live path is the hot one.
	at, replay := xhttp.ParseTime(c.QueryParam("at"))

	// Generation is deterministic within a bar, so a short TTL only saves CPU.
	cacheKey := fmt.Sprintf("candles:%s:%s:%d", req.Symbol, tf, req.Bars)
	if h.cache != nil && !replay {
		if b, ok, err := h.cache.GetBytes(cacheKey); err == nil && ok {
			return xhttp.SuccessResponse(c, json.RawMessage(b))
		}
	}

	res, err := h.candles.GetCandles(c.Request().Context(), usecase.GetCandlesParams{
		Symbol:    req.Symbol,
		Timeframe: tf,
		Bars:      req.Bars,
		Now:       at,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrUnknownSymbol) {
			return xhttp.NotFoundResponse(c, err.Error())
		}
		h.logger.Error("candles usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	if h.cache != nil && !replay {
		if b, err := json.Marshal(res); err == nil {
			_ = h.cache.SetBytes(cacheKey, b, 2*time.Second)
		}
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *MarketEchoHandler) Signals(c echo.Context) error {
	start := time.Now()
	defer func() {
		metrics.SignalLatency.WithLabelValues("signal").Observe(time.Since(start).Seconds())
	}()

	req := &models.SignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	if !h.rl.Allow(c.RealIP()+":signals", 5, 2) {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_RATE_LIMITED", "", "rate limited", 429))
	}

	sigKey := fmt.Sprintf("signals:%s:%s:%d", req.Symbol, tf, req.Window)
	if h.sigCache != nil {
		var cached models.Signal
		if err := h.sigCache.Get(c.Request().Context(), sigKey, &cached); err == nil {
			return xhttp.SuccessResponse(c, cached)
		}
	}

	sig, err := h.signals.GetSignal(c.Request().Context(), usecase.GetSignalParams{
		Symbol:    req.Symbol,
		Timeframe: tf,
		Window:    req.Window,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrUnknownSymbol) {
			return xhttp.NotFoundResponse(c, err.Error())
		}
		metrics.SignalErrors.WithLabelValues("signal").Inc()
		h.logger.Error("signals usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if h.sigCache != nil {
		_ = h.sigCache.Set(c.Request().Context(), sigKey, sig, 2*time.Second)
	}
	return xhttp.SuccessResponse(c, sig)
}

func (h *MarketEchoHandler) Symbols(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]any{"symbols": h.candles.Symbols()})
}
