package http

import (
	"net/http"

	"mirrornet/internal/core/domain"
	"mirrornet/internal/core/ports"
	"mirrornet/internal/infrastructure/monitoring"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatusHandler exposes the daemon's local control surface: session status,
// stream and quality toggles, health and metrics. It is the HTTP face of the
// two core services; nothing here holds state of its own.
type StatusHandler struct {
	session  ports.SessionService
	control  ports.ControlService
	health   *monitoring.HealthChecker
	gatherer prometheus.Gatherer
}

func NewStatusHandler(
	session ports.SessionService,
	control ports.ControlService,
	health *monitoring.HealthChecker,
	gatherer prometheus.Gatherer,
) *StatusHandler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &StatusHandler{
		session:  session,
		control:  control,
		health:   health,
		gatherer: gatherer,
	}
}

func (h *StatusHandler) SetupRoutes(router *gin.Engine) {
	router.GET("/health", h.GetHealth)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))

	api := router.Group("/api/v1")
	{
		api.GET("/session", h.GetSession)
		api.POST("/session/invite", h.InvitePeer)
		api.POST("/session/disconnect", h.Disconnect)
		api.GET("/peers", h.ListPeers)
		api.POST("/stream", h.SetStream)
		api.POST("/quality", h.SetQuality)
	}
}

func (h *StatusHandler) GetHealth(c *gin.Context) {
	status := h.health.CheckAll(c.Request.Context())
	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}

func (h *StatusHandler) GetSession(c *gin.Context) {
	snap := h.session.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"state":          snap.State,
		"peers":          snap.Peers,
		"selected_peer":  snap.SelectedPeer,
		"retries":        snap.Retries,
		"remote_enabled": h.control.RemoteStreamEnabled(),
		"remote_tier":    h.control.RemoteTier(),
	})
}

func (h *StatusHandler) InvitePeer(c *gin.Context) {
	var req struct {
		PeerID domain.PeerID `json:"peer_id" binding:"required"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.session.Invite(c.Request.Context(), req.PeerID); err != nil {
		switch err {
		case domain.ErrInviteInProgress:
			c.JSON(http.StatusConflict, gin.H{"error": "invite already in progress"})
		case domain.ErrPeerNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "peer not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "connecting"})
}

func (h *StatusHandler) Disconnect(c *gin.Context) {
	h.session.Disconnect()
	c.JSON(http.StatusOK, gin.H{"status": "disconnected"})
}

func (h *StatusHandler) ListPeers(c *gin.Context) {
	peers := h.session.Discovered()
	out := make([]gin.H, 0, len(peers))
	for _, peer := range peers {
		entry := gin.H{"peer_id": peer}
		if info, ok := h.control.Device(peer); ok {
			entry["device"] = info
		}
		out = append(out, entry)
	}
	c.JSON(http.StatusOK, gin.H{"peers": out})
}

func (h *StatusHandler) SetStream(c *gin.Context) {
	var req struct {
		Enabled *bool `json:"enabled" binding:"required"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.control.SetStreamEnabled(c.Request.Context(), *req.Enabled); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": *req.Enabled})
}

func (h *StatusHandler) SetQuality(c *gin.Context) {
	var req struct {
		Tier domain.QualityTier `json:"tier" binding:"required"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.control.SetQualityTier(c.Request.Context(), req.Tier); err != nil {
		if err == domain.ErrUnknownTier {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown quality tier"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tier": req.Tier})
}
