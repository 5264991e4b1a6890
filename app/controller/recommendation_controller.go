package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"officefruits/models"
	"officefruits/repository"
	"officefruits/service"
	"officefruits/workflow"
)

const guruUnavailable = "The Fruit Guru is unavailable right now. Try again in a moment! 🍍"

// RecommendationController handles Fruit Guru requests
type RecommendationController struct {
	sessions
	recommendations *service.RecommendationService
	staleAfter      time.Duration
	now             func() time.Time
}

// NewRecommendationController creates a new RecommendationController
func NewRecommendationController(
	store repository.SessionStore,
	checkout *service.CheckoutService,
	recommendations *service.RecommendationService,
	staleAfter time.Duration,
	now func() time.Time,
	logger *zap.Logger,
) *RecommendationController {
	return &RecommendationController{
		sessions:        sessions{store: store, checkout: checkout, logger: logger},
		recommendations: recommendations,
		staleAfter:      staleAfter,
		now:             now,
	}
}

// Recommend handles POST /api/recommendation
// Request (optional): {"teamSize": 25, "mood": "Deadline week"}
// Response: {"guruMessage": "...", "box": {"orange": 12}, "applied": true, "session": {...}}
// The box is replaced only if it did not change while the Fruit Guru was thinking.
func (rc *RecommendationController) Recommend(c *gin.Context) {
	var req models.RecommendationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}
	}

	ctx := c.Request.Context()
	var (
		ticket   workflow.RecommendationTicket
		teamSize int
		mood     string
	)
	_, err := rc.update(ctx, c, func(s *workflow.Session) error {
		if req.TeamSize > 0 {
			if err := s.SetTeamSize(req.TeamSize); err != nil {
				return err
			}
		}
		if req.Mood != "" {
			if err := s.SetMood(req.Mood); err != nil {
				return err
			}
		}
		t, err := s.StartRecommendation(rc.now(), rc.staleAfter)
		if err != nil {
			return err
		}
		ticket, teamSize, mood = t, s.Draft.TeamSize, s.Draft.Mood
		return nil
	})
	if err != nil {
		writeError(c, rc.logger, err)
		return
	}

	rec, ok := rc.recommendations.Recommend(ctx, teamSize, mood)
	if !ok {
		if _, err := rc.update(ctx, c, func(s *workflow.Session) error {
			s.FinishRecommendation(ticket)
			return nil
		}); err != nil {
			rc.logger.Warn("Recommend: failed to clear pending marker", zap.Error(err), zap.String("session_id", sessionID(c)))
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": guruUnavailable})
		return
	}

	mapping := rc.recommendations.Resolve(rec)
	applied := false
	sess, err := rc.update(ctx, c, func(s *workflow.Session) error {
		applied = s.ApplyRecommendation(ticket, mapping, rec.Message)
		return nil
	})
	if err != nil {
		writeError(c, rc.logger, err)
		return
	}
	if !applied {
		rc.logger.Info("Recommend: discarding stale recommendation",
			zap.String("session_id", sess.ID),
			zap.Uint64("request", ticket.Request),
			zap.Uint64("requested_generation", ticket.Generation),
			zap.Uint64("current_generation", sess.Generation),
		)
	}

	c.JSON(http.StatusOK, gin.H{
		"guruMessage": rec.Message,
		"box":         mapping,
		"applied":     applied,
		"session":     rc.view(sess),
	})
}
