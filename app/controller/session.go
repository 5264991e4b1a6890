package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"officefruits/models"
	"officefruits/repository"
	"officefruits/service"
	"officefruits/workflow"
)

const sessionIDKey = "sessionID"

// SessionMiddleware resolves the session cookie, creating a fresh session when
// the cookie is missing or points at an expired session.
func SessionMiddleware(store repository.SessionStore, cookieName string, maxAge time.Duration, secure bool, now func() time.Time, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id, err := c.Cookie(cookieName)
		if err == nil && id != "" {
			if _, getErr := store.Get(ctx, id); getErr == nil {
				c.Set(sessionIDKey, id)
				c.Next()
				return
			} else if !errors.Is(getErr, repository.ErrSessionNotFound) {
				logger.Error("SessionMiddleware: failed to load session", zap.Error(getErr), zap.String("session_id", id))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session storage unavailable"})
				return
			}
		}

		sess := workflow.New(uuid.NewString(), now())
		if err := store.Create(ctx, sess); err != nil {
			logger.Error("SessionMiddleware: failed to create session", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session storage unavailable"})
			return
		}
		logger.Debug("SessionMiddleware: new session", zap.String("session_id", sess.ID))

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(cookieName, sess.ID, int(maxAge.Seconds()), "/", "", secure, true)
		c.Set(sessionIDKey, sess.ID)
		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}

// sessions is the shared session plumbing embedded by the workflow controllers
type sessions struct {
	store    repository.SessionStore
	checkout *service.CheckoutService
	logger   *zap.Logger
}

func (s sessions) update(ctx context.Context, c *gin.Context, fn func(*workflow.Session) error) (*workflow.Session, error) {
	return s.store.Update(ctx, sessionID(c), fn)
}

// view builds the SessionView returned by every workflow endpoint
func (s sessions) view(sess *workflow.Session) models.SessionView {
	v := models.SessionView{
		ID:                    sess.ID,
		State:                 string(sess.State),
		Box:                   sess.Box.Items(),
		Quote:                 s.checkout.Quote(sess),
		Draft:                 sess.Draft,
		Generation:            sess.Generation,
		CanReview:             sess.State == workflow.StateBuilding && !sess.Box.IsEmpty(),
		RecommendationPending: sess.RecommendationPending,
		GuruMessage:           sess.GuruMessage,
		Submitting:            sess.Submitting,
		Notice:                sess.Notice,
		Order:                 sess.Order,
	}
	if sess.State == workflow.StateCheckout {
		v.Validation = s.checkout.Validate(sess)
	}
	if sess.Order != nil {
		v.Confirmation = &models.Confirmation{
			Message:   service.ConfirmationMessage(*sess.Order),
			ReceiptTo: sess.Order.Email,
		}
	}
	return v
}

// respond writes the session view, or the mapped error
func (s sessions) respond(c *gin.Context, sess *workflow.Session, err error) {
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, s.view(sess))
}
