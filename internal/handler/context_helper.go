package handler

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/trainer-availability-api/internal/middleware"
	"github.com/noah-isme/trainer-availability-api/internal/models"
	appErrors "github.com/noah-isme/trainer-availability-api/pkg/errors"
)

const dateLayout = "2006-01-02"

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		return nil
	}
	return claims
}

// resolveOwner decides whose records the caller acts on. Trainers are pinned to
// themselves; privileged roles may name another owner and otherwise act as themselves.
func resolveOwner(claims *models.JWTClaims, requested string, privileged ...models.UserRole) (string, error) {
	if claims == nil {
		return "", appErrors.ErrUnauthorized
	}
	requested = strings.TrimSpace(requested)
	if requested == "" || requested == claims.UserID {
		return claims.UserID, nil
	}
	for _, role := range privileged {
		if claims.Role == role {
			return requested, nil
		}
	}
	return "", appErrors.Clone(appErrors.ErrForbidden, "cannot act on another owner's availability")
}

// parseTimeParam accepts RFC3339 timestamps or plain YYYY-MM-DD dates (UTC midnight).
func parseTimeParam(raw, field string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, field+" must be RFC3339 or YYYY-MM-DD")
	}
	return t, nil
}
