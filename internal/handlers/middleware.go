package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	ctxOperatorIDKey = "operatorId"
	bearerScheme     = "Bearer"

	errMissingAuth  = "missing Authorization header"
	errAuthFormat   = "invalid Authorization header format"
	errInvalidToken = "invalid or expired token"
)

var (
	errNoAuthHeader  = errors.New(errMissingAuth)
	errBadAuthHeader = errors.New(errAuthFormat)
)

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header value. The scheme is matched case-insensitively.
func bearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errNoAuthHeader
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, bearerScheme) || token == "" {
		return "", errBadAuthHeader
	}
	return token, nil
}

// operatorAuth guards operator actions. On success the operator's user id is
// stored in the gin context for operatorID.
func (h *Handler) operatorAuth(c *gin.Context) {
	token, err := bearerToken(c.GetHeader("Authorization"))
	if err != nil {
		h.rejectOperator(c, err.Error(), err)
		return
	}

	operatorID, err := h.services.ParseToken(token)
	if err != nil {
		h.rejectOperator(c, errInvalidToken, err)
		return
	}

	c.Set(ctxOperatorIDKey, operatorID)
	c.Next()
}

func (h *Handler) rejectOperator(c *gin.Context, msg string, err error) {
	if h.log != nil {
		h.log.Debugw("operator_auth_rejected", "path", c.FullPath(), "err", err)
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}

// operatorID returns the user id set by operatorAuth.
func operatorID(c *gin.Context) (int, bool) {
	v, ok := c.Get(ctxOperatorIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int)
	return id, ok
}
