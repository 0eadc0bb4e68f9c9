package httpserver

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/chestkeeper/internal/common"
	"github.com/dmitrijs2005/chestkeeper/internal/server/models"
	"github.com/dmitrijs2005/chestkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

const (
	ReasonForbidden            = "Forbidden."
	ReasonDatabase             = "Database error."
	ReasonAuthorityUnavailable = "Minecraft Session Server is down, please try again later."
	ReasonNotFound             = "Resource was not found."
	ReasonInvalidUUID          = "Invalid uuid."
	ReasonInvalidUsername      = "Invalid username."
	ReasonInvalidPosition      = "Position out of range."
	ReasonInvalidBody          = "Invalid request body."
	ReasonTooManyRequests      = "Too many requests."
	ReasonInternal             = "Internal error."
)

type errorResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

type tokenResponse struct {
	Status string `json:"status"`
	Token  string `json:"token"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type chestResponse struct {
	Status string              `json:"status"`
	Chest  *services.ChestView `json:"chest"`
}

type chestsResponse struct {
	Status string               `json:"status"`
	Chests []services.ChestView `json:"chests"`
}

type chestRequest struct {
	X     *int32 `json:"x" binding:"required"`
	Y     *int32 `json:"y" binding:"required"`
	Z     *int32 `json:"z" binding:"required"`
	Level *int16 `json:"level" binding:"required,min=0"`
}

func (s *HTTPServer) health(c *gin.Context) {
	c.JSON(http.StatusOK, statusResponse{Status: common.StatusOK})
}

func (s *HTTPServer) newToken(c *gin.Context) {
	token, err := s.tokens.NewToken(c.Request.Context(), c.Param("uuid"), c.Param("username"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.metrics.TokenIssued()
	c.JSON(http.StatusOK, tokenResponse{Status: common.StatusOK, Token: token})
}

// verify is an explicit phase 2; the work is done by tokenAuth.
func (s *HTTPServer) verify(c *gin.Context) {
	c.JSON(http.StatusOK, statusResponse{Status: common.StatusOK})
}

func (s *HTTPServer) addChest(c *gin.Context) {
	var req chestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Debug(c.Request.Context(), "chest body rejected", "error", err)
		c.JSON(http.StatusBadRequest, errorResponse{Status: common.StatusError, Reason: ReasonInvalidBody})
		return
	}

	pos := models.Position{X: *req.X, Y: *req.Y, Z: *req.Z}
	chest, err := s.chests.AddChest(c.Request.Context(), userIDFrom(c), pos, *req.Level)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, chestResponse{Status: common.StatusOK, Chest: chest})
}

func (s *HTTPServer) listChests(c *gin.Context) {
	list, err := s.chests.ListChests(c.Request.Context(), userIDFrom(c))
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, chestsResponse{Status: common.StatusOK, Chests: list})
}

func (s *HTTPServer) notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, errorResponse{Status: common.StatusError, Reason: ReasonNotFound})
}

func (s *HTTPServer) writeError(c *gin.Context, err error) {
	code, reason := errorStatus(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), "request failed", "route", c.FullPath(), "error", err)
	}
	c.JSON(code, errorResponse{Status: common.StatusError, Reason: reason})
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrorInvalidUUID):
		return http.StatusBadRequest, ReasonInvalidUUID
	case errors.Is(err, common.ErrorInvalidUsername):
		return http.StatusBadRequest, ReasonInvalidUsername
	case errors.Is(err, common.ErrorInvalidPosition):
		return http.StatusBadRequest, ReasonInvalidPosition
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden, ReasonForbidden
	case errors.Is(err, common.ErrAuthorityUnavailable):
		return http.StatusServiceUnavailable, ReasonAuthorityUnavailable
	case errors.Is(err, common.ErrStorage):
		return http.StatusInternalServerError, ReasonDatabase
	default:
		return http.StatusInternalServerError, ReasonInternal
	}
}
