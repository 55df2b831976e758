package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/streamspace-dev/mcp-gateway/internal/apperr"
	"github.com/streamspace-dev/mcp-gateway/internal/resources"
)

func (s *Server) createTool(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	var data resources.ToolData
	if err := c.ShouldBindJSON(&data); err != nil {
		apperr.AbortWithError(c, apperr.ValidationFailed(err.Error()))
		return
	}
	record, err := s.Tools.Create(c.Request.Context(), principal, data)
	if err != nil {
		apperr.AbortWithError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, record)
}

func (s *Server) listTools(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	records, err := s.Tools.List(c.Request.Context(), principal)
	if err != nil {
		apperr.AbortWithError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, records)
}

func (s *Server) getTool(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	record, err := s.Tools.Get(c.Request.Context(), principal, c.Param("name"))
	if err != nil {
		apperr.AbortWithError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, record)
}

func (s *Server) updateTool(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	var data resources.ToolData
	if err := c.ShouldBindJSON(&data); err != nil {
		apperr.AbortWithError(c, apperr.ValidationFailed(err.Error()))
		return
	}
	record, err := s.Tools.Update(c.Request.Context(), principal, c.Param("name"), data)
	if err != nil {
		apperr.AbortWithError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, record)
}

func (s *Server) deleteTool(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	if err := s.Tools.Delete(c.Request.Context(), principal, c.Param("name")); err != nil {
		apperr.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) toolStatus(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	status, err := s.Tools.Status(c.Request.Context(), principal, c.Param("name"))
	if err != nil {
		apperr.AbortWithError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, status)
}

func (s *Server) toolLogs(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	ordinal, err := logOrdinal(c)
	if err != nil {
		apperr.AbortWithError(c, err)
		return
	}
	logs, err := s.Tools.Logs(c.Request.Context(), principal, c.Param("name"), ordinal)
	if err != nil {
		apperr.AbortWithError(c, err)
		return
	}
	c.String(http.StatusOK, logs)
}
