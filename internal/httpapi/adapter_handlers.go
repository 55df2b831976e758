package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/streamspace-dev/mcp-gateway/internal/apperr"
	"github.com/streamspace-dev/mcp-gateway/internal/resources"
)

func (s *Server) createAdapter(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	var data resources.AdapterData
	if err := c.ShouldBindJSON(&data); err != nil {
		apperr.AbortWithError(c, apperr.ValidationFailed(err.Error()))
		return
	}
	record, err := s.Adapters.Create(c.Request.Context(), principal, data)
	if err != nil {
		apperr.AbortWithError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, record)
}

func (s *Server) listAdapters(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	records, err := s.Adapters.List(c.Request.Context(), principal)
	if err != nil {
		apperr.AbortWithError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, records)
}

func (s *Server) getAdapter(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	record, err := s.Adapters.Get(c.Request.Context(), principal, c.Param("name"))
	if err != nil {
		apperr.AbortWithError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, record)
}

func (s *Server) updateAdapter(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	var data resources.AdapterData
	if err := c.ShouldBindJSON(&data); err != nil {
		apperr.AbortWithError(c, apperr.ValidationFailed(err.Error()))
		return
	}
	record, err := s.Adapters.Update(c.Request.Context(), principal, c.Param("name"), data)
	if err != nil {
		apperr.AbortWithError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, record)
}

func (s *Server) deleteAdapter(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	if err := s.Adapters.Delete(c.Request.Context(), principal, c.Param("name")); err != nil {
		apperr.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) adapterStatus(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	status, err := s.Adapters.Status(c.Request.Context(), principal, c.Param("name"))
	if err != nil {
		apperr.AbortWithError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, status)
}

func (s *Server) adapterLogs(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	ordinal, err := logOrdinal(c)
	if err != nil {
		apperr.AbortWithError(c, err)
		return
	}
	logs, err := s.Adapters.Logs(c.Request.Context(), principal, c.Param("name"), ordinal)
	if err != nil {
		apperr.AbortWithError(c, err)
		return
	}
	c.String(http.StatusOK, logs)
}
