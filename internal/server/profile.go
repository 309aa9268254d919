package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) Profile(c *gin.Context) {
	profile, err := s.catalog.Profile(c.Request.Context(), principalFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": profile})
}

// Transactions lists the caller's billing history with links to local
// courses where the code still exists.
func (s *Server) Transactions(c *gin.Context) {
	txs, err := s.catalog.Transactions(c.Request.Context(), principalFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": txs})
}
