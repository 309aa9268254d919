package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/smallbiznis/coursehub/internal/billing/domain"
)

// Checkout shows the purchase confirmation. Owned courses redirect back to
// their page.
func (s *Server) Checkout(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	view, err := s.catalog.Checkout(c.Request.Context(), id, principalFrom(c))
	if errors.Is(err, billingdomain.ErrAlreadyOwned) {
		redirectToCourse(c, id)
		return
	}
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Set("course_code", view.Code)
	c.JSON(http.StatusOK, gin.H{"data": view})
}

// Pay buys or rents the course. A declined payment is not an error: the
// outcome carries the flash message to show on the checkout page.
func (s *Server) Pay(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	outcome, err := s.catalog.Purchase(c.Request.Context(), id, principalFrom(c))
	if errors.Is(err, billingdomain.ErrAlreadyOwned) {
		redirectToCourse(c, id)
		return
	}
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": outcome})
}

func redirectToCourse(c *gin.Context, id int64) {
	c.Redirect(http.StatusSeeOther, "/courses/"+strconv.FormatInt(id, 10))
	c.Abort()
}
