package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/smallbiznis/coursehub/internal/catalog/domain"
)

func (s *Server) ListCourses(c *gin.Context) {
	courses, err := s.catalog.Catalog(c.Request.Context(), principalFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": courses})
}

func (s *Server) GetCourse(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	detail, err := s.catalog.Detail(c.Request.Context(), id, principalFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Set("course_code", detail.Course.Code)
	c.JSON(http.StatusOK, gin.H{"data": detail})
}

// GetCourseForm returns the edit form prefilled from local content and the
// billing record.
func (s *Server) GetCourseForm(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	form, err := s.catalog.CourseForm(c.Request.Context(), id, principalFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": form})
}

func (s *Server) CreateCourse(c *gin.Context) {
	useForm(c, courseForm)

	var req catalogdomain.CourseInput
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	course, err := s.catalog.CreateCourse(c.Request.Context(), req, principalFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Set("course_code", course.Code)
	c.JSON(http.StatusCreated, gin.H{"data": course})
}

func (s *Server) UpdateCourse(c *gin.Context) {
	useForm(c, courseForm)

	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req catalogdomain.CourseInput
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	course, err := s.catalog.EditCourse(c.Request.Context(), id, req, principalFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Set("course_code", course.Code)
	c.JSON(http.StatusOK, gin.H{"data": course})
}

func (s *Server) DeleteCourse(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.catalog.DeleteCourse(c.Request.Context(), id, principalFrom(c)); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
