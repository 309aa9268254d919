package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	contentdomain "github.com/smallbiznis/coursehub/internal/content/domain"
)

func (s *Server) GetLesson(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	lesson, err := s.catalog.Lesson(c.Request.Context(), id, principalFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Set("course_code", lesson.CourseCode)
	c.JSON(http.StatusOK, gin.H{"data": lesson})
}

// CreateLesson accepts ?course=<id> as the default owning course when the
// body leaves it out.
func (s *Server) CreateLesson(c *gin.Context) {
	useForm(c, lessonForm)

	var req contentdomain.LessonInput
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.CourseID == 0 {
		courseID, err := parseOptionalInt64(c.Query("course"))
		if err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
		if courseID != nil {
			req.CourseID = *courseID
		}
	}

	lesson, err := s.content.CreateLesson(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": lesson})
}

func (s *Server) UpdateLesson(c *gin.Context) {
	useForm(c, lessonForm)

	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req contentdomain.LessonInput
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	lesson, err := s.content.UpdateLesson(c.Request.Context(), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": lesson})
}

func (s *Server) DeleteLesson(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.content.DeleteLesson(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
