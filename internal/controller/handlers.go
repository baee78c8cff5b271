package controller

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ideb/interview-agenda/internal/model"
	"github.com/ideb/interview-agenda/internal/service"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

type createInterviewRequest struct {
	GuardianID     int64  `json:"guardian_id" binding:"required"`
	StudentID      int64  `json:"student_id" binding:"required"`
	TeacherID      *int64 `json:"teacher_id"`
	PsychologistID *int64 `json:"psychologist_id"`
	Date           string `json:"date" binding:"required"`
	ReasonID       int64  `json:"reason_id" binding:"required"`
	Note           string `json:"note"`
}

func (s *Server) createInterview(c *gin.Context) {
	var input createInterviewRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	date, err := time.Parse(dateLayout, input.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	result, err := s.allocation.TryBook(c.Request.Context(), service.BookingInput{
		GuardianID:     input.GuardianID,
		StudentID:      input.StudentID,
		TeacherID:      input.TeacherID,
		PsychologistID: input.PsychologistID,
		Date:           date,
		ReasonID:       input.ReasonID,
		Note:           input.Note,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (s *Server) getQueue(c *gin.Context) {
	ref, ok := parseRef(c, c.Query("kind"), c.Query("id"))
	if !ok {
		return
	}

	date, err := time.Parse(dateLayout, c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	entries, err := s.allocation.QueueForDate(c.Request.Context(), ref, date)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"queue": entries})
}

func (s *Server) getByDate(c *gin.Context) {
	date, err := time.Parse(dateLayout, c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	requests, err := s.allocation.ListRange(c.Request.Context(), date, date)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"interviews": requests})
}

func (s *Server) getByGuardian(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "guardian id must be an integer"})
		return
	}

	requests, err := s.allocation.HistoryForGuardian(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"interviews": requests})
}

type rangeRequest struct {
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
}

func (s *Server) getByRange(c *gin.Context) {
	var input rangeRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	from, err := time.Parse(dateLayout, input.From)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be YYYY-MM-DD"})
		return
	}
	to, err := time.Parse(dateLayout, input.To)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must be YYYY-MM-DD"})
		return
	}
	if to.Before(from) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must not be before from"})
		return
	}

	requests, err := s.allocation.ListRange(c.Request.Context(), from, to)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"interviews": requests})
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (s *Server) updateStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "interview id must be an integer"})
		return
	}

	var input updateStatusRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	status, ok := model.ParseStatus(input.Status)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be pending, completed or cancelled"})
		return
	}

	if err := s.allocation.UpdateStatus(c.Request.Context(), id, status); err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "status": status})
}

func (s *Server) getEnabledDates(c *gin.Context) {
	ref, ok := parseRef(c, c.Param("kind"), c.Param("id"))
	if !ok {
		return
	}

	from := time.Now()
	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be YYYY-MM-DD"})
			return
		}
		from = parsed
	}

	days := 30
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 90 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 1 and 90"})
			return
		}
		days = parsed
	}

	dates, err := s.allocation.EnabledDates(c.Request.Context(), ref, from, days)
	if err != nil {
		s.writeError(c, err)
		return
	}

	formatted := make([]string, len(dates))
	for i, d := range dates {
		formatted[i] = d.Format(dateLayout)
	}
	c.JSON(http.StatusOK, gin.H{"dates": formatted})
}

func (s *Server) runAgendaClose(c *gin.Context) {
	date := time.Now().In(s.closeJob.Location())
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	report, err := s.closeJob.RunNow(c.Request.Context(), date)
	if err != nil {
		s.logger.Error("Manual agenda close failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "agenda close failed"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// requireCronSecret protects job endpoints. The secret travels in the
// X-Cron-Secret header or, for simple cron clients, the token query
// parameter.
func (s *Server) requireCronSecret() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cronSecret == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "cron trigger disabled: no secret configured"})
			return
		}

		secret := c.GetHeader("X-Cron-Secret")
		if secret == "" {
			secret = c.Query("token")
		}
		if secret != s.cronSecret {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid cron secret"})
			return
		}

		c.Next()
	}
}

func (s *Server) writeError(c *gin.Context, err error) {
	if rej, ok := service.AsRejection(err); ok {
		status := http.StatusBadRequest
		switch rej.Code {
		case service.RejectDuplicateBooking, service.RejectAgendaFull:
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": rej.Message, "code": rej.Code})
		return
	}

	s.logger.Error("Request failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func parseRef(c *gin.Context, kindRaw, idRaw string) (model.ProfessionalRef, bool) {
	kind, ok := model.ParseKind(kindRaw)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be teacher or psychologist"})
		return model.ProfessionalRef{}, false
	}

	id, err := strconv.ParseInt(idRaw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "professional id must be an integer"})
		return model.ProfessionalRef{}, false
	}

	return model.ProfessionalRef{Kind: kind, ID: id}, true
}
