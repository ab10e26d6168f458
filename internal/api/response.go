package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ChanSentinel/internal/model"
)

// Response is the envelope every API endpoint returns.
type Response struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) ok(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Response{Success: true, Message: message, Data: data, Timestamp: s.now()})
}

func (s *Server) fail(c *gin.Context, status int, message string) {
	c.JSON(status, Response{Success: false, Message: message, Timestamp: s.now()})
}

func orEmpty[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

// normalized copies r with every nil list replaced by an empty one so
// clients always see arrays.
func normalized(r *model.AnalysisResult) *model.AnalysisResult {
	out := *r
	out.Bars = orEmpty(r.Bars)
	out.Fenxing = orEmpty(r.Fenxing)
	out.Strokes = orEmpty(r.Strokes)
	out.Segments = orEmpty(r.Segments)
	out.Centers = orEmpty(r.Centers)
	out.Oscillator = orEmpty(r.Oscillator)
	out.Divergences = orEmpty(r.Divergences)
	return &out
}
