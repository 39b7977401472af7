package main

import (
	"context"
	"errors"
	"net/http"

	"triviagen"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"
)

const (
	sessionName             = "trivia-session"
	sessionKeyCorrectAnswer = "correct_answer"
)

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	quiz     *triviagen.QuizGenerator
	stats    triviagen.StatsStore
	sessions sessions.Store
	metrics  *triviagen.Metrics
	log      zerolog.Logger
}

type questionResponse struct {
	Success       bool     `json:"success"`
	Question      string   `json:"question,omitempty"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correct_answer,omitempty"`
	Error         string   `json:"error,omitempty"`
}

// checkAnswerRequest carries the player's answer. An empty or absent
// user_answer is a wrong answer, not a malformed request.
type checkAnswerRequest struct {
	UserAnswer    string `json:"user_answer"`
	CorrectAnswer string `json:"correct_answer"`
}

type checkAnswerResponse struct {
	Success       bool   `json:"success"`
	IsCorrect     bool   `json:"is_correct"`
	CorrectAnswer string `json:"correct_answer"`
}

type updateStatsRequest struct {
	IsCorrect *bool `json:"is_correct" binding:"required"`
}

type statsResponse struct {
	Success bool             `json:"success"`
	Stats   *triviagen.Stats `json:"stats,omitempty"`
	Error   string           `json:"error,omitempty"`
}

type failureResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, failureResponse{Success: false, Error: msg})
}

func (s *Server) handleGenerateQuestion(c *gin.Context) {
	// The pipeline runs to completion even if the client goes away.
	ctx := context.WithoutCancel(c.Request.Context())

	q, err := s.quiz.GenerateUniqueQuestion(ctx)
	if err != nil {
		s.log.Error().Err(err).Str("request_id", c.GetString(contextKeyRequestID)).Msg("Failed to generate question")
		c.JSON(http.StatusOK, questionResponse{Success: false, Error: generationErrorMessage(err)})
		return
	}

	s.rememberAnswer(c, q.CorrectAnswer)

	c.JSON(http.StatusOK, questionResponse{
		Success:       true,
		Question:      q.Text,
		Options:       q.Options,
		CorrectAnswer: q.CorrectAnswer,
	})
}

func generationErrorMessage(err error) string {
	switch {
	case errors.Is(err, triviagen.ErrExhaustedRetries):
		return triviagen.ErrExhaustedRetries.Error()
	case errors.Is(err, triviagen.ErrPersistence):
		return "failed to record the generated question"
	default:
		return "failed to generate question"
	}
}

func (s *Server) handleCheckAnswer(c *gin.Context) {
	var req checkAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	correct := req.CorrectAnswer
	if correct == "" {
		correct = s.recalledAnswer(c)
	}
	if correct == "" {
		fail(c, http.StatusBadRequest, "correct_answer is required")
		return
	}

	isCorrect := triviagen.EvaluateAnswer(req.UserAnswer, correct)
	s.metrics.ObserveAnswer(isCorrect)

	c.JSON(http.StatusOK, checkAnswerResponse{
		Success:       true,
		IsCorrect:     isCorrect,
		CorrectAnswer: correct,
	})
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.stats.Read(c.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to read stats")
		c.JSON(http.StatusOK, statsResponse{Success: false, Error: "failed to read stats"})
		return
	}
	c.JSON(http.StatusOK, statsResponse{Success: true, Stats: &stats})
}

func (s *Server) handleUpdateStats(c *gin.Context) {
	var req updateStatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	stats, err := triviagen.RecordOutcome(c.Request.Context(), s.stats, *req.IsCorrect)
	if err != nil {
		if !errors.Is(err, triviagen.ErrPersistence) {
			s.log.Error().Err(err).Msg("Failed to update stats")
			c.JSON(http.StatusOK, statsResponse{Success: false, Error: "failed to update stats"})
			return
		}
		s.log.Warn().Err(err).Msg("Stats update not persisted")
	}
	c.JSON(http.StatusOK, statsResponse{Success: true, Stats: &stats})
}

// rememberAnswer stores the served question's answer in the client's session
// so /check-answer can be called without echoing it back.
func (s *Server) rememberAnswer(c *gin.Context, answer string) {
	session, err := s.sessions.Get(c.Request, sessionName)
	if err != nil {
		s.log.Debug().Err(err).Msg("Discarding unreadable session")
	}
	session.Values[sessionKeyCorrectAnswer] = answer
	if err := session.Save(c.Request, c.Writer); err != nil {
		s.log.Warn().Err(err).Msg("Failed to save session")
	}
}

func (s *Server) recalledAnswer(c *gin.Context) string {
	session, err := s.sessions.Get(c.Request, sessionName)
	if err != nil {
		return ""
	}
	answer, _ := session.Values[sessionKeyCorrectAnswer].(string)
	return answer
}
