package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/lms-quiz-api/internal/handler/dto"
	"github.com/yourusername/lms-quiz-api/internal/service"
	"github.com/yourusername/lms-quiz-api/pkg/auth"
)

// AttemptHandler handles the quiz-taking flow: start, auto-save, submit,
// abandon and result reads
type AttemptHandler struct {
	attemptService *service.AttemptService
	resultService  *service.ResultService
}

// NewAttemptHandler creates a new attempt handler
func NewAttemptHandler(attemptService *service.AttemptService, resultService *service.ResultService) *AttemptHandler {
	return &AttemptHandler{
		attemptService: attemptService,
		resultService:  resultService,
	}
}

func requester(c *gin.Context) (userID uint, isInstructor bool) {
	return c.MustGet("user_id").(uint), c.GetString("role") == auth.RoleInstructor
}

// StartAttempt begins a new attempt against a published quiz
// POST /api/quizzes/:id/attempts
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)
	userID, _ := requester(c)

	attempt, questions, err := h.attemptService.StartAttempt(quizID, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	questionDTOs := make([]dto.QuestionResponse, 0, len(questions))
	for i := range questions {
		questionDTOs = append(questionDTOs, dto.NewQuestionResponse(&questions[i], false))
	}
	c.JSON(http.StatusCreated, dto.StartAttemptResponse{
		Attempt:   dto.NewAttemptResponse(attempt),
		Questions: questionDTOs,
	})
}

// GetActiveAttempt resumes the student's running attempt for a quiz
// GET /api/quizzes/:id/attempts/active
func (h *AttemptHandler) GetActiveAttempt(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)
	userID, _ := requester(c)

	attempt, questions, answers, err := h.attemptService.GetActiveAttempt(quizID, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	questionDTOs := make([]dto.QuestionResponse, 0, len(questions))
	for i := range questions {
		questionDTOs = append(questionDTOs, dto.NewQuestionResponse(&questions[i], false))
	}
	answerDTOs := make([]dto.AttemptAnswerResponse, 0, len(answers))
	for i := range answers {
		answerDTOs = append(answerDTOs, dto.NewAttemptAnswerResponse(&answers[i], false))
	}
	c.JSON(http.StatusOK, dto.ActiveAttemptResponse{
		Attempt:   dto.NewAttemptResponse(attempt),
		Questions: questionDTOs,
		Answers:   answerDTOs,
	})
}

// SaveAnswerRequest is the auto-save payload for one answer
type SaveAnswerRequest struct {
	QuestionID        uint   `json:"question_id" binding:"required"`
	SelectedOptionIDs []uint `json:"selected_option_ids"`
	TextAnswer        string `json:"text_answer"`
}

// SaveAnswer upserts one answer of a running attempt
// PUT /api/attempts/:id/answers
func (h *AttemptHandler) SaveAnswer(c *gin.Context) {
	attemptID := c.MustGet("attemptID").(uint)
	userID, _ := requester(c)

	var req SaveAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.attemptService.SaveAnswer(attemptID, userID, service.AnswerSubmission{
		QuestionID:        req.QuestionID,
		SelectedOptionIDs: req.SelectedOptionIDs,
		TextAnswer:        req.TextAnswer,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Answer saved"})
}

// SubmitAttemptRequest is the optional final-answers payload
type SubmitAttemptRequest struct {
	Answers []service.AnswerSubmission `json:"answers"`
}

// SubmitAttempt completes and grades the attempt. Repeated submits return
// the stored result.
// POST /api/attempts/:id/submit
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	attemptID := c.MustGet("attemptID").(uint)
	userID, _ := requester(c)

	var req SubmitAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	attempt, err := h.attemptService.SubmitAttempt(attemptID, userID, req.Answers, c.GetString("email"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	quiz, err := h.resultService.GetQuizForAttempt(attempt)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewAttemptDetailResponse(attempt, quiz, false))
}

// AbandonAttempt discards a running attempt without grading
// POST /api/attempts/:id/abandon
func (h *AttemptHandler) AbandonAttempt(c *gin.Context) {
	attemptID := c.MustGet("attemptID").(uint)
	userID, _ := requester(c)

	attempt, err := h.attemptService.AbandonAttempt(attemptID, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAttemptResponse(attempt))
}

// GetAttempt returns one attempt with its answers. Students see their own
// attempts; verdict details follow the quiz's show_correct_answers policy.
// GET /api/attempts/:id
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	attemptID := c.MustGet("attemptID").(uint)
	userID, isInstructor := requester(c)

	attempt, quiz, err := h.resultService.GetAttempt(attemptID, userID, isInstructor)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAttemptDetailResponse(attempt, quiz, isInstructor))
}

// ListMyAttempts returns the student's own attempt history for a quiz
// GET /api/quizzes/:id/attempts/my
func (h *AttemptHandler) ListMyAttempts(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)
	userID, _ := requester(c)

	limit, offset := pagination(c)
	attempts, total, err := h.resultService.ListStudentAttempts(quizID, userID, limit, offset)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPaginatedAttemptResponse(attempts, total, limit, offset))
}

// ListQuizAttempts returns every attempt of a quiz (instructor view)
// GET /api/quizzes/:id/attempts
func (h *AttemptHandler) ListQuizAttempts(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)

	limit, offset := pagination(c)
	attempts, total, err := h.resultService.ListQuizAttempts(quizID, limit, offset)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPaginatedAttemptResponse(attempts, total, limit, offset))
}

// GetLeaderboard returns the quiz's top completed attempts
// GET /api/quizzes/:id/leaderboard
func (h *AttemptHandler) GetLeaderboard(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)

	entries, err := h.resultService.Leaderboard(quizID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}

// GradeAnswerRequest is an instructor's verdict on one answer
type GradeAnswerRequest struct {
	Correct      bool `json:"correct"`
	PointsEarned int  `json:"points_earned" binding:"gte=0"`
}

// GradeAnswer records a manual grade for an answer awaiting review
// POST /api/attempts/:id/answers/:question_id/grade
func (h *AttemptHandler) GradeAnswer(c *gin.Context) {
	attemptID := c.MustGet("attemptID").(uint)
	questionID := c.MustGet("questionID").(uint)

	var req GradeAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	attempt, err := h.attemptService.GradeAnswerManually(attemptID, questionID, req.Correct, req.PointsEarned)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAttemptResponse(attempt))
}
