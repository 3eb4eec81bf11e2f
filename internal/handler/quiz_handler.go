package handler

import (
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"github.com/yourusername/lms-quiz-api/internal/domain/entity"
	"github.com/yourusername/lms-quiz-api/internal/handler/dto"
	apperrors "github.com/yourusername/lms-quiz-api/internal/pkg/errors"
	"github.com/yourusername/lms-quiz-api/internal/service"
	"github.com/yourusername/lms-quiz-api/pkg/auth"
)

// Attempts fetched in one export query. Course-sized quizzes stay far below
// this; the export endpoint is not meant for cross-course analytics.
const exportAttemptLimit = 100000

// QuizHandler handles quiz and question authoring requests
type QuizHandler struct {
	quizService   *service.QuizService
	resultService *service.ResultService
}

// NewQuizHandler creates a new quiz handler
func NewQuizHandler(quizService *service.QuizService, resultService *service.ResultService) *QuizHandler {
	return &QuizHandler{
		quizService:   quizService,
		resultService: resultService,
	}
}

// QuizRequest is the create/update payload for a quiz
type QuizRequest struct {
	CourseID           uint   `json:"course_id" binding:"required"`
	LessonID           uint   `json:"lesson_id"`
	Title              string `json:"title" binding:"required,min=3,max=150"`
	Description        string `json:"description" binding:"omitempty,max=1000"`
	TimeLimitMinutes   int    `json:"time_limit_minutes" binding:"gte=0"`
	PassingScore       int    `json:"passing_score" binding:"gte=0,lte=100"`
	MaxAttempts        int    `json:"max_attempts" binding:"gte=0"`
	ShuffleQuestions   bool   `json:"shuffle_questions"`
	ShuffleAnswers     bool   `json:"shuffle_answers"`
	ShowCorrectAnswers bool   `json:"show_correct_answers"`
}

func (r *QuizRequest) toEntity() *entity.Quiz {
	return &entity.Quiz{
		CourseID:           r.CourseID,
		LessonID:           r.LessonID,
		Title:              r.Title,
		Description:        r.Description,
		TimeLimitMinutes:   r.TimeLimitMinutes,
		PassingScore:       r.PassingScore,
		MaxAttempts:        r.MaxAttempts,
		ShuffleQuestions:   r.ShuffleQuestions,
		ShuffleAnswers:     r.ShuffleAnswers,
		ShowCorrectAnswers: r.ShowCorrectAnswers,
	}
}

// CreateQuiz handles quiz creation
// POST /api/quizzes
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	var req QuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quiz, err := h.quizService.CreateQuiz(req.toEntity())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewQuizResponse(quiz, false, true))
}

// ListQuizzes returns a page of a course's quizzes
// GET /api/quizzes?course_id=N&page=1&per_page=20
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	courseID, err := strconv.ParseUint(c.Query("course_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "course_id query parameter is required"})
		return
	}

	limit, offset := pagination(c)
	quizzes, total, err := h.quizService.ListQuizzes(uint(courseID), limit, offset)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPaginatedQuizResponse(quizzes, total, limit, offset))
}

// GetQuiz returns one quiz. Students only see published quizzes and never
// see correct answers; instructors get the full authoring view.
// GET /api/quizzes/:id
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)
	isInstructor := c.GetString("role") == auth.RoleInstructor

	quiz, err := h.quizService.GetQuizWithQuestions(quizID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if !isInstructor && !quiz.IsPublished() {
		handleServiceError(c, fmt.Errorf("%w: quiz not found", apperrors.ErrNotFound))
		return
	}

	c.JSON(http.StatusOK, dto.NewQuizResponse(quiz, isInstructor, isInstructor))
}

// UpdateQuiz handles quiz configuration updates
// PUT /api/quizzes/:id
func (h *QuizHandler) UpdateQuiz(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)

	var req QuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quiz := req.toEntity()
	quiz.ID = quizID
	updated, err := h.quizService.UpdateQuiz(quiz)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuizResponse(updated, false, true))
}

// DeleteQuiz removes a quiz without recorded attempts
// DELETE /api/quizzes/:id
func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)

	if err := h.quizService.DeleteQuiz(quizID); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Quiz deleted"})
}

// PublishQuiz validates the quiz and opens it for attempts
// POST /api/quizzes/:id/publish
func (h *QuizHandler) PublishQuiz(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)

	quiz, err := h.quizService.PublishQuiz(quizID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuizResponse(quiz, false, true))
}

// UnpublishQuiz hides the quiz from students
// POST /api/quizzes/:id/unpublish
func (h *QuizHandler) UnpublishQuiz(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)

	if err := h.quizService.UnpublishQuiz(quizID); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Quiz unpublished"})
}

// AnswerOptionPayload is one option in a question payload
type AnswerOptionPayload struct {
	Text      string `json:"text" binding:"required,max=1000"`
	IsCorrect bool   `json:"is_correct"`
	SortOrder int    `json:"sort_order"`
}

// QuestionRequest is the create/update payload for a question
type QuestionRequest struct {
	Text        string                `json:"text" binding:"required,min=3,max=2000"`
	Explanation string                `json:"explanation" binding:"omitempty,max=2000"`
	Type        string                `json:"type" binding:"required,oneof=single_choice multiple_choice true_false short_answer essay"`
	PointValue  int                   `json:"point_value" binding:"gte=0"`
	SortOrder   int                   `json:"sort_order" binding:"gte=0"`
	ImageURL    string                `json:"image_url" binding:"omitempty,max=500"`
	Options     []AnswerOptionPayload `json:"options" binding:"omitempty,max=10,dive"`
}

func (r *QuestionRequest) toEntity() *entity.Question {
	pointValue := r.PointValue
	if pointValue == 0 {
		pointValue = 1
	}
	question := &entity.Question{
		Text:        r.Text,
		Explanation: r.Explanation,
		Type:        r.Type,
		PointValue:  pointValue,
		SortOrder:   r.SortOrder,
		ImageURL:    r.ImageURL,
	}
	for i, opt := range r.Options {
		sortOrder := opt.SortOrder
		if sortOrder == 0 {
			sortOrder = i + 1
		}
		question.Options = append(question.Options, entity.AnswerOption{
			Text:      opt.Text,
			IsCorrect: opt.IsCorrect,
			SortOrder: sortOrder,
		})
	}
	return question
}

// AddQuestion adds a question to a quiz
// POST /api/quizzes/:id/questions
func (h *QuizHandler) AddQuestion(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)

	var req QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	question, err := h.quizService.AddQuestion(quizID, req.toEntity())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewQuestionResponse(question, true))
}

// UpdateQuestion updates a question and replaces its options
// PUT /api/quizzes/:id/questions/:question_id
func (h *QuizHandler) UpdateQuestion(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)
	questionID := c.MustGet("questionID").(uint)

	var req QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	question, err := h.quizService.UpdateQuestion(quizID, questionID, req.toEntity())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuestionResponse(question, true))
}

// DeleteQuestion removes a question from a quiz
// DELETE /api/quizzes/:id/questions/:question_id
func (h *QuizHandler) DeleteQuestion(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)
	questionID := c.MustGet("questionID").(uint)

	if err := h.quizService.DeleteQuestion(quizID, questionID); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Question deleted"})
}

// ReorderQuestionsRequest carries the new question order
type ReorderQuestionsRequest struct {
	QuestionIDs []uint `json:"question_ids" binding:"required,min=1"`
}

// ReorderQuestions rewrites the question order of a quiz
// PUT /api/quizzes/:id/question-order
func (h *QuizHandler) ReorderQuestions(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)

	var req ReorderQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.quizService.ReorderQuestions(quizID, req.QuestionIDs); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Questions reordered"})
}

// GetQuizStatistics returns aggregate attempt and per-question statistics
// GET /api/quizzes/:id/statistics
func (h *QuizHandler) GetQuizStatistics(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)

	stats, err := h.resultService.Statistics(quizID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ExportQuizAttempts exports a quiz's attempts as CSV or Excel
// GET /api/quizzes/:id/attempts/export?format=csv|xlsx
func (h *QuizHandler) ExportQuizAttempts(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)
	format := c.DefaultQuery("format", "csv")

	attempts, _, err := h.resultService.ListQuizAttempts(quizID, exportAttemptLimit, 0)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("quiz_%d_attempts_%s", quizID, time.Now().Format("2006-01-02"))
	switch format {
	case "xlsx":
		h.exportXLSX(c, attempts, filename)
	default:
		h.exportCSV(c, attempts, filename)
	}
}

var exportHeader = []string{"Attempt ID", "Student ID", "Status", "Started At", "Completed At", "Time Spent (s)", "Score", "Total Points", "Percentage", "Passed", "Pending Manual"}

func exportRow(a *entity.Attempt) []string {
	completedAt := ""
	if a.CompletedAt != nil {
		completedAt = a.CompletedAt.Format(time.RFC3339)
	}
	return []string{
		strconv.FormatUint(uint64(a.ID), 10),
		strconv.FormatUint(uint64(a.StudentID), 10),
		a.Status,
		a.StartedAt.Format(time.RFC3339),
		completedAt,
		strconv.Itoa(a.TimeSpentSec),
		strconv.Itoa(a.Score),
		strconv.Itoa(a.TotalPoints),
		strconv.Itoa(a.Percentage),
		strconv.FormatBool(a.Passed),
		strconv.FormatBool(a.PendingManual),
	}
}

// exportCSV writes the attempts as CSV with proper escaping
func (h *QuizHandler) exportCSV(c *gin.Context, attempts []entity.Attempt, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))

	// BOM so Excel detects UTF-8
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write(exportHeader)
	for i := range attempts {
		writer.Write(exportRow(&attempts[i]))
	}
}

// exportXLSX writes the attempts as an Excel sheet using a StreamWriter
func (h *QuizHandler) exportXLSX(c *gin.Context, attempts []entity.Attempt, filename string) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Attempts"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[QuizHandler] Failed to create StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	header := make([]interface{}, len(exportHeader))
	for i, name := range exportHeader {
		header[i] = name
	}
	if err := sw.SetRow("A1", header); err != nil {
		log.Printf("[QuizHandler] Failed to write header row: %v", err)
	}

	for i := range attempts {
		cells := exportRow(&attempts[i])
		row := make([]interface{}, len(cells))
		for j, v := range cells {
			row[j] = v
		}
		if err := sw.SetRow(fmt.Sprintf("A%d", i+2), row); err != nil {
			log.Printf("[QuizHandler] Failed to write row %d: %v", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[QuizHandler] StreamWriter flush failed: %v", err)
	}
	if err := f.Write(c.Writer); err != nil {
		log.Printf("[QuizHandler] Failed to write Excel response: %v", err)
	}
}
