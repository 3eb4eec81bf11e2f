package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/lms-quiz-api/internal/config"
	"github.com/yourusername/lms-quiz-api/internal/handler"
	"github.com/yourusername/lms-quiz-api/internal/middleware"
	"github.com/yourusername/lms-quiz-api/internal/repository/postgres"
	redisrepo "github.com/yourusername/lms-quiz-api/internal/repository/redis"
	"github.com/yourusername/lms-quiz-api/internal/service"
	"github.com/yourusername/lms-quiz-api/pkg/auth"
	"github.com/yourusername/lms-quiz-api/pkg/database"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.MigrateDB(db); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	// Redis
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Repositories
	quizRepo := postgres.NewQuizRepo(db)
	questionRepo := postgres.NewQuestionRepo(db)
	attemptRepo := postgres.NewAttemptRepo(db)
	cacheRepo, err := redisrepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Fatalf("Failed to create cache repository: %v", err)
	}

	// Email notifications
	var emailService service.EmailService
	if cfg.Email.Enabled {
		emailService, err = service.NewResendEmailService(cfg.Email.ResendAPIKey, cfg.Email.From)
		if err != nil {
			log.Fatalf("Failed to create email service: %v", err)
		}
		log.Println("Result email notifications enabled")
	} else {
		emailService = service.NewNoopEmailService()
	}

	// Services
	quizService := service.NewQuizService(quizRepo, questionRepo, attemptRepo)
	attemptService := service.NewAttemptService(attemptRepo, quizRepo, questionRepo, cacheRepo, emailService)
	resultService := service.NewResultService(
		attemptRepo,
		quizRepo,
		cacheRepo,
		cfg.Quiz.LeaderboardSize,
		time.Duration(cfg.Quiz.LeaderboardCacheTTLSec)*time.Second,
	)

	// Auth
	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs)
	if err != nil {
		log.Fatalf("Failed to create JWT service: %v", err)
	}
	authMiddleware := middleware.NewAuthMiddleware(jwtService)

	// Handlers
	quizHandler := handler.NewQuizHandler(quizService, resultService)
	attemptHandler := handler.NewAttemptHandler(attemptService, resultService)

	// Background sweep: finalizes in_progress attempts whose deadline passed
	// without a submit. Expiry itself is lazy, this only tidies up.
	go runExpirySweep(appCtx, attemptService, cfg.Quiz)

	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		quizzes := api.Group("/quizzes")
		quizzes.Use(authMiddleware.RequireAuth())
		{
			instructorQuizzes := quizzes.Group("")
			instructorQuizzes.Use(authMiddleware.InstructorOnly())
			{
				instructorQuizzes.POST("", quizHandler.CreateQuiz)
				instructorQuizzes.GET("", quizHandler.ListQuizzes)
			}

			quizWithID := quizzes.Group("/:id")
			quizWithID.Use(middleware.ExtractUintParam("id", "quizID"))
			{
				quizWithID.GET("", quizHandler.GetQuiz)
				quizWithID.GET("/leaderboard", attemptHandler.GetLeaderboard)

				// Quiz-taking flow
				quizWithID.POST("/attempts", attemptHandler.StartAttempt)
				quizWithID.GET("/attempts/active", attemptHandler.GetActiveAttempt)
				quizWithID.GET("/attempts/my", attemptHandler.ListMyAttempts)

				// Authoring and instructor views
				instructor := quizWithID.Group("")
				instructor.Use(authMiddleware.InstructorOnly())
				{
					instructor.PUT("", quizHandler.UpdateQuiz)
					instructor.DELETE("", quizHandler.DeleteQuiz)
					instructor.POST("/publish", quizHandler.PublishQuiz)
					instructor.POST("/unpublish", quizHandler.UnpublishQuiz)

					instructor.POST("/questions", quizHandler.AddQuestion)
					instructor.PUT("/question-order", quizHandler.ReorderQuestions)
					questionRoutes := instructor.Group("/questions/:question_id")
					questionRoutes.Use(middleware.ExtractUintParam("question_id", "questionID"))
					{
						questionRoutes.PUT("", quizHandler.UpdateQuestion)
						questionRoutes.DELETE("", quizHandler.DeleteQuestion)
					}

					instructor.GET("/attempts", attemptHandler.ListQuizAttempts)
					instructor.GET("/attempts/export", quizHandler.ExportQuizAttempts)
					instructor.GET("/statistics", quizHandler.GetQuizStatistics)
				}
			}
		}

		attempts := api.Group("/attempts")
		attempts.Use(authMiddleware.RequireAuth())
		{
			attemptWithID := attempts.Group("/:id")
			attemptWithID.Use(middleware.ExtractUintParam("id", "attemptID"))
			{
				attemptWithID.GET("", attemptHandler.GetAttempt)
				attemptWithID.PUT("/answers", attemptHandler.SaveAnswer)
				attemptWithID.POST("/submit", attemptHandler.SubmitAttempt)
				attemptWithID.POST("/abandon", attemptHandler.AbandonAttempt)

				grading := attemptWithID.Group("/answers/:question_id/grade")
				grading.Use(authMiddleware.InstructorOnly(), middleware.ExtractUintParam("question_id", "questionID"))
				{
					grading.POST("", attemptHandler.GradeAnswer)
				}
			}
		}
	}

	port := cfg.Server.Port
	if port == "" {
		port = "8080"
	}
	readTimeout := cfg.Server.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 15
	}
	writeTimeout := cfg.Server.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  time.Duration(readTimeout) * time.Second,
		WriteTimeout: time.Duration(writeTimeout) * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("Server exited properly")
}

// runExpirySweep periodically finalizes overdue attempts until the context
// is cancelled
func runExpirySweep(ctx context.Context, attemptService *service.AttemptService, cfg config.QuizConfig) {
	interval := time.Duration(cfg.ExpirySweepIntervalSec) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	batchSize := cfg.ExpirySweepBatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("Expiry sweep started: every %s, batch %d", interval, batchSize)
	for {
		select {
		case <-ctx.Done():
			log.Println("Expiry sweep stopped")
			return
		case now := <-ticker.C:
			if _, err := attemptService.ExpireOverdueAttempts(now, batchSize); err != nil {
				log.Printf("Expiry sweep failed: %v", err)
			}
		}
	}
}
