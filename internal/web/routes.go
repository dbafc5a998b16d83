package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/smartattendai/smart-attendance/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	studentsHandler := handlers.NewStudentsHandler(s.deps.Students)
	trainingHandler := handlers.NewTrainingHandler(s.deps.Trainer, s.deps.Students, s.jobManager, s.deps.Gallery, s.deps.Controller)
	galleryHandler := handlers.NewGalleryHandler(s.deps.Gallery, s.deps.Controller)
	recognizeHandler := handlers.NewRecognizeHandler(s.deps.Detector, s.deps.Embedder, s.deps.Controller,
		s.config.Training.CropMargin, s.config.Training.InputSize)
	sessionsHandler := handlers.NewSessionsHandler(s.deps.Sessions, s.deps.Source)
	attendanceHandler := handlers.NewAttendanceHandler(s.deps.Records, s.deps.Ledger, s.deps.Sessions, s.deps.Students)
	analyticsHandler := handlers.NewAnalyticsHandler(s.deps.Analytics)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Roster
		r.Get("/students", studentsHandler.List)
		r.Post("/students", studentsHandler.Create)
		r.Get("/students/{code}", studentsHandler.Get)
		r.Get("/students/{code}/attendance", analyticsHandler.StudentRatios)

		// Enrollment photos and training
		r.Post("/students/{code}/photos", trainingHandler.UploadPhoto)
		r.Get("/students/{code}/photos", trainingHandler.ListPhotos)
		r.Get("/students/{code}/photos/{name}", trainingHandler.GetPhoto)
		r.Delete("/students/{code}/photos/{name}", trainingHandler.DeletePhoto)
		r.Delete("/students/{code}/photos", trainingHandler.DeleteAllPhotos)
		r.Post("/students/{code}/train", trainingHandler.Train)
		r.Get("/train/{jobId}", trainingHandler.TrainStatus)

		// Reference gallery
		r.Get("/gallery", galleryHandler.Info)
		r.Delete("/gallery/{code}", galleryHandler.Remove)

		// Live recognition
		r.Post("/recognize", recognizeHandler.Recognize)

		// Schedule
		r.Get("/sessions", sessionsHandler.List)
		r.Get("/sessions/active", sessionsHandler.Active)
		r.Get("/sessions/{id}", sessionsHandler.Get)
		r.Get("/sessions/{id}/attendance", attendanceHandler.BySession)

		// Attendance
		r.Post("/attendance/checkin", attendanceHandler.Checkin)

		// Analytics
		r.Get("/analytics/dashboard", analyticsHandler.Dashboard)
		r.Get("/analytics/distribution", analyticsHandler.Distribution)
		r.Get("/analytics/at-risk", analyticsHandler.AtRisk)
	})
}
