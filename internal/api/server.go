// Package api exposes the menu compliance engine over HTTP.
package api

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"

	"menuaudit/internal/engine"
	"menuaudit/internal/live"
	"menuaudit/internal/models"
)

var log = logrus.WithField("module", "api")

// Server wires the HTTP routes to the database and check engine.
type Server struct {
	Router    *gin.Engine
	db        *gorm.DB
	engine    *engine.Engine
	hub       *live.Hub
	uploadDir string
}

// NewServer creates the API server and registers all routes.
func NewServer(db *gorm.DB, eng *engine.Engine, hub *live.Hub, uploadDir string) *Server {
	router := gin.Default()

	s := &Server{
		Router:    router,
		db:        db,
		engine:    eng,
		hub:       hub,
		uploadDir: uploadDir,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API endpoints.
func (s *Server) setupRoutes() {
	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "menu compliance API is running"})
	})
	s.Router.GET("/ws", s.hub.HandleWebSocket)

	v1 := s.Router.Group("/api/v1")
	{
		// Check lifecycle
		v1.POST("/checks/upload", s.UploadMenu)
		v1.POST("/checks/:id/run", s.RunCheck)
		v1.GET("/checks", s.ListChecks)
		v1.GET("/checks/:id", s.GetCheck)
		v1.GET("/checks/:id/results", s.GetCheckResults)
		v1.GET("/checks/:id/days", s.GetCheckDays)
		v1.PUT("/results/:id/review", s.ReviewResult)
		v1.GET("/compliance/stats", s.ComplianceStats)

		// Rule management
		v1.GET("/rules", s.ListRules)
		v1.POST("/rules", s.CreateRule)
		v1.PUT("/rules/:id", s.UpdateRule)
		v1.DELETE("/rules/:id", s.DeactivateRule)

		// Dish catalog
		v1.GET("/dishes", s.ListDishes)
		v1.GET("/dishes/categories", s.DishCategories)
		v1.GET("/dishes/stats", s.DishStats)
		v1.POST("/dishes/extract/:id", s.ExtractDishes)
		v1.POST("/dishes", s.CreateDish)
		v1.POST("/dishes/bulk", s.CreateDishesBulk)
		v1.PUT("/dishes/:id", s.UpdateDish)
		v1.DELETE("/dishes/:id", s.DeleteDish)
	}
}

// Check lifecycle handlers

// UploadMenu accepts a multipart menu file plus site/month metadata and
// creates a pending check record. The file is stored under the upload dir.
func (s *Server) UploadMenu(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing menu file"})
		return
	}

	siteID, _ := strconv.ParseUint(c.PostForm("site_id"), 10, 32)
	month := c.PostForm("month")
	year, err := yearFromMonth(month)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dest := filepath.Join(s.uploadDir, fmt.Sprintf("%d_%s", time.Now().UnixNano(), filepath.Base(file.Filename)))
	if err := c.SaveUploadedFile(file, dest); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store menu file"})
		return
	}

	check := models.MenuCheck{
		SiteID:   uint(siteID),
		Month:    month,
		Year:     year,
		FilePath: dest,
	}
	if err := s.db.Create(&check).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, check)
}

// RunCheck executes a full compliance run for the check.
func (s *Server) RunCheck(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	summary, err := s.engine.RunCheck(c.Request.Context(), id)
	if err != nil {
		log.WithError(err).WithField("check_id", id).Error("check run failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (s *Server) ListChecks(c *gin.Context) {
	var checks []models.MenuCheck
	query := s.db.Order("created_at desc")
	if siteID := c.Query("site_id"); siteID != "" {
		query = query.Where("site_id = ?", siteID)
	}
	if month := c.Query("month"); month != "" {
		query = query.Where("month = ?", month)
	}
	if err := query.Find(&checks).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, checks)
}

func (s *Server) GetCheck(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var check models.MenuCheck
	if err := s.db.First(&check, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Check not found"})
		return
	}
	c.JSON(http.StatusOK, check)
}

func (s *Server) GetCheckResults(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var results []models.CheckResult
	query := s.db.Where("menu_check_id = ?", id)
	if c.Query("failed") == "true" {
		query = query.Where("passed = ?", false)
	}
	if err := query.Find(&results).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, results)
}

func (s *Server) GetCheckDays(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var days []models.MenuDay
	if err := s.db.Where("menu_check_id = ?", id).Order("date").Find(&days).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, days)
}

// ReviewResult records a human verdict on one finding.
func (s *Server) ReviewResult(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req struct {
		ReviewStatus string `json:"review_status" binding:"required"`
		ReviewNotes  string `json:"review_notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var result models.CheckResult
	if err := s.db.First(&result, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Result not found"})
		return
	}

	result.Reviewed = true
	result.ReviewStatus = req.ReviewStatus
	result.ReviewNotes = req.ReviewNotes
	if err := s.db.Save(&result).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// ComplianceStats aggregates findings across all runs, optionally filtered
// by site and month.
func (s *Server) ComplianceStats(c *gin.Context) {
	var checks []models.MenuCheck
	query := s.db
	if siteID := c.Query("site_id"); siteID != "" {
		query = query.Where("site_id = ?", siteID)
	}
	if month := c.Query("month"); month != "" {
		query = query.Where("month = ?", month)
	}
	if err := query.Find(&checks).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	stats := gin.H{"total_checks": len(checks)}
	var critical, warnings, passed int
	for _, check := range checks {
		critical += check.CriticalFindings
		warnings += check.Warnings
		passed += check.PassedRules
	}
	stats["critical_findings"] = critical
	stats["warnings"] = warnings
	stats["passed_rules"] = passed

	total := critical + warnings + passed
	if total > 0 {
		stats["pass_rate"] = float64(passed) / float64(total)
	} else {
		stats["pass_rate"] = 0.0
	}
	c.JSON(http.StatusOK, stats)
}

// Helpers

func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

// yearFromMonth extracts the year from a "2026-02" style month label.
func yearFromMonth(month string) (int, error) {
	parts := strings.SplitN(month, "-", 2)
	year, err := strconv.Atoi(parts[0])
	if err != nil || year < 2000 || year > 2200 {
		return 0, fmt.Errorf("month must look like 2026-02")
	}
	return year, nil
}
