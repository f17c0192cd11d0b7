package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"menuaudit/internal/models"
)

// Rule management handlers

func (s *Server) ListRules(c *gin.Context) {
	var ruleSet []models.ComplianceRule
	query := s.db.Order("priority, name")
	if c.Query("all") != "true" {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Find(&ruleSet).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, ruleSet)
}

func (s *Server) CreateRule(c *gin.Context) {
	var rule models.ComplianceRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if rule.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rule name is required"})
		return
	}

	rule.ID = 0
	rule.IsActive = true
	if err := s.db.Create(&rule).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, rule)
}

func (s *Server) UpdateRule(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var rule models.ComplianceRule
	if err := s.db.First(&rule, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Rule not found"})
		return
	}

	var updates models.ComplianceRule
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates.ID = rule.ID
	updates.CreatedAt = rule.CreatedAt
	if err := s.db.Save(&updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, updates)
}

// DeactivateRule soft-deletes a rule. Historical results keep referencing
// it by name, so rows are never physically removed.
func (s *Server) DeactivateRule(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var rule models.ComplianceRule
	if err := s.db.First(&rule, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Rule not found"})
		return
	}

	rule.IsActive = false
	if err := s.db.Save(&rule).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rule deactivated"})
}
