package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"menuaudit/internal/models"
)

// Dish catalog handlers

// ExtractDishes re-runs catalog extraction for an evaluated check.
func (s *Server) ExtractDishes(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	added, err := s.engine.CatalogCheck(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"dishes_added": added})
}

func (s *Server) ListDishes(c *gin.Context) {
	var dishes []models.DishCatalog
	query := s.db.Order("dish_name")
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if c.Query("approved") == "true" {
		query = query.Where("approved = ?", true)
	}
	if err := query.Find(&dishes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dishes)
}

func (s *Server) DishCategories(c *gin.Context) {
	categories := make([]gin.H, 0, len(models.DishCategories))
	for _, cat := range models.DishCategories {
		categories = append(categories, gin.H{
			"name":  cat,
			"label": models.DishCategoryLabels[cat],
		})
	}
	c.JSON(http.StatusOK, categories)
}

func (s *Server) DishStats(c *gin.Context) {
	var total, approved int
	if err := s.db.Model(&models.DishCatalog{}).Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := s.db.Model(&models.DishCatalog{}).Where("approved = ?", true).Count(&approved).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	byCategory := make(map[string]int)
	rows, err := s.db.Model(&models.DishCatalog{}).
		Select("category, count(*)").Group("category").Rows()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer rows.Close()
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		byCategory[category] = n
	}

	c.JSON(http.StatusOK, gin.H{
		"total_dishes":    total,
		"approved_dishes": approved,
		"by_category":     byCategory,
	})
}

func (s *Server) CreateDish(c *gin.Context) {
	var dish models.DishCatalog
	if err := c.ShouldBindJSON(&dish); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if dish.DishName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dish name is required"})
		return
	}
	if dish.Category == "" {
		dish.Category = "other"
	}

	dish.ID = 0
	if err := s.db.Create(&dish).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, dish)
}

// CreateDishesBulk adds a batch of dish names, skipping ones already
// cataloged.
func (s *Server) CreateDishesBulk(c *gin.Context) {
	var req struct {
		Names    []string `json:"names" binding:"required"`
		Category string   `json:"category"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Category == "" {
		req.Category = "other"
	}

	added := 0
	for _, name := range req.Names {
		if name == "" {
			continue
		}
		var existing models.DishCatalog
		if err := s.db.Where("dish_name = ?", name).First(&existing).Error; err == nil {
			continue
		}
		if err := s.db.Create(&models.DishCatalog{DishName: name, Category: req.Category}).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		added++
	}
	c.JSON(http.StatusCreated, gin.H{"dishes_added": added})
}

func (s *Server) UpdateDish(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var dish models.DishCatalog
	if err := s.db.First(&dish, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Dish not found"})
		return
	}

	var req struct {
		Category         *string `json:"category"`
		Approved         *bool   `json:"approved"`
		ComplianceRuleID *uint   `json:"compliance_rule_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Category != nil {
		dish.Category = *req.Category
	}
	if req.Approved != nil {
		dish.Approved = *req.Approved
	}
	if req.ComplianceRuleID != nil {
		dish.ComplianceRuleID = *req.ComplianceRuleID
	}
	if err := s.db.Save(&dish).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dish)
}

func (s *Server) DeleteDish(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := s.db.Delete(&models.DishCatalog{}, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Dish removed"})
}
