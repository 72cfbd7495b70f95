package api

import (
	"fmt"
	"net/http"

	"github.com/example/eshop/pkg/models"
	"github.com/example/eshop/pkg/repository"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
)

func (s *Server) listCategories(c *gin.Context) {
	fields := fieldsParam(c)
	categoryID := c.Query("categoryId")

	filter := bson.M{}
	if categoryID != "" {
		id, err := repository.ParseID(categoryID)
		if err != nil {
			respondDomainError(c, err)
			return
		}
		filter["_id"] = id
	}

	categories, err := s.deps.Categories.Find(c.Request.Context(), filter, fields)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	if categoryID != "" {
		if len(categories) == 0 {
			respond(c, http.StatusOK, nil)
			return
		}
		respond(c, http.StatusOK, categories[0])
		return
	}
	respond(c, http.StatusOK, categories)
}

type categoryRequest struct {
	Name  string `json:"name" binding:"required"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

func (s *Server) createCategory(c *gin.Context) {
	var req categoryRequest
	if !s.bindJSON(c, &req) {
		return
	}

	category, err := s.deps.Categories.Insert(c.Request.Context(), &models.Category{
		Name:  req.Name,
		Icon:  req.Icon,
		Color: req.Color,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respond(c, http.StatusCreated, category)
}

func (s *Server) updateCategory(c *gin.Context) {
	categoryID, err := repository.ParseID(c.Query("categoryId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid category id")
		return
	}

	var req categoryRequest
	if !s.bindJSON(c, &req) {
		return
	}

	category, err := s.deps.Categories.Update(c.Request.Context(), categoryID, bson.M{
		"name":  req.Name,
		"icon":  req.Icon,
		"color": req.Color,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respond(c, http.StatusOK, category)
}

func (s *Server) deleteCategory(c *gin.Context) {
	categoryID, err := repository.ParseID(c.Query("categoryId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid category id")
		return
	}

	category, err := s.deps.Categories.Delete(c.Request.Context(), categoryID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"message": fmt.Sprintf("%s is successfully deleted!", category.Name),
	})
}
