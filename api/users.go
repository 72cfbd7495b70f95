package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/example/eshop/pkg/models"
	"github.com/example/eshop/pkg/repository"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 8

func (s *Server) listUsers(c *gin.Context) {
	users, err := s.deps.Users.Find(c.Request.Context(), fieldsParam(c))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respond(c, http.StatusOK, users)
}

func (s *Server) countUsers(c *gin.Context) {
	count, err := s.deps.Users.Count(c.Request.Context())
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"count": count})
}

type registerRequest struct {
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email" binding:"required" validate:"email"`
	Password  string `json:"password" binding:"required"`
	Phone     string `json:"phone"`
	Street    string `json:"street"`
	Apartment string `json:"apartment"`
	City      string `json:"city"`
	Country   string `json:"country"`
	Zip       string `json:"zip"`
	IsAdmin   bool   `json:"isAdmin"`
}

func (s *Server) registerUser(c *gin.Context) {
	var req registerRequest
	if !s.bindJSON(c, &req) {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user, err := s.deps.Users.Insert(c.Request.Context(), &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Phone:        req.Phone,
		Street:       req.Street,
		Apartment:    req.Apartment,
		City:         req.City,
		Country:      req.Country,
		Zip:          req.Zip,
		IsAdmin:      req.IsAdmin,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respond(c, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	*models.User
	AuthToken string `json:"authToken"`
}

func (s *Server) loginUser(c *gin.Context) {
	var req loginRequest
	if !s.bindJSON(c, &req) {
		return
	}

	user, err := s.deps.Users.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusBadRequest, "Email or Password is incorrect!")
			return
		}
		respondDomainError(c, err)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		respondError(c, http.StatusBadRequest, "Email or Password is incorrect!")
		return
	}

	token, err := s.deps.Tokens.Issue(user.ID.Hex(), user.IsAdmin)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to issue token")
		return
	}

	respond(c, http.StatusOK, loginResponse{
		User:      user,
		AuthToken: token,
	})
}

type updateUserRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Street    string `json:"street"`
	Apartment string `json:"apartment"`
	City      string `json:"city"`
	Country   string `json:"country"`
	Zip       string `json:"zip"`
	IsAdmin   bool   `json:"isAdmin"`
}

func (s *Server) updateUser(c *gin.Context) {
	userID, err := repository.ParseID(c.Query("userId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid user id")
		return
	}

	var req updateUserRequest
	if !s.bindJSON(c, &req) {
		return
	}

	user, err := s.deps.Users.Update(c.Request.Context(), userID, bson.M{
		"name":      req.Name,
		"email":     req.Email,
		"phone":     req.Phone,
		"street":    req.Street,
		"apartment": req.Apartment,
		"city":      req.City,
		"country":   req.Country,
		"zip":       req.Zip,
		"isAdmin":   req.IsAdmin,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respond(c, http.StatusOK, user)
}

func (s *Server) deleteUser(c *gin.Context) {
	userID, err := repository.ParseID(c.Query("userId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := s.deps.Users.Delete(c.Request.Context(), userID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"message": fmt.Sprintf("%s is successfully deleted!", user.Name),
	})
}
