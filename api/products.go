package api

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/example/eshop/pkg/models"
	"github.com/example/eshop/pkg/repository"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
)

// Accepted upload content types and their stored extensions.
var fileTypeMap = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpeg",
	"image/jpg":  "jpg",
}

const maxGalleryImages = 10

func (s *Server) listProducts(c *gin.Context) {
	fields := fieldsParam(c)
	productID := c.Query("productId")
	isFeatured := c.Query("isFeatured")

	filter := bson.M{}
	if productID != "" {
		id, err := repository.ParseID(productID)
		if err != nil {
			respondDomainError(c, err)
			return
		}
		filter["_id"] = id
	}
	if isFeatured != "" {
		featured, err := strconv.ParseBool(isFeatured)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid isFeatured value")
			return
		}
		filter["isFeatured"] = featured
	}

	products, err := s.deps.Products.Find(c.Request.Context(), filter, fields)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	// Single-id lookup returns one document or null, not a list.
	if productID != "" && isFeatured == "" {
		if len(products) == 0 {
			respond(c, http.StatusOK, nil)
			return
		}
		respond(c, http.StatusOK, products[0])
		return
	}
	respond(c, http.StatusOK, products)
}

func (s *Server) countProducts(c *gin.Context) {
	count, err := s.deps.Products.Count(c.Request.Context())
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"count": count})
}

func (s *Server) createProduct(c *gin.Context) {
	categoryID, err := repository.ParseID(c.PostForm("category"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid category id")
		return
	}
	if _, err := s.deps.Categories.FindByID(c.Request.Context(), categoryID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusBadRequest, "category does not exist")
			return
		}
		respondDomainError(c, err)
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "image is required")
		return
	}
	imageURL, err := s.saveUpload(c, file)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	price, _ := strconv.ParseFloat(c.PostForm("price"), 64)
	countInStock, _ := strconv.Atoi(c.PostForm("countInStock"))
	rating, _ := strconv.ParseFloat(c.PostForm("rating"), 64)
	numReviews, _ := strconv.Atoi(c.PostForm("numReviews"))
	isFeatured, _ := strconv.ParseBool(c.PostForm("isFeatured"))

	product := &models.Product{
		Name:            c.PostForm("name"),
		Description:     c.PostForm("description"),
		RichDescription: c.PostForm("richDescription"),
		Image:           imageURL,
		Brand:           c.PostForm("brand"),
		Price:           price,
		Category:        categoryID,
		CountInStock:    countInStock,
		Rating:          rating,
		NumReviews:      numReviews,
		IsFeatured:      isFeatured,
	}

	created, err := s.deps.Products.Insert(c.Request.Context(), product)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respond(c, http.StatusCreated, created)
}

func (s *Server) updateProduct(c *gin.Context) {
	productID, err := repository.ParseID(c.Query("productId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid product id")
		return
	}

	existing, err := s.deps.Products.FindByID(c.Request.Context(), productID)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	categoryID, err := repository.ParseID(c.PostForm("category"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid category id")
		return
	}
	if _, err := s.deps.Categories.FindByID(c.Request.Context(), categoryID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusBadRequest, "category does not exist")
			return
		}
		respondDomainError(c, err)
		return
	}

	imageURL := existing.Image
	if file, err := c.FormFile("image"); err == nil {
		imageURL, err = s.saveUpload(c, file)
		if err != nil {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	price, _ := strconv.ParseFloat(c.PostForm("price"), 64)
	countInStock, _ := strconv.Atoi(c.PostForm("countInStock"))
	rating, _ := strconv.ParseFloat(c.PostForm("rating"), 64)
	numReviews, _ := strconv.Atoi(c.PostForm("numReviews"))
	isFeatured, _ := strconv.ParseBool(c.PostForm("isFeatured"))

	update := bson.M{
		"name":            c.PostForm("name"),
		"description":     c.PostForm("description"),
		"richDescription": c.PostForm("richDescription"),
		"image":           imageURL,
		"brand":           c.PostForm("brand"),
		"price":           price,
		"category":        categoryID,
		"countInStock":    countInStock,
		"rating":          rating,
		"numReviews":      numReviews,
		"isFeatured":      isFeatured,
	}

	product, err := s.deps.Products.Update(c.Request.Context(), productID, update)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	s.deps.ProductCache.Invalidate(c.Request.Context(), productID)
	respond(c, http.StatusOK, product)
}

func (s *Server) updateProductGallery(c *gin.Context) {
	productID, err := repository.ParseID(c.Query("productId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid product id")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid multipart form")
		return
	}

	files := form.File["images"]
	if len(files) > maxGalleryImages {
		files = files[:maxGalleryImages]
	}

	urls := make([]string, 0, len(files))
	for _, file := range files {
		url, err := s.saveUpload(c, file)
		if err != nil {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		urls = append(urls, url)
	}

	product, err := s.deps.Products.Update(c.Request.Context(), productID, bson.M{"images": urls})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	s.deps.ProductCache.Invalidate(c.Request.Context(), productID)
	respond(c, http.StatusOK, product)
}

func (s *Server) deleteProduct(c *gin.Context) {
	productID, err := repository.ParseID(c.Query("productId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := s.deps.Products.Delete(c.Request.Context(), productID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	s.deps.ProductCache.Invalidate(c.Request.Context(), productID)
	respond(c, http.StatusOK, gin.H{
		"message": fmt.Sprintf("%s is successfully deleted!", product.Name),
	})
}

// saveUpload stores an accepted image under the upload dir and returns its
// public URL.
func (s *Server) saveUpload(c *gin.Context, file *multipart.FileHeader) (string, error) {
	ext, ok := fileTypeMap[file.Header.Get("Content-Type")]
	if !ok {
		return "", fmt.Errorf("invalid image type")
	}

	name := strings.ReplaceAll(file.Filename, " ", "-")
	name = strings.TrimSuffix(name, filepath.Ext(name))
	fileName := fmt.Sprintf("%s-%d.%s", name, time.Now().UnixMilli(), ext)

	if err := c.SaveUploadedFile(file, filepath.Join(s.config.Uploads.Dir, fileName)); err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}

	base := s.config.Uploads.BaseURL
	if base == "" {
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s/public/uploads", scheme, c.Request.Host)
	}
	return fmt.Sprintf("%s/%s", base, fileName), nil
}
