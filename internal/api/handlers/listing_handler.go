// server/internal/api/handlers/listing_handler.go
package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"tilapia-hub-api-server/internal/ledger"
	"tilapia-hub-api-server/internal/market"
	"tilapia-hub-api-server/internal/s3"

	"github.com/gin-gonic/gin"
)

const maxPhotoBytes = 5 << 20

// PhotoUploader stores listing photos and returns their public URL.
type PhotoUploader interface {
	UploadListingPhoto(ctx context.Context, listingID string, file io.Reader, contentType string) (string, error)
}

type ListingHandler struct {
	Ledger *ledger.Ledger
	Photos PhotoUploader // nil when S3 is not configured
}

// ListActiveListings là marketplace công khai: ?location=Kisumu&q=john
func (h *ListingHandler) ListActiveListings(c *gin.Context) {
	location := c.Query("location")
	if location != "" && !market.KnownLocation(location) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Unknown location: %s", location)})
		return
	}

	views, err := collect(h.Ledger.ListActiveListings(c.Request.Context(), ledger.ListingFilter{
		LocationEquals: location,
		SearchText:     c.Query("q"),
	}))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *ListingHandler) GetListing(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	view, err := h.Ledger.GetListing(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ListMyListings trả về tất cả listing của farmer, kể cả listing đã tắt.
func (h *ListingHandler) ListMyListings(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	listings, err := collect(h.Ledger.ListMyListings(c.Request.Context(), actor))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listings)
}

func (h *ListingHandler) CreateListing(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req ledger.NewListing
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	listing, err := h.Ledger.CreateListing(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, listing)
}

func (h *ListingHandler) UpdateListing(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var patch ledger.ListingPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	listing, err := h.Ledger.UpdateListing(c.Request.Context(), actor, c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (h *ListingHandler) DeleteListing(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	if err := h.Ledger.DeleteListing(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadPhoto nhận multipart field "photo", đẩy lên S3 và gắn URL vào listing.
func (h *ListingHandler) UploadPhoto(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	if h.Photos == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Photo uploads are not configured"})
		return
	}
	listingID := c.Param("id")

	// Kiểm tra quyền trước khi upload
	if err := h.Ledger.CheckListingOwner(c.Request.Context(), actor, listingID); err != nil {
		respondError(c, err)
		return
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Photo file is required"})
		return
	}
	if fileHeader.Size > maxPhotoBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Photo must be 5MB or smaller"})
		return
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if !s3.AcceptsContentType(contentType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Photo must be a JPEG, PNG or WebP image"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open uploaded file"})
		return
	}
	defer file.Close()

	url, err := h.Photos.UploadListingPhoto(c.Request.Context(), listingID, file, contentType)
	if err != nil {
		respondError(c, err)
		return
	}

	listing, err := h.Ledger.UpdateListing(c.Request.Context(), actor, listingID, ledger.ListingPatch{PhotoURL: &url})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}
