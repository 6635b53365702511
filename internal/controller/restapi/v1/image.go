package v1

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/xueshanchen/picbed/internal/controller/restapi/v1/response"
	"github.com/xueshanchen/picbed/internal/dto"
	"github.com/xueshanchen/picbed/internal/entity"
	"github.com/xueshanchen/picbed/pkg/types/errs"
)

// @Summary  	Upload image
// @Description Stores the original and a thumbnail, records metadata
// @Tags 		images
// @Accept 		mpfd
// @Produce 	json
// @Security 	BearerAuth
// @Param 		file 		formData file   true  "Image file(jpg, png, gif, webp)"
// @Param 		description formData string false "Description"
// @Param 		category 	formData string false "Category"
// @Success 	201 {object} response.Image
// @Failure 	400 {object} response.Error "Empty file or undecodable image"
// @Failure 	401 {object} response.Error "Missing or invalid token"
// @Failure 	409 {object} response.Error "Upload limit reached"
// @Failure 	413 {object} response.Error "File too large"
// @Failure 	415 {object} response.Error "Unsupported extension"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/api/images [post]
func (r *V1) uploadImage(ctx *fiber.Ctx) error {
	file, err := ctx.FormFile("file")
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "file is required")
	}

	if file.Size == 0 {
		return errorResponse(ctx, http.StatusBadRequest, "file is empty")
	}

	fileReader, err := file.Open()
	if err != nil {
		r.logger.Error(err, "restapi - v1 - uploadImage")

		return errorResponse(ctx, http.StatusInternalServerError, "problems with opening the file")
	}
	defer fileReader.Close()

	data, err := io.ReadAll(fileReader)
	if err != nil {
		r.logger.Error(err, "restapi - v1 - uploadImage")

		return errorResponse(ctx, http.StatusInternalServerError, "problems with reading the file")
	}

	upload := dto.UploadImage{
		Data:             data,
		OriginalFileName: file.Filename,
		ContentType:      file.Header.Get("Content-Type"),
		Description:      formValuePtr(ctx, "description"),
		Category:         formValuePtr(ctx, "category"),
	}

	image, url, err := r.img.Upload(ctx.UserContext(), currentUser(ctx), upload)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrFileTooLarge):
			return errorResponse(ctx, http.StatusRequestEntityTooLarge, "file is too large")
		case errors.Is(err, errs.ErrExtensionNotAllowed):
			return errorResponse(ctx, http.StatusUnsupportedMediaType,
				"unsupported file extension. Allowed: .jpg, .jpeg, .png, .gif, .webp")
		case errors.Is(err, errs.ErrInvalidImage):
			return errorResponse(ctx, http.StatusBadRequest, "file is not a decodable image")
		case errors.Is(err, errs.ErrUploadQuotaExceeded):
			return errorResponse(ctx, http.StatusConflict,
				"upload limit reached. Delete an existing image before uploading a new one")
		}
		r.logger.Error(err, "restapi - v1 - uploadImage")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	return ctx.Status(http.StatusCreated).JSON(imageResponse(image, url))
}

// @Summary 	Get image metadata
// @Tags 		images
// @Produce 	json
// @Param 		id path string true "Image ID(uuid)"
// @Success 	200 {object} response.Image
// @Failure 	400 {object} response.Error "Invalid ID"
// @Failure 	404 {object} response.Error "Image not found"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/api/images/{id} [get]
func (r *V1) getImage(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid id")
	}

	image, err := r.img.GetInfo(ctx.UserContext(), id)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return errorResponse(ctx, http.StatusNotFound, "image not found")
		}
		r.logger.Error(err, "restapi - v1 - getImage")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	return ctx.Status(http.StatusOK).JSON(imageResponse(image, ""))
}

// @Summary 	List images
// @Description Pages through stored images, newest first
// @Tags 		images
// @Produce 	json
// @Param 		page 	 query int    false "Page, starting at 1"
// @Param 		pageSize query int    false "Page size, 1-100, default 20"
// @Param 		category query string false "Category filter"
// @Success 	200 {object} response.ImageList
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/api/images [get]
func (r *V1) listImages(ctx *fiber.Ctx) error {
	q := dto.ListImages{
		Page:     ctx.QueryInt("page", 1),
		PageSize: ctx.QueryInt("pageSize", 0),
	}
	if category := ctx.Query("category"); category != "" {
		q.Category = &category
	}
	q.Normalize()

	images, err := r.img.List(ctx.UserContext(), q)
	if err != nil {
		r.logger.Error(err, "restapi - v1 - listImages")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	resp := response.ImageList{
		Page:     q.Page,
		PageSize: q.PageSize,
		Images:   make([]response.Image, 0, len(images)),
	}
	for _, image := range images {
		resp.Images = append(resp.Images, imageResponse(image, ""))
	}

	return ctx.Status(http.StatusOK).JSON(resp)
}

// @Summary 	Delete image
// @Description Deletes thumbnail, original and the metadata record
// @Tags 		images
// @Param		id 	path	 string true "Image ID(uuid)"
// @Success		204 "Deleted"
// @Failure 	400 {object} response.Error "Invalid ID"
// @Failure 	404 {object} response.Error "Image not found"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/api/images/{id} [delete]
func (r *V1) deleteImage(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid id")
	}

	err = r.img.Delete(ctx.UserContext(), id)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return errorResponse(ctx, http.StatusNotFound, "image not found")
		}
		r.logger.Error(err, "restapi - v1 - deleteImage")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	return ctx.SendStatus(http.StatusNoContent)
}

// @Summary 	Download original
// @Tags 		images
// @Produce 	image/jpeg,image/png,image/gif,image/webp
// @Param 		name path string true "Stored file name"
// @Success 	200 {file} 	binary
// @Failure 	404 {object} response.Error "Image not found"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/api/images/file/{name} [get]
func (r *V1) serveFile(ctx *fiber.Ctx) error {
	name := ctx.Params("name")

	image, err := r.img.GetInfoByFileName(ctx.UserContext(), name)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return errorResponse(ctx, http.StatusNotFound, "image not found")
		}
		r.logger.Error(err, "restapi - v1 - serveFile")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	body, err := r.img.Stream(ctx.UserContext(), image.FileName)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return errorResponse(ctx, http.StatusNotFound, "image not found")
		}
		r.logger.Error(err, "restapi - v1 - serveFile")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	ctx.Set(fiber.HeaderContentType, image.MimeType)

	return ctx.SendStream(body)
}

// @Summary 	Download thumbnail
// @Description Serves the stored thumbnail. Width and height query
// @Description parameters are accepted for compatibility; output size
// @Description is fixed at generation time
// @Tags 		images
// @Produce 	image/jpeg,image/png,image/gif
// @Param 		name   path  string true  "Stored file name"
// @Param 		width  query int 	false "Ignored"
// @Param 		height query int 	false "Ignored"
// @Success 	200 {file} 	binary
// @Failure 	404 {object} response.Error "Image not found"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/api/images/thumbnail/{name} [get]
func (r *V1) serveThumbnail(ctx *fiber.Ctx) error {
	name := ctx.Params("name")

	image, err := r.img.GetInfoByFileName(ctx.UserContext(), name)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return errorResponse(ctx, http.StatusNotFound, "image not found")
		}
		r.logger.Error(err, "restapi - v1 - serveThumbnail")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	body, err := r.img.StreamThumbnail(ctx.UserContext(), image.FileName)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return errorResponse(ctx, http.StatusNotFound, "thumbnail not found")
		}
		r.logger.Error(err, "restapi - v1 - serveThumbnail")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	ctx.Set(fiber.HeaderContentType, thumbnailContentType(image))

	return ctx.SendStream(body)
}

func imageResponse(image *entity.Image, url string) response.Image {
	if url == "" {
		url = "/api/images/file/" + image.FileName
	}

	return response.Image{
		ImageID:          image.ID.String(),
		FileName:         image.FileName,
		OriginalFileName: image.OriginalFileName,
		URL:              url,
		ThumbnailURL:     "/api/images/thumbnail/" + image.FileName,
		Size:             image.FileSize,
		Width:            image.Width,
		Height:           image.Height,
		ContentType:      image.MimeType,
		Description:      image.Description,
		Category:         image.Category,
		UploadTime:       image.UploadTime.Format(time.RFC3339),
	}
}

// webp thumbnails are stored as png
func thumbnailContentType(image *entity.Image) string {
	if image.MimeType == "image/webp" {
		return "image/png"
	}

	return image.MimeType
}

func formValuePtr(ctx *fiber.Ctx, key string) *string {
	if v := ctx.FormValue(key); v != "" {
		return &v
	}

	return nil
}
