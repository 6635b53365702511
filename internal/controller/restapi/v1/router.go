package v1

import (
	"github.com/gofiber/fiber/v2"
	"github.com/xueshanchen/picbed/internal/usecase"
	"github.com/xueshanchen/picbed/pkg/logger"
)

func NewRoutes(apiGroup fiber.Router, img usecase.ImageUseCase, auth usecase.AuthUseCase, l logger.Interface) {
	r := &V1{img: img, auth: auth, logger: l}

	{
		// Auth
		authGroup := apiGroup.Group("/auth")
		authGroup.Post("/login", r.login)
		authGroup.Post("/register", r.register)
		authGroup.Get("/validate", r.authRequired, r.validateToken)
		authGroup.Delete("/users/:id", r.authRequired, r.deleteUser)

		// Images
		imagesGroup := apiGroup.Group("/images")
		imagesGroup.Post("/", r.authRequired, r.uploadImage)
		imagesGroup.Get("/", r.listImages)
		imagesGroup.Get("/file/:name", r.serveFile)
		imagesGroup.Get("/thumbnail/:name", r.serveThumbnail)
		imagesGroup.Get("/:id", r.getImage)
		imagesGroup.Delete("/:id", r.deleteImage)
	}
}
