package v1

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/xueshanchen/picbed/internal/controller/restapi/v1/response"
	"github.com/xueshanchen/picbed/internal/entity"
	"github.com/xueshanchen/picbed/pkg/types/errs"
)

type credentialsRequest struct {
	Username string  `json:"username"`
	Password string  `json:"password"`
	Email    *string `json:"email"`
}

// @Summary  	Login
// @Description Checks credentials and returns a bearer token
// @Tags 		auth
// @Accept 		json
// @Produce 	json
// @Param 		request body credentialsRequest true "Credentials"
// @Success 	200 {object} response.Auth
// @Failure 	400 {object} response.Error "Malformed body or invalid credentials"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/api/auth/login [post]
func (r *V1) login(ctx *fiber.Ctx) error {
	var req credentialsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	if req.Username == "" || req.Password == "" {
		return errorResponse(ctx, http.StatusBadRequest, "username and password are required")
	}

	token, user, err := r.auth.Login(ctx.UserContext(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, errs.ErrInvalidCredentials) {
			return errorResponse(ctx, http.StatusBadRequest, "invalid username or password")
		}
		r.logger.Error(err, "restapi - v1 - login")

		return internalError(ctx)
	}

	return ctx.Status(http.StatusOK).JSON(authResponse(token, user))
}

// @Summary  	Register
// @Description Creates an account and returns a bearer token
// @Tags 		auth
// @Accept 		json
// @Produce 	json
// @Param 		request body credentialsRequest true "Credentials"
// @Success 	201 {object} response.Auth
// @Failure 	400 {object} response.Error "Malformed body"
// @Failure 	409 {object} response.Error "Username or email taken"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/api/auth/register [post]
func (r *V1) register(ctx *fiber.Ctx) error {
	var req credentialsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	if req.Username == "" || req.Password == "" {
		return errorResponse(ctx, http.StatusBadRequest, "username and password are required")
	}

	token, user, err := r.auth.Register(ctx.UserContext(), req.Username, req.Password, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrUsernameTaken):
			return errorResponse(ctx, http.StatusConflict, "username is already taken")
		case errors.Is(err, errs.ErrEmailTaken):
			return errorResponse(ctx, http.StatusConflict, "email is already taken")
		}
		r.logger.Error(err, "restapi - v1 - register")

		return internalError(ctx)
	}

	return ctx.Status(http.StatusCreated).JSON(authResponse(token, user))
}

// @Summary  	Validate token
// @Description Confirms the bearer token is valid and returns its owner
// @Tags 		auth
// @Produce 	json
// @Security 	BearerAuth
// @Success 	200 {object} response.Validate
// @Failure 	401 {object} response.Error "Invalid or expired token"
// @Router 		/api/auth/validate [get]
func (r *V1) validateToken(ctx *fiber.Ctx) error {
	user := currentUser(ctx)

	return ctx.Status(http.StatusOK).JSON(response.Validate{
		Valid:    true,
		UserID:   user.ID.String(),
		Username: user.Username,
	})
}

// @Summary  	Delete user
// @Description Removes an account. Admin only
// @Tags 		auth
// @Security 	BearerAuth
// @Param		id 	path	 string true "User ID(uuid)"
// @Success		204 "Deleted"
// @Failure 	400 {object} response.Error "Invalid ID"
// @Failure 	403 {object} response.Error "Not allowed"
// @Failure 	404 {object} response.Error "User not found"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/api/auth/users/{id} [delete]
func (r *V1) deleteUser(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid id")
	}

	err = r.auth.DeleteUser(ctx.UserContext(), currentUser(ctx), id)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrNotAllowed):
			return errorResponse(ctx, http.StatusForbidden, "admin privileges required")
		case errors.Is(err, errs.ErrRecordNotFound):
			return errorResponse(ctx, http.StatusNotFound, "user not found")
		}
		r.logger.Error(err, "restapi - v1 - deleteUser")

		return internalError(ctx)
	}

	return ctx.SendStatus(http.StatusNoContent)
}

func authResponse(token string, user *entity.User) response.Auth {
	return response.Auth{
		Token:    token,
		UserID:   user.ID.String(),
		Username: user.Username,
		Email:    user.Email,
	}
}
