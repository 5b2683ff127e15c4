// Package controllers handles HTTP request handling
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	authz "github.com/yigit/learnsphere/internal/app/auth"
	"github.com/yigit/learnsphere/internal/app/models/dto"
	"github.com/yigit/learnsphere/internal/middleware"
	"github.com/yigit/learnsphere/internal/pkg/helpers"
)

// requireActor returns the authenticated caller or answers 401
func requireActor(ctx *gin.Context) (authz.Actor, bool) {
	actor, ok := middleware.CurrentActor(ctx)
	if !ok {
		detail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewFailureResponse(detail))
		return authz.Actor{}, false
	}
	return actor, true
}

// parseIDParam parses an ID parameter from the request path, answering 400 when it is invalid
func parseIDParam(ctx *gin.Context, paramName string) (int64, bool) {
	id, err := helpers.ParseIDParam(ctx, paramName)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return 0, false
	}
	return id, true
}

func respondOK(ctx *gin.Context, data interface{}, message string) {
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(data, message))
}

func respondCreated(ctx *gin.Context, data interface{}, message string) {
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(data, message))
}
