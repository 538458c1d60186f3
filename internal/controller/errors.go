package controller

import (
	"career_coach_backend/internal/util"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// respondError 把业务错误映射为 HTTP 状态码
func respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrInvalidArgument):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrAssessmentNotFound), errors.Is(err, util.ErrUserNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrAssessmentCompleted):
		util.Conflict(ctx, "Assessment already completed")
	case errors.Is(err, util.ErrSubmissionInProgress):
		util.Conflict(ctx, "Assessment submission already in progress")
	case errors.Is(err, util.ErrAssessmentNotCompleted):
		util.Conflict(ctx, "Assessment not completed yet")
	case errors.Is(err, util.ErrGenerationFailed):
		util.BadGateway(ctx, "AI generation failed, please try again")
	case errors.Is(err, util.ErrEmailRegistered):
		util.Conflict(ctx, "Email already registered")
	case errors.Is(err, util.ErrInvalidCredentials):
		util.Error(ctx, http.StatusUnauthorized, "Invalid email or password")
	default:
		util.LogInternalError(ctx, err)
	}
}
