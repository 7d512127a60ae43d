package v1

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/raffle-hub/raffle-api/internal/api/handler/v1/response"
	"github.com/raffle-hub/raffle-api/internal/api/middleware"
	"github.com/raffle-hub/raffle-api/internal/domain"
	"github.com/raffle-hub/raffle-api/internal/service"
)

var errMissingCaller = errors.New("missing caller identity")

type UserFinder interface {
	GetUser(ctx context.Context, id string) (domain.User, error)
}

// getUserFromContext loads the account of the caller authenticated by VerifyJWT.
func getUserFromContext(ctx *gin.Context, uSvc UserFinder) (domain.User, *response.Err) {
	userID := ctx.GetString(middleware.ContextUserIDKey)
	if userID == "" {
		return domain.User{}, response.ErrUnauthorized(errMissingCaller)
	}

	user, err := uSvc.GetUser(ctx.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return domain.User{}, response.ErrUnauthorized(fmt.Errorf("user %v no longer exists", userID))
		}

		err = fmt.Errorf("getUserFromContext -> uSvc.GetUser -> %w", err)
		return domain.User{}, response.ErrInternalServerError(err)
	}

	return user, nil
}
