package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

// ContextCaller is the gin context key the auth middleware stores the
// authenticated model.Caller under.
const ContextCaller = "caller"

var errNoCaller = errors.New("no authenticated caller")

func SetCaller(c *gin.Context, caller model.Caller) {
	c.Set(ContextCaller, caller)
}

// Caller returns the authenticated caller. It aborts with 401 and returns
// false when the request was not authenticated.
func Caller(c *gin.Context) (model.Caller, bool) {
	if v, ok := c.Get(ContextCaller); ok {
		if caller, ok := v.(model.Caller); ok {
			return caller, true
		}
	}
	RespondError(c, apperrors.Unauthorized(errNoCaller))
	return model.Caller{}, false
}

// ParseID reads a uuid path parameter, answering 400 when malformed.
func ParseID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondError(c, apperrors.Validation(name, "invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

// BindJSON decodes and validates the request body into obj.
func BindJSON(c *gin.Context, obj interface{}) bool {
	return bind(c, c.ShouldBindJSON(obj))
}

// BindQuery decodes and validates query parameters into obj.
func BindQuery(c *gin.Context, obj interface{}) bool {
	return bind(c, c.ShouldBindQuery(obj))
}

func bind(c *gin.Context, err error) bool {
	if err == nil {
		return true
	}
	if fields, ok := validator.Describe(err); ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, NewValidationResponse(fields))
		return false
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, NewErrorResponse("malformed request"))
	return false
}

// Page reads page and page_size from the query string.
func Page(c *gin.Context) (model.Page, bool) {
	var page model.Page
	if !BindQuery(c, &page) {
		return model.Page{}, false
	}
	return page.Normalize(), true
}
