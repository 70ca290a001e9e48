package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/model"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Field   string      `json:"field,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse is the data of a paged listing.
type ListResponse struct {
	Items    interface{} `json:"items"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

func NewListResponse(items interface{}, total int64, page model.Page) *Response {
	page = page.Normalize()
	return NewSuccessResponse(ListResponse{
		Items:    items,
		Total:    total,
		Page:     page.Number,
		PageSize: page.Size,
	})
}

// NewValidationResponse lists every failed field.
func NewValidationResponse(fields []validator.FieldError) *Response {
	resp := &Response{
		Status:  "error",
		Message: "validation failed",
		Data:    fields,
	}
	if len(fields) > 0 {
		resp.Field = fields[0].Field
	}
	return resp
}

// RespondError writes err with the status its AppError code maps to.
// Anything that is not an AppError, or is internal, is answered with a
// generic message.
func RespondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	appErr, ok := apperrors.As(err)
	if !ok || status == http.StatusInternalServerError {
		c.AbortWithStatusJSON(http.StatusInternalServerError, NewErrorResponse("internal server error"))
		return
	}

	resp := NewErrorResponse(appErr.Message)
	resp.Field = appErr.Field
	c.AbortWithStatusJSON(status, resp)
}
