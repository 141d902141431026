package service

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/ladder-inspection-api/internal/models"
	appErrors "github.com/noah-isme/ladder-inspection-api/pkg/errors"
)

func newPagination(page, pageSize, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
}

// invalidArgument turns a rejected setter value into a 422 response error.
func invalidArgument(err error) error {
	wrapped := appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, appErrors.ErrInvalidArgument.Status, err.Error())
	var arg *models.InvalidArgumentError
	if errors.As(err, &arg) {
		wrapped.Details = []string{arg.Field}
	}
	return wrapped
}

// validationFailed reports the collected messages of a Validate pass.
func validationFailed(resource string, messages []string) error {
	return appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s is invalid", resource)), messages)
}

// requestInvalid converts validator errors on request payloads.
func requestInvalid(err error, message string) error {
	var details []string
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			details = append(details, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
		}
	}
	wrapped := appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	wrapped.Details = details
	return wrapped
}

func auditPayload(v interface{}) []byte {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
