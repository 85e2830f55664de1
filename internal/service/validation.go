package service

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/neolms-api/internal/models"
)

// NewValidator returns a validator that reports JSON field names and knows the
// course enum tags.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("course_level", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseCourseLevel(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("course_status", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseCourseStatus(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("course_category", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		for _, category := range models.CourseCategories {
			if category == value {
				return true
			}
		}
		return false
	})
	return v
}

func defaultValidator(v *validator.Validate) *validator.Validate {
	if v == nil {
		return NewValidator()
	}
	return v
}
