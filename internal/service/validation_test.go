package service

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/neolms-api/internal/models"
)

func validCourseRequest() models.CourseRequest {
	return models.CourseRequest{
		Title:            "Go in Production",
		Description:      "Shipping Go services end to end.",
		FileKey:          "cover.png",
		Price:            4900,
		Duration:         12,
		Level:            "Beginner",
		Category:         "Development",
		SmallDescription: "Hands-on Go services course",
		Slug:             "go-in-production",
		Status:           "Published",
	}
}

func TestValidatorAcceptsDisplayEnums(t *testing.T) {
	v := NewValidator()
	require.NoError(t, v.Struct(validCourseRequest()))
}

func TestValidatorRejectsUnknownEnums(t *testing.T) {
	v := NewValidator()
	req := validCourseRequest()
	req.Level = "Expert"
	req.Category = "Cooking"
	req.Status = "LIVE"

	err := v.Struct(req)
	require.Error(t, err)

	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	fields := map[string]string{}
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	assert.Equal(t, "course_level", fields["level"])
	assert.Equal(t, "course_category", fields["category"])
	assert.Equal(t, "course_status", fields["status"])
}
