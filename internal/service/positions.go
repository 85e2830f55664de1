package service

import (
	"errors"

	"github.com/noah-isme/neolms-api/internal/models"
	"github.com/noah-isme/neolms-api/internal/repository"
	appErrors "github.com/noah-isme/neolms-api/pkg/errors"
	"github.com/noah-isme/neolms-api/pkg/ordering"
)

// positionMessages names the parent and child in position errors.
type positionMessages struct {
	parentNotFound string
	childNotFound  string
	emptyOrder     string
	failure        string
}

var (
	chapterMessages = positionMessages{
		parentNotFound: "Course not found",
		childNotFound:  "Chapter not found in the specified course",
		emptyOrder:     "No chapters provided for reordering",
		failure:        "failed to update chapters",
	}
	lessonMessages = positionMessages{
		parentNotFound: "Chapter not found",
		childNotFound:  "Lesson not found in the specified chapter",
		emptyOrder:     "No lessons provided for reordering",
		failure:        "failed to update lessons",
	}
)

func positionError(err error, msgs positionMessages) error {
	switch {
	case errors.Is(err, repository.ErrParentNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, msgs.parentNotFound)
	case errors.Is(err, ordering.ErrTargetNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, msgs.childNotFound)
	case errors.Is(err, ordering.ErrEmptyOrder):
		return appErrors.Clone(appErrors.ErrBadRequest, msgs.emptyOrder)
	case errors.Is(err, ordering.ErrUnknownID):
		return appErrors.Wrap(err, appErrors.ErrBadRequest.Code, appErrors.ErrBadRequest.Status, msgs.childNotFound)
	case errors.Is(err, ordering.ErrDuplicateID), errors.Is(err, ordering.ErrInvalidPosition):
		return appErrors.Wrap(err, appErrors.ErrBadRequest.Code, appErrors.ErrBadRequest.Status, err.Error())
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, msgs.failure)
}

func toItems(updates []models.PositionUpdate) []ordering.Item {
	items := make([]ordering.Item, len(updates))
	for i, u := range updates {
		items[i] = ordering.Item{ID: u.ID, Position: u.Position}
	}
	return items
}
