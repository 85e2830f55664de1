package service

import "github.com/noah-isme/neolms-api/internal/models"

type outlineView int

const (
	// outlinePublic exposes titles and positions only.
	outlinePublic outlineView = iota
	// outlineLearner adds descriptions and the caller's progress.
	outlineLearner
	// outlineAdmin exposes every lesson field.
	outlineAdmin
)

// buildOutline groups flattened rows (ordered by chapter then lesson position)
// into chapters.
func buildOutline(rows []models.OutlineRow, view outlineView) []models.ChapterOutline {
	chapters := make([]models.ChapterOutline, 0)
	index := make(map[string]int)
	for _, row := range rows {
		i, ok := index[row.ChapterID]
		if !ok {
			chapters = append(chapters, models.ChapterOutline{
				ID:       row.ChapterID,
				Title:    row.ChapterTitle,
				Position: row.ChapterPosition,
				Lessons:  make([]models.LessonOutline, 0),
			})
			i = len(chapters) - 1
			index[row.ChapterID] = i
		}
		if row.LessonID == nil {
			continue
		}

		lesson := models.LessonOutline{ID: *row.LessonID, Title: deref(row.LessonTitle)}
		if row.LessonPosition != nil {
			lesson.Position = *row.LessonPosition
		}
		if view >= outlineLearner {
			lesson.Description = deref(row.LessonDescription)
		}
		if view == outlineLearner && row.ProgressID != nil {
			lesson.Progress = &models.LessonProgress{
				ID:        *row.ProgressID,
				LessonID:  lesson.ID,
				Completed: row.ProgressCompleted != nil && *row.ProgressCompleted,
			}
		}
		if view == outlineAdmin {
			lesson.ThumbnailKey = deref(row.LessonThumbnailKey)
			lesson.VideoKey = deref(row.LessonVideoKey)
		}
		chapters[i].Lessons = append(chapters[i].Lessons, lesson)
	}
	return chapters
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
