package service

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/neolms-api/internal/models"
	"github.com/noah-isme/neolms-api/internal/repository"
	appErrors "github.com/noah-isme/neolms-api/pkg/errors"
	"github.com/noah-isme/neolms-api/pkg/ordering"
)

// memoryPositions keeps sibling positions per parent using the same ordering
// rules as the SQL repositories.
type memoryPositions struct {
	parents  map[string][]ordering.Item
	seq      int
	failNext error
}

func newMemoryPositions(parents ...string) *memoryPositions {
	m := &memoryPositions{parents: map[string][]ordering.Item{}}
	for _, p := range parents {
		m.parents[p] = nil
	}
	return m
}

func (m *memoryPositions) append(parentID string) (ordering.Item, error) {
	siblings, ok := m.parents[parentID]
	if !ok {
		return ordering.Item{}, repository.ErrParentNotFound
	}
	var maxPos *int
	for _, s := range siblings {
		p := s.Position
		if maxPos == nil || p > *maxPos {
			maxPos = &p
		}
	}
	m.seq++
	item := ordering.Item{ID: fmt.Sprintf("00000000-0000-4000-8000-%012d", m.seq), Position: ordering.NextPosition(maxPos)}
	m.parents[parentID] = append(siblings, item)
	return item, nil
}

func (m *memoryPositions) remove(parentID, id string) error {
	siblings, ok := m.parents[parentID]
	if !ok {
		return repository.ErrParentNotFound
	}
	sorted := m.sorted(parentID)
	updates, err := ordering.Compact(sorted, id)
	if err != nil {
		return err
	}
	next := make([]ordering.Item, 0, len(siblings))
	for _, s := range sorted {
		if s.ID != id {
			next = append(next, s)
		}
	}
	for _, u := range updates {
		for i := range next {
			if next[i].ID == u.ID {
				next[i].Position = u.Position
			}
		}
	}
	m.parents[parentID] = next
	return nil
}

func (m *memoryPositions) reorder(parentID string, items []ordering.Item) error {
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	siblings, ok := m.parents[parentID]
	if !ok {
		return repository.ErrParentNotFound
	}
	ids := make([]string, len(siblings))
	for i, s := range siblings {
		ids[i] = s.ID
	}
	if err := ordering.ValidateReorder(items, ids); err != nil {
		return err
	}
	for _, it := range items {
		for i := range siblings {
			if siblings[i].ID == it.ID {
				siblings[i].Position = it.Position
			}
		}
	}
	return nil
}

func (m *memoryPositions) sorted(parentID string) []ordering.Item {
	out := append([]ordering.Item(nil), m.parents[parentID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

type memoryChapterRepo struct{ *memoryPositions }

func (r memoryChapterRepo) Create(ctx context.Context, chapter *models.Chapter) error {
	item, err := r.append(chapter.CourseID)
	if err != nil {
		return err
	}
	chapter.ID, chapter.Position = item.ID, item.Position
	return nil
}

func (r memoryChapterRepo) Delete(ctx context.Context, courseID, chapterID string) error {
	return r.remove(courseID, chapterID)
}

func (r memoryChapterRepo) Reorder(ctx context.Context, courseID string, items []ordering.Item) error {
	return r.reorder(courseID, items)
}

func TestChapterCreateDeleteKeepsPositionsContiguous(t *testing.T) {
	positions := newMemoryPositions(testCourseID)
	svc := NewChapterService(memoryChapterRepo{positions}, nil, nil)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 4; i++ {
		ch, err := svc.Create(ctx, models.CreateChapterRequest{Name: fmt.Sprintf("Chapter %d", i+1), CourseID: testCourseID})
		require.NoError(t, err)
		assert.Equal(t, i+1, ch.Position)
		ids = append(ids, ch.ID)
		assert.True(t, ordering.IsContiguous(positions.parents[testCourseID]))
	}

	require.NoError(t, svc.Delete(ctx, ids[1], models.DeleteChapterRequest{CourseID: testCourseID}))
	assert.True(t, ordering.IsContiguous(positions.parents[testCourseID]))
	sorted := positions.sorted(testCourseID)
	assert.Equal(t, []string{ids[0], ids[2], ids[3]}, []string{sorted[0].ID, sorted[1].ID, sorted[2].ID})

	ch, err := svc.Create(ctx, models.CreateChapterRequest{Name: "Appendix", CourseID: testCourseID})
	require.NoError(t, err)
	assert.Equal(t, 4, ch.Position)
}

func TestChapterDeleteUnknownLeavesSiblings(t *testing.T) {
	positions := newMemoryPositions(testCourseID)
	svc := NewChapterService(memoryChapterRepo{positions}, nil, nil)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, models.CreateChapterRequest{Name: "Chapter", CourseID: testCourseID})
		require.NoError(t, err)
	}
	before := positions.sorted(testCourseID)

	err := svc.Delete(ctx, "00000000-0000-4000-8000-999999999999", models.DeleteChapterRequest{CourseID: testCourseID})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Equal(t, "Chapter not found in the specified course", appErr.Message)
	assert.Equal(t, before, positions.sorted(testCourseID))
}

func TestChapterCreateMissingCourse(t *testing.T) {
	svc := NewChapterService(memoryChapterRepo{newMemoryPositions()}, nil, nil)

	_, err := svc.Create(context.Background(), models.CreateChapterRequest{Name: "Chapter", CourseID: testCourseID})
	require.Error(t, err)
	assert.Equal(t, "Course not found", appErrors.FromError(err).Message)
}

func TestChapterCreateValidation(t *testing.T) {
	svc := NewChapterService(memoryChapterRepo{newMemoryPositions(testCourseID)}, nil, nil)

	_, err := svc.Create(context.Background(), models.CreateChapterRequest{Name: "  a ", CourseID: testCourseID})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Contains(t, appErr.Fields, "name")
}

func TestChapterReorderAppliesPermutation(t *testing.T) {
	positions := newMemoryPositions(testCourseID)
	svc := NewChapterService(memoryChapterRepo{positions}, nil, nil)
	ctx := context.Background()
	var ids []string
	for i := 0; i < 3; i++ {
		ch, err := svc.Create(ctx, models.CreateChapterRequest{Name: "Chapter", CourseID: testCourseID})
		require.NoError(t, err)
		ids = append(ids, ch.ID)
	}

	err := svc.Reorder(ctx, models.ReorderChaptersRequest{CourseID: testCourseID, Chapters: []models.PositionUpdate{
		{ID: ids[2], Position: 1}, {ID: ids[0], Position: 2}, {ID: ids[1], Position: 3},
	}})
	require.NoError(t, err)
	sorted := positions.sorted(testCourseID)
	assert.Equal(t, []string{ids[2], ids[0], ids[1]}, []string{sorted[0].ID, sorted[1].ID, sorted[2].ID})
}

func TestChapterReorderRejectsEmptyAndForeign(t *testing.T) {
	positions := newMemoryPositions(testCourseID)
	svc := NewChapterService(memoryChapterRepo{positions}, nil, nil)
	ctx := context.Background()

	err := svc.Reorder(ctx, models.ReorderChaptersRequest{CourseID: testCourseID})
	require.Error(t, err)
	assert.Equal(t, "No chapters provided for reordering", appErrors.FromError(err).Message)

	err = svc.Reorder(ctx, models.ReorderChaptersRequest{CourseID: testCourseID, Chapters: []models.PositionUpdate{{ID: "00000000-0000-4000-8000-999999999999", Position: 1}}})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
}

func TestChapterReorderTrustsGapsButRejectsNonPositive(t *testing.T) {
	positions := newMemoryPositions(testCourseID)
	svc := NewChapterService(memoryChapterRepo{positions}, nil, nil)
	ctx := context.Background()
	var ids []string
	for i := 0; i < 2; i++ {
		ch, err := svc.Create(ctx, models.CreateChapterRequest{Name: "Chapter", CourseID: testCourseID})
		require.NoError(t, err)
		ids = append(ids, ch.ID)
	}

	err := svc.Reorder(ctx, models.ReorderChaptersRequest{CourseID: testCourseID, Chapters: []models.PositionUpdate{
		{ID: ids[0], Position: 0}, {ID: ids[1], Position: 1},
	}})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)

	require.NoError(t, svc.Reorder(ctx, models.ReorderChaptersRequest{CourseID: testCourseID, Chapters: []models.PositionUpdate{
		{ID: ids[0], Position: 9}, {ID: ids[1], Position: 4},
	}}))
	sorted := positions.sorted(testCourseID)
	assert.Equal(t, []string{ids[1], ids[0]}, []string{sorted[0].ID, sorted[1].ID})
	assert.Equal(t, []int{4, 9}, []int{sorted[0].Position, sorted[1].Position})
}
