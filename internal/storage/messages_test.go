package storage

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"campchat/backend/internal/models"
)

func TestHistoryPlanFillsWholeWindow(t *testing.T) {
	// Промах першої сторінки наповнює кеш повним вікном, а не лише
	// запитаною сторінкою — інакше наступні читання всередині вікна
	// обрізалися б до неї.
	useCache, fetchLimit, fill := historyPlan(20, 0)
	assert.True(t, useCache)
	assert.True(t, fill)
	assert.Equal(t, cacheWindow, fetchLimit)
}

func TestHistoryPlanServesInWindowPages(t *testing.T) {
	useCache, fetchLimit, fill := historyPlan(20, 40)
	assert.True(t, useCache)
	assert.False(t, fill)
	assert.Equal(t, 20, fetchLimit)
}

func TestHistoryPlanBypassesCacheBeyondWindow(t *testing.T) {
	useCache, fetchLimit, fill := historyPlan(50, 80)
	assert.False(t, useCache)
	assert.False(t, fill)
	assert.Equal(t, 50, fetchLimit)
}

func TestPageOfWithinAndBeyondBounds(t *testing.T) {
	messages := make([]models.Message, 30)
	for i := range messages {
		messages[i].ID = "msg-" + strconv.Itoa(i)
	}

	page := pageOf(messages, 10, 5)
	assert.Len(t, page, 10)
	assert.Equal(t, "msg-5", page[0].ID)

	tail := pageOf(messages, 10, 25)
	assert.Len(t, tail, 5)

	assert.Empty(t, pageOf(messages, 10, 30))
}

func TestClampPageBoundsLimit(t *testing.T) {
	limit, skip := clampPage(0, -3)
	assert.Equal(t, cacheWindow, limit)
	assert.Equal(t, 0, skip)

	limit, _ = clampPage(cacheWindow+50, 0)
	assert.Equal(t, cacheWindow, limit)
}
