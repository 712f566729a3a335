package impl

import (
	"math/rand/v2"
	"testing"
	"time"

	domainerrors "lessonsync/internal/domain/errors"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanChunks_MonthAligned(t *testing.T) {
	chunks, err := PlanChunks(day(2024, time.January, 15), day(2024, time.March, 10))
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, "2024-01", chunks[0].Label)
	assert.Equal(t, day(2024, time.January, 15), chunks[0].Start)
	assert.Equal(t, day(2024, time.February, 1), chunks[0].End)

	assert.Equal(t, "2024-02", chunks[1].Label)
	assert.Equal(t, day(2024, time.February, 1), chunks[1].Start)
	assert.Equal(t, day(2024, time.March, 1), chunks[1].End)

	assert.Equal(t, "2024-03", chunks[2].Label)
	assert.Equal(t, day(2024, time.March, 1), chunks[2].Start)
	assert.Equal(t, day(2024, time.March, 11), chunks[2].End)
}

func TestPlanChunks_SingleDay(t *testing.T) {
	chunks, err := PlanChunks(at(2024, time.May, 5, 13), at(2024, time.May, 5, 9))
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	assert.Equal(t, day(2024, time.May, 5), chunks[0].Start)
	assert.Equal(t, day(2024, time.May, 6), chunks[0].End)
	assert.Equal(t, "2024-05", chunks[0].Label)
}

func TestPlanChunks_CrossesYear(t *testing.T) {
	chunks, err := PlanChunks(day(2023, time.December, 1), day(2024, time.January, 31))
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, "2023-12", chunks[0].Label)
	assert.Equal(t, "2024-01", chunks[1].Label)
	assert.Equal(t, day(2024, time.February, 1), chunks[1].End)
}

func TestPlanChunks_EndBeforeStart(t *testing.T) {
	_, err := PlanChunks(day(2024, time.March, 2), day(2024, time.March, 1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrValidationFailed))
}

func TestPlanChunks_ContiguousCoverage(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	base := day(2020, time.January, 1)

	for range 200 {
		start := base.AddDate(0, 0, rng.IntN(1500))
		end := start.AddDate(0, 0, rng.IntN(400))

		chunks, err := PlanChunks(start, end)
		require.NoError(t, err)
		require.NotEmpty(t, chunks)

		assert.Equal(t, start, chunks[0].Start)
		assert.Equal(t, end.AddDate(0, 0, 1), chunks[len(chunks)-1].End)

		seen := make(map[string]bool, len(chunks))
		for i, chunk := range chunks {
			assert.True(t, chunk.Start.Before(chunk.End), "chunk %s is empty", chunk.Label)
			assert.Equal(t, chunk.Start.Format("2006-01"), chunk.Label)
			assert.False(t, seen[chunk.Label], "duplicate label %s", chunk.Label)
			seen[chunk.Label] = true

			if i > 0 {
				assert.Equal(t, chunks[i-1].End, chunk.Start, "gap or overlap before %s", chunk.Label)
			}
		}
	}
}
