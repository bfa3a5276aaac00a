package permissions

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dkovalov/taskhub/internal/models"
)

func TestSatisfies(t *testing.T) {
	levels := []models.AccessLevel{models.AccessViewer, models.AccessMember, models.AccessManager}

	for _, held := range levels {
		for _, required := range levels {
			expected := held.Rank() >= required.Rank()
			require.Equal(t, expected, Satisfies(held, required),
				"held=%s required=%s", held, required)
		}
	}

	require.True(t, Satisfies(models.AccessManager, models.AccessViewer))
	require.False(t, Satisfies(models.AccessViewer, models.AccessManager))
	require.True(t, Satisfies(models.AccessMember, models.AccessMember))
}

func TestAccessLevelRank(t *testing.T) {
	require.True(t, models.AccessViewer.Rank() < models.AccessMember.Rank())
	require.True(t, models.AccessMember.Rank() < models.AccessManager.Rank())
	require.False(t, models.AccessLevel("OWNER").Valid())
	require.True(t, models.AccessManager.Valid())
}
