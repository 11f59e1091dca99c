package recall

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelForScore(t *testing.T) {
	cases := []struct {
		score int
		want  Level
	}{
		{100, LevelExcellent},
		{95, LevelExcellent},
		{90, LevelExcellent},
		{89, LevelGood},
		{75, LevelGood},
		{70, LevelGood},
		{69, LevelFair},
		{55, LevelFair},
		{50, LevelFair},
		{49, LevelNeedsWork},
		{10, LevelNeedsWork},
		{0, LevelNeedsWork},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, LevelForScore(tc.score), "score %d", tc.score)
	}
}

func TestNormalizeClampsAndRederivesLevel(t *testing.T) {
	f := RecallFeedback{Score: 120, Level: LevelNeedsWork}
	f.Normalize()
	assert.Equal(t, 100, f.Score)
	assert.Equal(t, LevelExcellent, f.Level)

	f = RecallFeedback{Score: -5, Level: LevelExcellent}
	f.Normalize()
	assert.Equal(t, 0, f.Score)
	assert.Equal(t, LevelNeedsWork, f.Level)

	f = RecallFeedback{Score: 82, Level: "bogus"}
	f.Normalize()
	assert.Equal(t, 82, f.Score)
	assert.Equal(t, LevelGood, f.Level)
}

func TestNewRecordIDShape(t *testing.T) {
	id := NewRecordID()

	parts := strings.SplitN(id, "-", 2)
	assert.Len(t, parts, 2)
	assert.Len(t, parts[1], 9)

	// Collisions within a run should be vanishingly rare.
	seen := map[string]bool{id: true}
	for i := 0; i < 100; i++ {
		next := NewRecordID()
		assert.False(t, seen[next], "duplicate id %s", next)
		seen[next] = true
	}
}
