package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/memcurve/internal/fsrs"
)

func TestRunScenarios(t *testing.T) {
	testCases := []struct {
		name   string
		grades []fsrs.Grade
		want   []Step
	}{
		{
			name:   "three easy reviews",
			grades: []fsrs.Grade{fsrs.Easy, fsrs.Easy, fsrs.Easy},
			want: []Step{
				{0, 15.69, 3.22, 16},
				{16, 150.28, 2.13, 150},
				{166, 1252.22, 1.0, 1252},
			},
		},
		{
			name:   "three good reviews",
			grades: []fsrs.Grade{fsrs.Good, fsrs.Good, fsrs.Good},
			want: []Step{
				{0, 3.17, 5.28, 3},
				{3, 10.73, 5.27, 11},
				{14, 34.57, 5.26, 35},
			},
		},
		{
			name:   "two hard reviews",
			grades: []fsrs.Grade{fsrs.Hard, fsrs.Hard},
			want: []Step{
				{0, 1.18, 6.48, 1},
				{1, 1.70, 7.04, 2},
			},
		},
		{
			name:   "two forgot reviews",
			grades: []fsrs.Grade{fsrs.Forgot, fsrs.Forgot},
			want: []Step{
				{0, 0.40, 7.19, 1},
				{1, 0.40, 8.08, 1},
			},
		},
	}

	p := fsrs.Default()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			steps, err := Run(p, tc.grades, DefaultRetention, PolicyFloor)
			require.NoError(t, err)
			require.Len(t, steps, len(tc.want))
			for i, want := range tc.want {
				assert.True(t, steps[i].Within(want, 0.01), "step %d: got %v, want %v", i, steps[i], want)
			}
		})
	}
}

func TestRunRoundPolicy(t *testing.T) {
	steps, err := Run(fsrs.Default(), []fsrs.Grade{fsrs.Forgot, fsrs.Forgot}, DefaultRetention, PolicyRound)
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, 0.0, steps[0].I)
	assert.Equal(t, 0.0, steps[1].T)
	assert.InDelta(t, 8.08, steps[1].D, 0.01)
}

func TestRunErrors(t *testing.T) {
	p := fsrs.Default()

	_, err := Run(p, nil, DefaultRetention, PolicyFloor)
	assert.ErrorIs(t, err, ErrNoGrades)

	_, err = Run(p, []fsrs.Grade{fsrs.Good}, 1, PolicyFloor)
	assert.ErrorIs(t, err, ErrRetention)

	_, err = Run(p, []fsrs.Grade{fsrs.Good}, DefaultRetention, Policy("ceil"))
	assert.ErrorIs(t, err, ErrUnknownPolicy)

	_, err = Run(p, []fsrs.Grade{fsrs.Good, fsrs.Grade(9)}, DefaultRetention, PolicyFloor)
	assert.ErrorIs(t, err, fsrs.ErrUnknownGrade)
}

func TestPolicyDays(t *testing.T) {
	assert.Equal(t, 1.0, PolicyFloor.Days(0.4))
	assert.Equal(t, 0.0, PolicyRound.Days(0.4))
	assert.Equal(t, 16.0, PolicyFloor.Days(15.5))
	assert.Equal(t, 16.0, PolicyRound.Days(15.69))

	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyFloor, p)
	p, err = ParsePolicy("ROUND")
	require.NoError(t, err)
	assert.Equal(t, PolicyRound, p)
}
