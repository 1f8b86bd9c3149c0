package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsPlausibleSubmission(t *testing.T) {
	a := Activity{
		Type:        TypeWalking,
		Steps:       8745,
		DurationMin: 45,
		Calories:    310,
	}
	require.Nil(t, Validate(DefaultLimits(), a))
}

func TestValidateUnknownType(t *testing.T) {
	rej := Validate(DefaultLimits(), Activity{Type: ActivityType("swimming"), Steps: 100})
	require.NotNil(t, rej)
	require.Contains(t, rej.Reason, "unknown activity type")
}

func TestValidateCeilings(t *testing.T) {
	tests := []struct {
		name     string
		activity Activity
		field    string
		limit    int
	}{
		{
			name:     "walking steps over ceiling",
			activity: Activity{Type: TypeWalking, Steps: 40001, DurationMin: 400},
			field:    "steps",
			limit:    40000,
		},
		{
			name:     "walking duration over ceiling",
			activity: Activity{Type: TypeWalking, Steps: 12345, DurationMin: 481},
			field:    "duration",
			limit:    480,
		},
		{
			name:     "running calories over ceiling",
			activity: Activity{Type: TypeRunning, DurationMin: 175, Calories: 2501},
			field:    "calories",
			limit:    2500,
		},
		{
			name:     "cycling duration over ceiling",
			activity: Activity{Type: TypeCycling, DurationMin: 200, Calories: 950},
			field:    "duration",
			limit:    150,
		},
		{
			name:     "yoga duration over ceiling",
			activity: Activity{Type: TypeYoga, DurationMin: 241},
			field:    "duration",
			limit:    240,
		},
		{
			name:     "workout calories over ceiling",
			activity: Activity{Type: TypeStructuredWorkout, DurationMin: 95, Calories: 1501},
			field:    "calories",
			limit:    1500,
		},
	}

	limits := DefaultLimits()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rej := Validate(limits, tc.activity)
			require.NotNil(t, rej)
			require.Equal(t, tc.field, rej.Field)
			require.Equal(t, tc.limit, rej.Limit)
			require.Contains(t, rej.Reason, tc.field)
		})
	}
}

func TestValidateCeilingBoundaryIsInclusive(t *testing.T) {
	// Submissions at exactly the ceiling pass the ceiling check. Every default
	// ceiling is a round number that the pattern heuristics would flag on
	// their own, so each case sits one under the ceiling with nothing round.
	tests := []struct {
		name     string
		activity Activity
	}{
		{"walking at steps and duration ceilings", Activity{Type: TypeWalking, Steps: 39999, DurationMin: 479}},
		{"running at all three ceilings", Activity{Type: TypeRunning, Steps: 24999, DurationMin: 179, Calories: 2499}},
		{"cycling at duration and calorie ceilings", Activity{Type: TypeCycling, DurationMin: 149, Calories: 1999}},
		{"yoga at duration and calorie ceilings", Activity{Type: TypeYoga, DurationMin: 239, Calories: 799}},
		{"workout at duration and calorie ceilings", Activity{Type: TypeStructuredWorkout, DurationMin: 299, Calories: 1499}},
	}

	limits := DefaultLimits()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Nil(t, Validate(limits, tc.activity))
		})
	}
}

func TestValidateExactCeilingWithNonRoundLimit(t *testing.T) {
	// With configured thresholds the inclusive boundary is observable
	// directly: a count equal to a non-round ceiling is accepted.
	limits := Limits{
		TypeWalking: {StepsCeiling: 38750, DurationCeiling: 475},
	}
	require.Nil(t, Validate(limits, Activity{Type: TypeWalking, Steps: 38750, DurationMin: 475}))

	rej := Validate(limits, Activity{Type: TypeWalking, Steps: 38751, DurationMin: 475})
	require.NotNil(t, rej)
	require.Equal(t, "steps", rej.Field)
	require.Equal(t, 38750, rej.Limit)
}

func TestValidateRoundNumberHeuristics(t *testing.T) {
	limits := DefaultLimits()

	t.Run("round step count", func(t *testing.T) {
		rej := Validate(limits, Activity{Type: TypeWalking, Steps: 20000, DurationMin: 250})
		require.NotNil(t, rej)
		require.Equal(t, "steps", rej.Field)
		require.Contains(t, rej.Reason, "round")
	})

	t.Run("small round counts pass", func(t *testing.T) {
		// 4000 is round but under the 5000 floor.
		require.Nil(t, Validate(limits, Activity{Type: TypeWalking, Steps: 4000, DurationMin: 45}))
	})

	t.Run("round duration", func(t *testing.T) {
		rej := Validate(limits, Activity{Type: TypeYoga, DurationMin: 90})
		require.NotNil(t, rej)
		require.Equal(t, "duration", rej.Field)
	})

	t.Run("exactly an hour passes", func(t *testing.T) {
		require.Nil(t, Validate(limits, Activity{Type: TypeYoga, DurationMin: 60}))
	})

	t.Run("round calories", func(t *testing.T) {
		rej := Validate(limits, Activity{Type: TypeStructuredWorkout, DurationMin: 55, Calories: 400})
		require.NotNil(t, rej)
		require.Equal(t, "calories", rej.Field)
	})
}

func TestValidateRateHeuristics(t *testing.T) {
	limits := DefaultLimits()

	t.Run("implausible energy rate", func(t *testing.T) {
		rej := Validate(limits, Activity{Type: TypeRunning, DurationMin: 25, Calories: 525})
		require.NotNil(t, rej)
		require.Equal(t, "calories", rej.Field)
		require.Contains(t, rej.Reason, "energy rate")
	})

	t.Run("implausible cadence", func(t *testing.T) {
		rej := Validate(limits, Activity{Type: TypeRunning, Steps: 9875, DurationMin: 45, Calories: 310})
		require.NotNil(t, rej)
		require.Equal(t, "steps", rej.Field)
		require.Contains(t, rej.Reason, "cadence")
	})

	t.Run("fast but plausible run passes", func(t *testing.T) {
		require.Nil(t, Validate(limits, Activity{Type: TypeRunning, Steps: 8100, DurationMin: 45, Calories: 410}))
	})
}

func TestValidateCustomLimits(t *testing.T) {
	limits := Limits{
		TypeWalking: {StepsCeiling: 100},
	}
	rej := Validate(limits, Activity{Type: TypeWalking, Steps: 101})
	require.NotNil(t, rej)
	require.Equal(t, 100, rej.Limit)

	require.Nil(t, Validate(limits, Activity{Type: TypeWalking, Steps: 99}))
}

func TestRejectionIsAnError(t *testing.T) {
	var err error = &Rejection{Reason: "nope"}
	require.EqualError(t, err, "nope")
}
