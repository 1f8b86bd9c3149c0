package domain

import "fmt"

// TypeLimits holds per-field ceilings for one activity type. A zero ceiling
// means the field is not applicable to that type and is not checked.
type TypeLimits struct {
	StepsCeiling    int
	DurationCeiling int
	CaloriesCeiling int
}

// Limits is the table of plausibility ceilings keyed by activity type.
// Submissions whose type is absent from the table are rejected outright.
type Limits map[ActivityType]TypeLimits

// DefaultLimits returns the production ceiling table.
func DefaultLimits() Limits {
	return Limits{
		TypeWalking:           {StepsCeiling: 40000, DurationCeiling: 480, CaloriesCeiling: 1200},
		TypeRunning:           {StepsCeiling: 25000, DurationCeiling: 180, CaloriesCeiling: 2500},
		TypeCycling:           {DurationCeiling: 150, CaloriesCeiling: 2000},
		TypeYoga:              {DurationCeiling: 240, CaloriesCeiling: 800},
		TypeStructuredWorkout: {DurationCeiling: 300, CaloriesCeiling: 1500},
	}
}

// Rejection describes why a submission was refused. It satisfies error so
// callers can surface the reason directly.
type Rejection struct {
	Field  string
	Limit  int
	Reason string
}

func (r *Rejection) Error() string { return r.Reason }

// Validate classifies a reported activity against the ceiling table and the
// statistical-pattern heuristics. A nil result means the submission is
// accepted. The function performs no I/O.
func Validate(limits Limits, a Activity) *Rejection {
	tl, ok := limits[a.Type]
	if !ok {
		return &Rejection{Reason: "unknown activity type"}
	}

	if tl.StepsCeiling > 0 && a.Steps > tl.StepsCeiling {
		return &Rejection{
			Field:  "steps",
			Limit:  tl.StepsCeiling,
			Reason: fmt.Sprintf("steps %d exceeds limit %d for %s", a.Steps, tl.StepsCeiling, a.Type),
		}
	}
	if tl.DurationCeiling > 0 && a.DurationMin > tl.DurationCeiling {
		return &Rejection{
			Field:  "duration",
			Limit:  tl.DurationCeiling,
			Reason: fmt.Sprintf("duration %d min exceeds limit %d for %s", a.DurationMin, tl.DurationCeiling, a.Type),
		}
	}
	if tl.CaloriesCeiling > 0 && a.Calories > tl.CaloriesCeiling {
		return &Rejection{
			Field:  "calories",
			Limit:  tl.CaloriesCeiling,
			Reason: fmt.Sprintf("calories %d exceeds limit %d for %s", a.Calories, tl.CaloriesCeiling, a.Type),
		}
	}

	// Pattern heuristics. These are coarse plausibility checks, not proofs;
	// false positives are expected and acceptable.
	if a.Steps > 5000 && a.Steps%1000 == 0 {
		return &Rejection{
			Field:  "steps",
			Reason: fmt.Sprintf("suspiciously round step count: %d", a.Steps),
		}
	}
	if a.DurationMin > 60 && a.DurationMin%30 == 0 {
		return &Rejection{
			Field:  "duration",
			Reason: fmt.Sprintf("suspiciously round duration: %d min", a.DurationMin),
		}
	}
	if a.Calories > 200 && a.Calories%100 == 0 {
		return &Rejection{
			Field:  "calories",
			Reason: fmt.Sprintf("suspiciously round calorie count: %d", a.Calories),
		}
	}
	if a.DurationMin > 0 && a.Calories/a.DurationMin > 20 {
		return &Rejection{
			Field:  "calories",
			Reason: fmt.Sprintf("implausible energy rate: %d calories in %d min", a.Calories, a.DurationMin),
		}
	}
	if a.Steps > 0 && a.DurationMin > 0 && a.Steps/a.DurationMin > 200 {
		return &Rejection{
			Field:  "steps",
			Reason: fmt.Sprintf("implausible cadence: %d steps in %d min", a.Steps, a.DurationMin),
		}
	}

	return nil
}
