package service

import (
	"errors"
	"fmt"
	"math"

	"github.com/Dan9191/outbreak-estimator/internal/models"
)

// Multipliers applied to reported cases to seed each scenario
const (
	ImpactMultiplier       = 10
	SevereImpactMultiplier = 50
)

const (
	doublingPeriodDays = 3
	maxTimelinePoints  = 1000
	severeCaseRate     = 0.15
	availableBedRate   = 0.35
	icuCaseRate        = 0.05
	ventilatorCaseRate = 0.02
)

// ErrInvalidInput is returned when a required numeric field is missing
var ErrInvalidInput = errors.New("invalid input")

// DaysElapsed converts timeToElapse to days. Unknown period types are read as days.
func DaysElapsed(periodType string, timeToElapse int) int {
	switch periodType {
	case models.PeriodWeeks:
		return scaleDays(timeToElapse, 7)
	case models.PeriodMonths:
		return scaleDays(timeToElapse, 30)
	default:
		return timeToElapse
	}
}

// scaleDays multiplies n by factor, saturating at the int range
func scaleDays(n, factor int) int {
	switch {
	case n > math.MaxInt/factor:
		return math.MaxInt
	case n < math.MinInt/factor:
		return math.MinInt
	}
	return n * factor
}

// Validate checks that every field the projection needs is present
func Validate(input *models.EstimationInput) error {
	switch {
	case input == nil:
		return missing("input")
	case input.Region == nil:
		return missing("region")
	case input.Region.AvgDailyIncomeInUSD == nil:
		return missing("region.avgDailyIncomeInUSD")
	case input.Region.AvgDailyIncomePopulation == nil:
		return missing("region.avgDailyIncomePopulation")
	case input.TimeToElapse == nil:
		return missing("timeToElapse")
	case input.ReportedCases == nil:
		return missing("reportedCases")
	case input.TotalHospitalBeds == nil:
		return missing("totalHospitalBeds")
	}
	return nil
}

func missing(field string) error {
	return fmt.Errorf("%w: %s is required", ErrInvalidInput, field)
}

// Estimate projects the baseline and severe scenarios for input.
// Both projections share the same normalized elapsed time.
func Estimate(input *models.EstimationInput) (*models.EstimationResult, error) {
	if err := Validate(input); err != nil {
		return nil, err
	}

	days := DaysElapsed(input.PeriodType, *input.TimeToElapse)

	impact, err := Project(input, ImpactMultiplier, days)
	if err != nil {
		return nil, err
	}
	severeImpact, err := Project(input, SevereImpactMultiplier, days)
	if err != nil {
		return nil, err
	}

	return &models.EstimationResult{
		Data:         *input,
		Impact:       impact,
		SevereImpact: severeImpact,
	}, nil
}

// Project derives one scenario from input. days is the elapsed time already
// normalized by DaysElapsed.
func Project(input *models.EstimationInput, multiplier, days int) (models.ScenarioEstimate, error) {
	if err := Validate(input); err != nil {
		return models.ScenarioEstimate{}, err
	}

	currentlyInfected := seed(*input.ReportedCases, multiplier)
	infections := infectionsAfter(currentlyInfected, days)
	severeCases := share(severeCaseRate, infections)

	// the explicit conversion rounds the product before subtracting, so the
	// result is the same whether or not the platform fuses multiply-add
	availableBeds := float64(availableBedRate * float64(*input.TotalHospitalBeds))

	region := input.Region
	dollars := float64(infections) * *region.AvgDailyIncomePopulation * *region.AvgDailyIncomeInUSD * float64(days)
	if math.IsInf(dollars, 0) || math.IsNaN(dollars) {
		return models.ScenarioEstimate{}, fmt.Errorf("%w: dollarsInFlight is out of range", ErrInvalidInput)
	}

	return models.ScenarioEstimate{
		CurrentlyInfected:                  currentlyInfected,
		InfectionsByRequestedTime:          infections,
		SevereCasesByRequestedTime:         severeCases,
		HospitalBedsByRequestedTime:        truncate(availableBeds - float64(severeCases)),
		CasesForICUByRequestedTime:         share(icuCaseRate, infections),
		CasesForVentilatorsByRequestedTime: share(ventilatorCaseRate, infections),
		DollarsInFlight:                    roundCents(dollars),
	}, nil
}

// Timeline returns the projected infections at every doubling step from day 0
// up to the normalized elapsed time, ending on the last day even when it falls
// between steps. Long periods are sampled at a multiple of the doubling period
// so that no more than maxTimelinePoints points are returned.
func Timeline(input *models.EstimationInput, multiplier int) ([]models.TimelinePoint, error) {
	if err := Validate(input); err != nil {
		return nil, err
	}

	days := DaysElapsed(input.PeriodType, *input.TimeToElapse)
	currentlyInfected := seed(*input.ReportedCases, multiplier)

	step := doublingPeriodDays
	steps := 0
	if days > 0 {
		steps = days / doublingPeriodDays
	}
	if steps >= maxTimelinePoints {
		step = doublingPeriodDays * (steps/(maxTimelinePoints-1) + 1)
	}

	points := make([]models.TimelinePoint, 0, min(steps, maxTimelinePoints)+2)
	for day := 0; day < days; day += step {
		points = append(points, models.TimelinePoint{Day: day, Infections: infectionsAfter(currentlyInfected, day)})
		if day > days-step {
			break
		}
	}
	points = append(points, models.TimelinePoint{Day: days, Infections: infectionsAfter(currentlyInfected, days)})

	return points, nil
}

// seed is the currently infected count for a multiplier, saturating at the int64 range
func seed(reportedCases, multiplier int) int64 {
	return truncate(float64(reportedCases) * float64(multiplier))
}

// infectionsAfter doubles currentlyInfected once per full doubling period in days
func infectionsAfter(currentlyInfected int64, days int) int64 {
	growthFactor := days / doublingPeriodDays
	return truncate(math.Ldexp(float64(currentlyInfected), growthFactor))
}

func share(rate float64, n int64) int64 {
	return truncate(rate * float64(n))
}

// truncate drops the fractional part, saturating at the int64 range
func truncate(v float64) int64 {
	switch {
	case v >= math.MaxInt64:
		return math.MaxInt64
	case v <= math.MinInt64:
		return math.MinInt64
	}
	return int64(math.Trunc(v))
}

// roundCents rounds to two decimal places, halves away from zero
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
