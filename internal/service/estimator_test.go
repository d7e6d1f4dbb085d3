package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/Dan9191/outbreak-estimator/internal/models"
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

// sampleInput is the reference scenario: 10 cases over 30 days in a region with 5000 beds
func sampleInput() *models.EstimationInput {
	return &models.EstimationInput{
		Region: &models.Region{
			Name:                     "Africa",
			AvgAge:                   floatPtr(19.7),
			AvgDailyIncomeInUSD:      floatPtr(1.5),
			AvgDailyIncomePopulation: floatPtr(0.6),
		},
		PeriodType:        models.PeriodDays,
		TimeToElapse:      intPtr(30),
		ReportedCases:     intPtr(10),
		Population:        intPtr(66622705),
		TotalHospitalBeds: intPtr(5000),
	}
}

func TestDaysElapsed(t *testing.T) {
	tests := []struct {
		periodType string
		n          int
		want       int
	}{
		{"days", 30, 30},
		{"weeks", 4, 28},
		{"months", 2, 60},
		{"years", 5, 5},
		{"", 12, 12},
		{"Weeks", 3, 3},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%d", tt.periodType, tt.n), func(t *testing.T) {
			if got := DaysElapsed(tt.periodType, tt.n); got != tt.want {
				t.Errorf("DaysElapsed(%q, %d) = %d, want %d", tt.periodType, tt.n, got, tt.want)
			}
		})
	}
}

func TestDaysElapsed_Monotonic(t *testing.T) {
	for _, p := range []string{"days", "weeks", "months"} {
		prev := DaysElapsed(p, 0)
		for n := 1; n <= 100; n++ {
			got := DaysElapsed(p, n)
			if got < prev {
				t.Fatalf("DaysElapsed(%q, %d) = %d is below DaysElapsed(%q, %d) = %d", p, n, got, p, n-1, prev)
			}
			prev = got
		}
	}
	for n := 0; n <= 100; n++ {
		if DaysElapsed("weeks", n) != 7*DaysElapsed("days", n) {
			t.Fatalf("weeks(%d) != 7 * days(%d)", n, n)
		}
	}
}

func TestEstimate_ReferenceScenario(t *testing.T) {
	result, err := Estimate(sampleInput())
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}

	wantImpact := models.ScenarioEstimate{
		CurrentlyInfected:                  100,
		InfectionsByRequestedTime:          102400,
		SevereCasesByRequestedTime:         15360,
		HospitalBedsByRequestedTime:        -13610,
		CasesForICUByRequestedTime:         5120,
		CasesForVentilatorsByRequestedTime: 2048,
		DollarsInFlight:                    2764800,
	}
	if result.Impact != wantImpact {
		t.Errorf("impact:\n got %+v\nwant %+v", result.Impact, wantImpact)
	}

	wantSevere := models.ScenarioEstimate{
		CurrentlyInfected:                  500,
		InfectionsByRequestedTime:          512000,
		SevereCasesByRequestedTime:         76800,
		HospitalBedsByRequestedTime:        -75050,
		CasesForICUByRequestedTime:         25600,
		CasesForVentilatorsByRequestedTime: 10240,
		DollarsInFlight:                    13824000,
	}
	if result.SevereImpact != wantSevere {
		t.Errorf("severeImpact:\n got %+v\nwant %+v", result.SevereImpact, wantSevere)
	}
}

func TestEstimate_EchoesInput(t *testing.T) {
	input := sampleInput()
	before, _ := json.Marshal(input)

	result, err := Estimate(input)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}

	after, _ := json.Marshal(input)
	if string(before) != string(after) {
		t.Errorf("input was mutated:\nbefore %s\nafter  %s", before, after)
	}
	echoed, _ := json.Marshal(result.Data)
	if string(echoed) != string(before) {
		t.Errorf("data not echoed unchanged:\n got %s\nwant %s", echoed, before)
	}
}

func TestEstimate_Idempotent(t *testing.T) {
	first, err := Estimate(sampleInput())
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	second, err := Estimate(sampleInput())
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Errorf("outputs differ:\n%s\n%s", a, b)
	}
}

func TestEstimate_PeriodTypes(t *testing.T) {
	tests := []struct {
		periodType   string
		timeToElapse int
		infections   int64
	}{
		{"days", 30, 102400},
		{"weeks", 2, 1600},
		{"months", 1, 102400},
		{"years", 30, 102400},
	}

	for _, tt := range tests {
		t.Run(tt.periodType, func(t *testing.T) {
			input := sampleInput()
			input.PeriodType = tt.periodType
			input.TimeToElapse = intPtr(tt.timeToElapse)

			result, err := Estimate(input)
			if err != nil {
				t.Fatalf("Estimate: %v", err)
			}
			if result.Impact.InfectionsByRequestedTime != tt.infections {
				t.Errorf("infections: got %d, want %d", result.Impact.InfectionsByRequestedTime, tt.infections)
			}
		})
	}
}

func TestEstimate_UnknownPeriodMatchesDays(t *testing.T) {
	days := sampleInput()
	years := sampleInput()
	years.PeriodType = "years"

	a, err := Estimate(days)
	if err != nil {
		t.Fatalf("Estimate(days): %v", err)
	}
	b, err := Estimate(years)
	if err != nil {
		t.Fatalf("Estimate(years): %v", err)
	}
	if a.Impact != b.Impact || a.SevereImpact != b.SevereImpact {
		t.Errorf("years should project like days:\n%+v\n%+v", a.Impact, b.Impact)
	}
}

func TestEstimate_Properties(t *testing.T) {
	for _, cases := range []int{0, 1, 7, 123, 4000} {
		for _, period := range []string{"days", "weeks", "months"} {
			for n := 1; n <= 12; n++ {
				input := sampleInput()
				input.ReportedCases = intPtr(cases)
				input.PeriodType = period
				input.TimeToElapse = intPtr(n)

				result, err := Estimate(input)
				if err != nil {
					t.Fatalf("Estimate: %v", err)
				}
				if result.SevereImpact.CurrentlyInfected != 5*result.Impact.CurrentlyInfected {
					t.Errorf("cases=%d %s=%d: severe currentlyInfected %d is not 5x %d",
						cases, period, n, result.SevereImpact.CurrentlyInfected, result.Impact.CurrentlyInfected)
				}
				for _, s := range []models.ScenarioEstimate{result.Impact, result.SevereImpact} {
					if s.InfectionsByRequestedTime < s.CurrentlyInfected {
						t.Errorf("cases=%d %s=%d: infections %d below currently infected %d",
							cases, period, n, s.InfectionsByRequestedTime, s.CurrentlyInfected)
					}
				}
			}
		}
	}
}

func TestProject_Truncation(t *testing.T) {
	input := sampleInput()
	input.ReportedCases = intPtr(1)
	input.TotalHospitalBeds = intPtr(10)

	got, err := Project(input, ImpactMultiplier, 0)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}

	want := models.ScenarioEstimate{
		CurrentlyInfected:                  10,
		InfectionsByRequestedTime:          10,
		SevereCasesByRequestedTime:         1, // 1.5
		HospitalBedsByRequestedTime:        2, // 3.5 - 1
		CasesForICUByRequestedTime:         0, // 0.5
		CasesForVentilatorsByRequestedTime: 0, // 0.2
		DollarsInFlight:                    0,
	}
	if got != want {
		t.Errorf("got %+v\nwant %+v", got, want)
	}
}

func TestProject_NegativeBedsNotClamped(t *testing.T) {
	input := sampleInput()
	input.TotalHospitalBeds = intPtr(0)

	got, err := Project(input, SevereImpactMultiplier, 30)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if got.HospitalBedsByRequestedTime != -got.SevereCasesByRequestedTime {
		t.Errorf("hospital beds: got %d, want %d", got.HospitalBedsByRequestedTime, -got.SevereCasesByRequestedTime)
	}
}

func TestProject_DollarsRoundedToCents(t *testing.T) {
	input := sampleInput()
	input.ReportedCases = intPtr(1)
	input.Region.AvgDailyIncomeInUSD = floatPtr(1.23456)
	input.Region.AvgDailyIncomePopulation = floatPtr(1)

	got, err := Project(input, ImpactMultiplier, 1)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	// 10 infections * 1.23456 USD * 1 day
	if got.DollarsInFlight != 12.35 {
		t.Errorf("dollars in flight: got %v, want 12.35", got.DollarsInFlight)
	}
}

func TestEstimate_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.EstimationInput)
	}{
		{"reportedCases", func(in *models.EstimationInput) { in.ReportedCases = nil }},
		{"timeToElapse", func(in *models.EstimationInput) { in.TimeToElapse = nil }},
		{"totalHospitalBeds", func(in *models.EstimationInput) { in.TotalHospitalBeds = nil }},
		{"region", func(in *models.EstimationInput) { in.Region = nil }},
		{"avgDailyIncomeInUSD", func(in *models.EstimationInput) { in.Region.AvgDailyIncomeInUSD = nil }},
		{"avgDailyIncomePopulation", func(in *models.EstimationInput) { in.Region.AvgDailyIncomePopulation = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := sampleInput()
			tt.mutate(input)

			result, err := Estimate(input)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if result != nil {
				t.Errorf("expected no partial result, got %+v", result)
			}
		})
	}
}

func TestEstimate_NilInput(t *testing.T) {
	if _, err := Estimate(nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestEstimate_OptionalFieldsMayBeAbsent(t *testing.T) {
	input := sampleInput()
	input.Population = nil
	input.Region.AvgAge = nil
	input.PeriodType = ""

	if _, err := Estimate(input); err != nil {
		t.Fatalf("Estimate: %v", err)
	}
}

func TestProject_MissingField(t *testing.T) {
	input := sampleInput()
	input.ReportedCases = nil

	if _, err := Project(input, ImpactMultiplier, 30); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestTimeline(t *testing.T) {
	input := sampleInput()
	input.ReportedCases = intPtr(1)
	input.TimeToElapse = intPtr(10)

	points, err := Timeline(input, ImpactMultiplier)
	if err != nil {
		t.Fatalf("Timeline: %v", err)
	}

	want := []models.TimelinePoint{
		{Day: 0, Infections: 10},
		{Day: 3, Infections: 20},
		{Day: 6, Infections: 40},
		{Day: 9, Infections: 80},
		{Day: 10, Infections: 80},
	}
	if len(points) != len(want) {
		t.Fatalf("expected %d points, got %d: %+v", len(want), len(points), points)
	}
	for i := range want {
		if points[i] != want[i] {
			t.Errorf("point %d: got %+v, want %+v", i, points[i], want[i])
		}
	}
}

func TestTimeline_EndsAtInfectionsByRequestedTime(t *testing.T) {
	input := sampleInput()

	points, err := Timeline(input, SevereImpactMultiplier)
	if err != nil {
		t.Fatalf("Timeline: %v", err)
	}
	result, err := Estimate(input)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}

	last := points[len(points)-1]
	if last.Day != 30 || last.Infections != result.SevereImpact.InfectionsByRequestedTime {
		t.Errorf("last point: got %+v, want day 30 with %d", last, result.SevereImpact.InfectionsByRequestedTime)
	}
}

func TestDaysElapsed_Saturates(t *testing.T) {
	tests := []struct {
		period string
		n      int
		want   int
	}{
		{models.PeriodWeeks, math.MaxInt, math.MaxInt},
		{models.PeriodMonths, math.MaxInt / 2, math.MaxInt},
		{models.PeriodMonths, math.MinInt / 2, math.MinInt},
		{models.PeriodWeeks, -2, -14},
	}

	for _, tt := range tests {
		if got := DaysElapsed(tt.period, tt.n); got != tt.want {
			t.Errorf("DaysElapsed(%q, %d): got %d, want %d", tt.period, tt.n, got, tt.want)
		}
	}
}

func TestEstimate_HugeReportedCasesSaturate(t *testing.T) {
	input := sampleInput()
	input.ReportedCases = intPtr(1 << 62)
	input.TimeToElapse = intPtr(0)

	result, err := Estimate(input)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	for name, s := range map[string]models.ScenarioEstimate{"impact": result.Impact, "severeImpact": result.SevereImpact} {
		if s.CurrentlyInfected != math.MaxInt64 {
			t.Errorf("%s currentlyInfected: got %d, want %d", name, s.CurrentlyInfected, int64(math.MaxInt64))
		}
		if s.HospitalBedsByRequestedTime >= 0 {
			t.Errorf("%s hospital beds: got %d, want a deficit", name, s.HospitalBedsByRequestedTime)
		}
	}
}

func TestEstimate_NonFiniteDollarsRejected(t *testing.T) {
	input := sampleInput()
	input.Region.AvgDailyIncomeInUSD = floatPtr(1e308)

	if _, err := Estimate(input); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestTimeline_LongPeriodIsSampled(t *testing.T) {
	for _, n := range []int{3000, 1 << 40, math.MaxInt} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			input := sampleInput()
			input.TimeToElapse = intPtr(n)

			points, err := Timeline(input, ImpactMultiplier)
			if err != nil {
				t.Fatalf("Timeline: %v", err)
			}
			if len(points) > maxTimelinePoints {
				t.Fatalf("got %d points, want at most %d", len(points), maxTimelinePoints)
			}
			if points[0].Day != 0 || points[len(points)-1].Day != n {
				t.Errorf("timeline spans day %d to %d, want 0 to %d", points[0].Day, points[len(points)-1].Day, n)
			}
			for i := 1; i < len(points); i++ {
				if points[i].Day <= points[i-1].Day {
					t.Fatalf("days not increasing at %d: %d then %d", i, points[i-1].Day, points[i].Day)
				}
				if points[i].Day%doublingPeriodDays != 0 && i != len(points)-1 {
					t.Errorf("point %d on day %d is off the doubling steps", i, points[i].Day)
				}
			}
		})
	}
}
