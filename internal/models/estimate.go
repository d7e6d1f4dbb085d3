package models

// Period types accepted in EstimationInput.PeriodType
const (
	PeriodDays   = "days"
	PeriodWeeks  = "weeks"
	PeriodMonths = "months"
)

// Region describes the population the outbreak is estimated for
type Region struct {
	Name                     string   `json:"name"`
	AvgAge                   *float64 `json:"avgAge,omitempty"`
	AvgDailyIncomeInUSD      *float64 `json:"avgDailyIncomeInUSD"`
	AvgDailyIncomePopulation *float64 `json:"avgDailyIncomePopulation"` // fraction in [0,1]
}

// EstimationInput is the request payload of an estimation.
// Required numeric fields are pointers so that an absent field can be told apart from zero.
type EstimationInput struct {
	Region            *Region `json:"region"`
	PeriodType        string  `json:"periodType"`
	TimeToElapse      *int    `json:"timeToElapse"`
	ReportedCases     *int    `json:"reportedCases"`
	Population        *int    `json:"population,omitempty"`
	TotalHospitalBeds *int    `json:"totalHospitalBeds"`
}

// ScenarioEstimate holds the projection for one multiplier class
type ScenarioEstimate struct {
	CurrentlyInfected                  int64   `json:"currentlyInfected"`
	InfectionsByRequestedTime          int64   `json:"infectionsByRequestedTime"`
	SevereCasesByRequestedTime         int64   `json:"severeCasesByRequestedTime"`
	HospitalBedsByRequestedTime        int64   `json:"hospitalBedsByRequestedTime"` // negative means a deficit
	CasesForICUByRequestedTime         int64   `json:"casesForICUByRequestedTime"`
	CasesForVentilatorsByRequestedTime int64   `json:"casesForVentilatorsByRequestedTime"`
	DollarsInFlight                    float64 `json:"dollarsInFlight"`
}

// EstimationResult is the input echoed back with both projections
type EstimationResult struct {
	Data         EstimationInput  `json:"data"`
	Impact       ScenarioEstimate `json:"impact"`
	SevereImpact ScenarioEstimate `json:"severeImpact"`
}

// TimelinePoint is the projected infection count on a given day
type TimelinePoint struct {
	Day        int   `json:"day"`
	Infections int64 `json:"infections"`
}
