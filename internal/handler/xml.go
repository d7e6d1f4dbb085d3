package handler

import (
	"fmt"
	"strconv"

	"github.com/Dan9191/outbreak-estimator/internal/models"
	"github.com/beevik/etree"
)

// EncodeXML renders result as a document rooted at <response>, one element per field
func EncodeXML(result *models.EstimationResult) ([]byte, error) {
	doc, root := newResponseDocument()

	writeInput(root.CreateElement("data"), &result.Data)
	writeScenario(root.CreateElement("impact"), &result.Impact)
	writeScenario(root.CreateElement("severeImpact"), &result.SevereImpact)

	return writeDocument(doc)
}

// EncodeXMLError renders <response><error>msg</error></response>
func EncodeXMLError(msg string) ([]byte, error) {
	doc, root := newResponseDocument()
	root.CreateElement("error").SetText(msg)
	return writeDocument(doc)
}

func newResponseDocument() (*etree.Document, *etree.Element) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	return doc, doc.CreateElement("response")
}

func writeDocument(doc *etree.Document) ([]byte, error) {
	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to write XML: %w", err)
	}
	return out, nil
}

func writeInput(el *etree.Element, in *models.EstimationInput) {
	if in.Region != nil {
		region := el.CreateElement("region")
		region.CreateElement("name").SetText(in.Region.Name)
		addFloat(region, "avgAge", in.Region.AvgAge)
		addFloat(region, "avgDailyIncomeInUSD", in.Region.AvgDailyIncomeInUSD)
		addFloat(region, "avgDailyIncomePopulation", in.Region.AvgDailyIncomePopulation)
	}
	el.CreateElement("periodType").SetText(in.PeriodType)
	addInt(el, "timeToElapse", in.TimeToElapse)
	addInt(el, "reportedCases", in.ReportedCases)
	addInt(el, "population", in.Population)
	addInt(el, "totalHospitalBeds", in.TotalHospitalBeds)
}

func writeScenario(el *etree.Element, s *models.ScenarioEstimate) {
	el.CreateElement("currentlyInfected").SetText(strconv.FormatInt(s.CurrentlyInfected, 10))
	el.CreateElement("infectionsByRequestedTime").SetText(strconv.FormatInt(s.InfectionsByRequestedTime, 10))
	el.CreateElement("severeCasesByRequestedTime").SetText(strconv.FormatInt(s.SevereCasesByRequestedTime, 10))
	el.CreateElement("hospitalBedsByRequestedTime").SetText(strconv.FormatInt(s.HospitalBedsByRequestedTime, 10))
	el.CreateElement("casesForICUByRequestedTime").SetText(strconv.FormatInt(s.CasesForICUByRequestedTime, 10))
	el.CreateElement("casesForVentilatorsByRequestedTime").SetText(strconv.FormatInt(s.CasesForVentilatorsByRequestedTime, 10))
	el.CreateElement("dollarsInFlight").SetText(strconv.FormatFloat(s.DollarsInFlight, 'f', -1, 64))
}

// absent optional fields are left out
func addInt(el *etree.Element, name string, v *int) {
	if v != nil {
		el.CreateElement(name).SetText(strconv.Itoa(*v))
	}
}

func addFloat(el *etree.Element, name string, v *float64) {
	if v != nil {
		el.CreateElement(name).SetText(strconv.FormatFloat(*v, 'f', -1, 64))
	}
}
