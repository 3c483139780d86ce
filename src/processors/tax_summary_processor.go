package processors

import (
	"sort"

	"github.com/kathytingcheng-oss/crypto-quant-os/src/models"
)

// TaxRates are the assumed marginal rates applied to positive net gains.
type TaxRates struct {
	ShortTerm float64
	LongTerm  float64
}

// SummarizeTaxEvents splits realized gains by term and sale year and estimates
// the tax due. Net losses within a term produce no negative tax.
func SummarizeTaxEvents(realized float64, events []models.TaxEvent, rates TaxRates) models.TaxReport {
	report := models.TaxReport{
		RealizedPnL: realized,
		Events:      events,
		Years:       []models.TaxYearSummary{},
	}
	if report.Events == nil {
		report.Events = []models.TaxEvent{}
	}

	byYear := make(map[int]*models.TaxYearSummary)
	for _, e := range events {
		year := e.SoldAt.Year()
		ys, ok := byYear[year]
		if !ok {
			ys = &models.TaxYearSummary{Year: year}
			byYear[year] = ys
		}
		switch e.Term {
		case models.TermLong:
			ys.LongTermGain += e.Gain
			report.LongTermGain += e.Gain
		default:
			ys.ShortTermGain += e.Gain
			report.ShortTermGain += e.Gain
		}
	}

	for _, ys := range byYear {
		ys.EstimatedTax = estimateTax(ys.ShortTermGain, ys.LongTermGain, rates)
		report.Years = append(report.Years, *ys)
	}
	sort.Slice(report.Years, func(i, j int) bool { return report.Years[i].Year < report.Years[j].Year })
	for _, ys := range report.Years {
		report.EstimatedTax += ys.EstimatedTax
	}

	return report
}

func estimateTax(short, long float64, rates TaxRates) float64 {
	return max(short, 0)*rates.ShortTerm + max(long, 0)*rates.LongTerm
}
