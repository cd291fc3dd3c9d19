package market

import (
	"slices"
	"strings"
	"time"
)

type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

type DiseaseAlert struct {
	ID          int       `json:"id"`
	Severity    Severity  `json:"severity"`
	Title       string    `json:"title"`
	Date        time.Time `json:"date"`
	Region      string    `json:"region"`
	Description string    `json:"description"`
	Actions     []string  `json:"actions"`
}

type AlertSummary struct {
	ActiveAlerts    int `json:"activeAlerts"`
	HighSeverity    int `json:"highSeverity"`
	RegionsAffected int `json:"regionsAffected"`
}

func day(m time.Month, d int) time.Time {
	return time.Date(2026, m, d, 0, 0, 0, 0, time.UTC)
}

var alerts = []DiseaseAlert{
	{
		ID:          1,
		Severity:    SeverityHigh,
		Title:       "Streptococcus Outbreak, Western Kenya",
		Date:        day(time.February, 20),
		Region:      "Kisumu, Siaya, Homa Bay",
		Description: "Multiple farms reporting Streptococcus iniae infections. Symptoms include erratic swimming, eye cloudiness, and hemorrhaging.",
		Actions: []string{
			"Isolate affected fish immediately",
			"Consult a veterinarian for antibiotic treatment",
			"Increase aeration in all ponds",
			"Avoid moving fish between farms",
		},
	},
	{
		ID:          2,
		Severity:    SeverityMedium,
		Title:       "Columnaris Disease, Central Region",
		Date:        day(time.February, 18),
		Region:      "Nairobi, Kiambu, Thika",
		Description: "Reports of Flavobacterium columnare causing white lesions on skin and gills. Linked to recent temperature fluctuations.",
		Actions: []string{
			"Reduce stocking density",
			"Maintain water temperature stability",
			"Salt baths (15g/L for 20 min) can help",
			"Improve water quality management",
		},
	},
	{
		ID:          3,
		Severity:    SeverityLow,
		Title:       "Parasitic Infections, Coast Region",
		Date:        day(time.February, 15),
		Region:      "Mombasa, Kilifi",
		Description: "Mild trichodina and ichthyophthirius (white spot) infections observed. Generally manageable with proper treatment.",
		Actions: []string{
			"Use formalin baths as treatment",
			"Increase water changes",
			"Monitor fish behavior closely",
			"Treat entire pond, not just affected fish",
		},
	},
	{
		ID:          4,
		Severity:    SeverityMedium,
		Title:       "Aeromonas Infection Alert, Rift Valley",
		Date:        day(time.February, 12),
		Region:      "Nakuru, Eldoret, Baringo",
		Description: "Aeromonas hydrophila causing ulcerative disease. Often triggered by poor water quality and handling stress.",
		Actions: []string{
			"Minimize fish handling",
			"Test and improve water quality",
			"Use potassium permanganate for ponds",
			"Vaccinate fingerlings where possible",
		},
	},
}

// Alerts returns the active alerts, newest first. A non-empty severity filters.
func Alerts(severity Severity) []DiseaseAlert {
	var out []DiseaseAlert
	for _, a := range alerts {
		if severity != "" && a.Severity != severity {
			continue
		}
		out = append(out, a)
	}
	slices.SortStableFunc(out, func(a, b DiseaseAlert) int { return b.Date.Compare(a.Date) })
	return out
}

// Summarize counts alerts, high severity alerts and distinct affected areas.
func Summarize(list []DiseaseAlert) AlertSummary {
	s := AlertSummary{ActiveAlerts: len(list)}
	regions := make(map[string]struct{})
	for _, a := range list {
		if a.Severity == SeverityHigh {
			s.HighSeverity++
		}
		for _, r := range strings.Split(a.Region, ",") {
			if r = strings.TrimSpace(r); r != "" {
				regions[strings.ToLower(r)] = struct{}{}
			}
		}
	}
	s.RegionsAffected = len(regions)
	return s
}
