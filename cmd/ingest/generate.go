package main

import (
	"math"
	"math/rand"

	"vitals-app/internal/domain"
)

var pages = []string{"/", "/listings", "/listings/42", "/about", "/team", "/contact", "/faq"}

var navigationTypes = []string{"navigate", "navigate", "navigate", "reload", "back-forward"}

// PageView is one synthetic page load.
type PageView struct {
	Page           string
	NavigationType string
	Entries        []domain.Entry
}

// logNormal draws a value whose median is median and whose spread grows
// with sigma.
func logNormal(rnd *rand.Rand, median, sigma float64) float64 {
	return median * math.Exp(rnd.NormFloat64()*sigma)
}

func generatePageView(rnd *rand.Rand) PageView {
	pv := PageView{
		Page:           pages[rnd.Intn(len(pages))],
		NavigationType: navigationTypes[rnd.Intn(len(navigationTypes))],
	}

	requestStart := 5 + rnd.Float64()*60
	responseStart := requestStart + logNormal(rnd, 350, 0.7)
	pv.add(domain.Entry{EntryType: domain.EntryNavigation, Name: pv.Page, RequestStart: requestStart, ResponseStart: responseStart})

	fcp := responseStart + logNormal(rnd, 900, 0.5)
	pv.add(domain.Entry{EntryType: domain.EntryPaint, Name: "first-paint", StartTime: fcp - rnd.Float64()*50})
	pv.add(domain.Entry{EntryType: domain.EntryPaint, Name: "first-contentful-paint", StartTime: fcp})

	lcp := fcp
	for i, n := 0, 1+rnd.Intn(3); i < n; i++ {
		lcp += logNormal(rnd, 300, 0.8)
		pv.add(domain.Entry{EntryType: domain.EntryLargestContentfulPaint, StartTime: lcp})
	}

	shiftAt := fcp
	for i, n := 0, rnd.Intn(7); i < n; i++ {
		shiftAt += logNormal(rnd, 600, 0.9)
		pv.add(domain.Entry{
			EntryType:      domain.EntryLayoutShift,
			StartTime:      shiftAt,
			Value:          rnd.Float64() * 0.06,
			HadRecentInput: rnd.Intn(5) == 0,
		})
	}

	var interactionAt float64
	if rnd.Intn(4) != 0 {
		interactionAt = lcp + logNormal(rnd, 1500, 0.6)
		pv.add(domain.Entry{
			EntryType:       domain.EntryFirstInput,
			StartTime:       interactionAt,
			ProcessingStart: interactionAt + logNormal(rnd, 40, 1),
		})
	}

	interactions := uint64(rnd.Intn(40))
	for id := uint64(1); id <= interactions; id++ {
		interactionAt += logNormal(rnd, 2000, 0.5)
		pv.add(domain.Entry{
			EntryType:     domain.EntryEvent,
			Name:          "click",
			StartTime:     interactionAt,
			Duration:      logNormal(rnd, 90, 0.8),
			InteractionID: id,
		})
	}

	for i, n := 0, rnd.Intn(4); i < n; i++ {
		pv.add(domain.Entry{
			EntryType: domain.EntryLongTask,
			StartTime: responseStart + rnd.Float64()*fcp,
			Duration:  50 + rnd.Float64()*250,
		})
	}
	return pv
}

func (pv *PageView) add(e domain.Entry) {
	pv.Entries = append(pv.Entries, e)
}
