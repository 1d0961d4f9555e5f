package catalog

import (
	"context"

	"github.com/demandos/sourcing-agent/internal/types"
)

// StaticProvider serves a fixed in-memory catalog. Used for demos and as the
// fallback when no database is configured.
type StaticProvider struct {
	candidates []types.Candidate
}

// NewStaticProvider creates a provider over the given candidates.
func NewStaticProvider(candidates []types.Candidate) *StaticProvider {
	return &StaticProvider{candidates: candidates}
}

// NewDemoProvider returns a provider preloaded with the demo product catalog.
func NewDemoProvider() *StaticProvider {
	return NewStaticProvider(demoCatalog())
}

// NewDemoFactoryProvider returns a provider preloaded with the demo factory
// listings, which complement the product catalog with OEM/ODM capacity.
func NewDemoFactoryProvider() *StaticProvider {
	return NewStaticProvider(demoFactories())
}

// FetchCandidates returns candidates matching the hint, preserving catalog order.
func (p *StaticProvider) FetchCandidates(_ context.Context, hint FilterHint) ([]types.Candidate, error) {
	out := make([]types.Candidate, 0, len(p.candidates))
	for _, c := range p.candidates {
		if hint.Category != "" && c.Category != hint.Category {
			continue
		}
		out = append(out, c)
		if hint.Limit > 0 && len(out) >= hint.Limit {
			break
		}
	}
	return out, nil
}

func demoFactories() []types.Candidate {
	return []types.Candidate{
		{
			ID:          "f1",
			Name:        "Bluetooth Audio OEM Production Line",
			Category:    "Consumer Electronics",
			Description: "Contract manufacturing for speakers and earbuds, tooling included",
			Keywords:    []string{"Bluetooth Speaker", "Earbuds", "OEM", "Audio"},
			Price:       6.8,
			MOQ:         3000,
			Supplier: types.Supplier{
				ID:                "s5",
				Name:              "Huizhou Acoustics Factory",
				Rating:            4.6,
				ResponseTimeHours: 24,
			},
			Certifications: []string{"CE", "FCC", "ISO9001"},
			DeliveryTime:   "30-40 days",
			Tags:           []string{"Factory Direct", "OEM Available"},
		},
		{
			ID:          "f2",
			Name:        "Wearables ODM Factory Line",
			Category:    "Consumer Electronics",
			Description: "Smart watch and band ODM with custom firmware and housing",
			Keywords:    []string{"Smart Watch", "Smart Band", "ODM", "Wearables"},
			Price:       13.5,
			MOQ:         2000,
			Supplier: types.Supplier{
				ID:                "s6",
				Name:              "Shenzhen Wearable Works",
				Rating:            4.7,
				ResponseTimeHours: 16,
			},
			Certifications: []string{"CE", "RoHS", "ISO9001"},
			DeliveryTime:   "25-35 days",
			Tags:           []string{"Factory Direct", "Private Label Available"},
		},
	}
}

func demoCatalog() []types.Candidate {
	return []types.Candidate{
		{
			ID:          "p1",
			Name:        "TWS Pro ANC Wireless Earbuds",
			Category:    "Consumer Electronics",
			Description: "Active noise cancelling, 40dB depth, 35h battery life",
			Keywords:    []string{"TWS", "Bluetooth", "Earbuds", "ANC", "Noise Cancelling"},
			Price:       8.5,
			MOQ:         500,
			Supplier: types.Supplier{
				ID:                "s1",
				Name:              "Shenzhen Pengda Electronics",
				Rating:            4.8,
				ResponseTimeHours: 12,
			},
			SupportsDropshipping: true,
			Certifications:       []string{"CE", "FCC", "RoHS"},
			DeliveryTime:         "15-20 days",
			Tags:                 []string{"Hot Seller", "OEM Available"},
		},
		{
			ID:          "p2",
			Name:        "Smart Band with SpO2 Monitoring",
			Category:    "Consumer Electronics",
			Description: "1.4\" AMOLED display, blood oxygen, heart rate and sleep tracking",
			Keywords:    []string{"Smart Band", "Fitness Tracker", "Blood Oxygen", "SpO2"},
			Price:       12.0,
			MOQ:         1000,
			Supplier: types.Supplier{
				ID:                "s3",
				Name:              "Dongguan Smart Manufacturing",
				Rating:            4.9,
				ResponseTimeHours: 8,
			},
			SupportsDropshipping: false,
			Certifications:       []string{"CE", "FCC", "FDA"},
			DeliveryTime:         "20-25 days",
			Tags:                 []string{"New Arrival", "OEM Available"},
		},
		{
			ID:          "p3",
			Name:        "Sport Smart Watch IP68",
			Category:    "Consumer Electronics",
			Description: "1.75\" HD display, blood oxygen, ECG, activity tracking, IP68 waterproof",
			Keywords:    []string{"Smart Watch", "Blood Oxygen", "ECG", "Waterproof"},
			Price:       16.5,
			MOQ:         500,
			Supplier: types.Supplier{
				ID:                "s3",
				Name:              "Dongguan Smart Manufacturing",
				Rating:            4.9,
				ResponseTimeHours: 8,
			},
			SupportsDropshipping: true,
			Certifications:       []string{"CE", "FCC", "RoHS"},
			DeliveryTime:         "18-22 days",
			Tags:                 []string{"Hot Seller", "Private Label Available"},
		},
		{
			ID:          "p4",
			Name:        "Wireless Power Bank 10000mAh",
			Category:    "Consumer Electronics",
			Description: "15W wireless fast charge plus 20W PD wired",
			Keywords:    []string{"Power Bank", "Wireless Charging", "Fast Charge"},
			Price:       7.2,
			MOQ:         1000,
			Supplier: types.Supplier{
				ID:                "s1",
				Name:              "Shenzhen Pengda Electronics",
				Rating:            4.8,
				ResponseTimeHours: 12,
			},
			SupportsDropshipping: true,
			Certifications:       []string{"CE", "FCC", "UL"},
			DeliveryTime:         "12-15 days",
			Tags:                 []string{"Best Seller"},
		},
		{
			ID:          "p5",
			Name:        "Portable Bluetooth Speaker IP67",
			Category:    "Consumer Electronics",
			Description: "IP67 waterproof, 20h battery, RGB ambient light",
			Keywords:    []string{"Bluetooth Speaker", "Waterproof", "Portable"},
			Price:       11.0,
			MOQ:         500,
			Supplier: types.Supplier{
				ID:                "s1",
				Name:              "Shenzhen Pengda Electronics",
				Rating:            4.8,
				ResponseTimeHours: 12,
			},
			SupportsDropshipping: false,
			Certifications:       []string{"CE", "FCC"},
			DeliveryTime:         "15-18 days",
			Tags:                 []string{"OEM Available"},
		},
	}
}
