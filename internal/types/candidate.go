package types

// Supplier identifies the factory or trading company behind a candidate.
type Supplier struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Rating            float64 `json:"rating"`
	ResponseTimeHours float64 `json:"response_time_hours,omitempty"`
}

// Candidate is a catalog entry (product or factory listing) ranked against a
// StructuredQuery. Read-only reference data; the matching engine never
// mutates it.
type Candidate struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name"`
	Category             string   `json:"category"`
	Description          string   `json:"description,omitempty"`
	Keywords             []string `json:"keywords"`
	Price                float64  `json:"price"`
	MOQ                  int      `json:"moq"`
	Supplier             Supplier `json:"supplier"`
	SupportsDropshipping bool     `json:"supports_dropshipping"`
	Certifications       []string `json:"certifications,omitempty"`
	DeliveryTime         string   `json:"delivery_time,omitempty"`
	Tags                 []string `json:"tags,omitempty"`
}

// HasTag reports whether the candidate carries the given display tag.
func (c *Candidate) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// MatchResult is the scored, annotated outcome for one candidate.
// Score is deterministic for a given (query, candidate) pair.
type MatchResult struct {
	CandidateID          string   `json:"candidate_id"`
	Name                 string   `json:"name"`
	Category             string   `json:"category"`
	Price                float64  `json:"price"`
	MOQ                  int      `json:"moq"`
	Supplier             Supplier `json:"supplier"`
	Score                int      `json:"match_score"`
	Reasons              []string `json:"match_reasons"`
	SupportsDropshipping bool     `json:"supports_dropshipping"`
	Certifications       []string `json:"certifications,omitempty"`
}
