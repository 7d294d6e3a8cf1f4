package instrument

// PositioningUnavailable is the message shown for data Yahoo Finance does not provide.
const PositioningUnavailable = "Data not available from Yahoo Finance"

// Positioning groups market structure data the dashboard cannot source.
// Every field carries PositioningUnavailable; the record exists so the
// presentation layer has a stable shape to render.
type Positioning struct {
	Symbol                   string `json:"symbol"`
	LongShortPositions       string `json:"long_short_positions"`
	DarkPoolVolume           string `json:"dark_pool_volume"`
	OpenInterest             string `json:"open_interest"`
	CommitmentOfTraders      string `json:"commitment_of_traders"`
	InterestRateDifferential string `json:"interest_rate_differential"`
}

// PositioningFor returns the placeholder record for a symbol.
func PositioningFor(symbol string) Positioning {
	return Positioning{
		Symbol:                   symbol,
		LongShortPositions:       PositioningUnavailable,
		DarkPoolVolume:           PositioningUnavailable,
		OpenInterest:             PositioningUnavailable,
		CommitmentOfTraders:      PositioningUnavailable,
		InterestRateDifferential: PositioningUnavailable,
	}
}
