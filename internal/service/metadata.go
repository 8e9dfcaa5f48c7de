package service

import "encoding/json"

// Session metadata keys. The gateway session is the only durable record
// between "checkout started" and "payment confirmed", so the metadata blob
// must be sufficient to reconstruct exactly which tier, quantity, price and
// flash sale applied to each line when the confirmation callback arrives.
const (
	metaKeyEventID = "event_id"
	metaKeyLines   = "lines"
)

// sessionLine is one basket line as frozen into session metadata at
// checkout time.
type sessionLine struct {
	TierID      uint64 `json:"tier_id"`
	TierName    string `json:"tier_name"`
	Quantity    int    `json:"qty"`
	PriceRef    string `json:"price_ref"`
	FlashSaleID uint64 `json:"flash_sale_id,omitempty"`
}

func encodeLines(lines []sessionLine) (string, error) {
	raw, err := json.Marshal(lines)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeLines(raw string) ([]sessionLine, error) {
	var lines []sessionLine
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, err
	}
	return lines, nil
}
