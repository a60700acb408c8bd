package constants

// NumberType is the semantic role assigned to a numeric token on an invoice line.
type NumberType int

const (
	NumberUnknown NumberType = iota
	NumberPrice
	NumberQuantity
	NumberSKU
	NumberWeight
	NumberPackSize
)

func (t NumberType) String() string {
	switch t {
	case NumberPrice:
		return "price"
	case NumberQuantity:
		return "quantity"
	case NumberSKU:
		return "sku"
	case NumberWeight:
		return "weight"
	case NumberPackSize:
		return "packSize"
	case NumberUnknown:
		return "unknown"
	}
	return "unknown"
}

func (t NumberType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// LineKind tags what a line-rule match represents.
type LineKind int

const (
	LineItem LineKind = iota
	LineFee
	LineCredit
)

func (k LineKind) String() string {
	switch k {
	case LineItem:
		return "item"
	case LineFee:
		return "fee"
	case LineCredit:
		return "credit"
	}
	return "item"
}
