package cardbrand

import (
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Brand labels stored on the account
const (
	Visa            = "Visa"
	MasterCard      = "MasterCard"
	AmericanExpress = "American Express"
	Discover        = "Discover"
	JCB             = "JCB"
	DinersClub      = "Diners Club"
	Maestro         = "Maestro"
	Unknown         = "Unknown"
)

// Detector derives a brand label from a card number. The gateway does not
// return the brand of a stored card, so it is computed locally.
type Detector interface {
	Detect(number string) string
}

type prefixRange struct {
	low, high int
	digits    int
}

type rule struct {
	brand   string
	lengths []int
	ranges  []prefixRange
}

// rules are checked in order, more specific ranges first
var rules = []rule{
	{brand: AmericanExpress, lengths: []int{15}, ranges: []prefixRange{{34, 34, 2}, {37, 37, 2}}},
	{brand: DinersClub, lengths: []int{14, 16, 19}, ranges: []prefixRange{{300, 305, 3}, {36, 36, 2}, {38, 39, 2}}},
	{brand: JCB, lengths: []int{16, 17, 18, 19}, ranges: []prefixRange{{3528, 3589, 4}}},
	{brand: Discover, lengths: []int{16, 19}, ranges: []prefixRange{{6011, 6011, 4}, {644, 649, 3}, {65, 65, 2}, {622126, 622925, 6}}},
	{brand: MasterCard, lengths: []int{16}, ranges: []prefixRange{{51, 55, 2}, {2221, 2720, 4}}},
	{brand: Maestro, lengths: []int{12, 13, 14, 15, 16, 17, 18, 19}, ranges: []prefixRange{{5018, 5018, 4}, {5020, 5020, 4}, {5038, 5038, 4}, {5893, 5893, 4}, {6304, 6304, 4}, {6759, 6763, 4}}},
	{brand: Visa, lengths: []int{13, 16, 19}, ranges: []prefixRange{{4, 4, 1}}},
}

type prefixDetector struct{}

// NewDetector returns the IIN prefix based detector
func NewDetector() Detector {
	return prefixDetector{}
}

func (prefixDetector) Detect(number string) string {
	number = Normalize(number)
	if number == "" {
		return Unknown
	}
	for _, r := range rules {
		if !lo.Contains(r.lengths, len(number)) {
			continue
		}
		for _, pr := range r.ranges {
			if len(number) < pr.digits {
				continue
			}
			prefix, err := strconv.Atoi(number[:pr.digits])
			if err != nil {
				return Unknown
			}
			if prefix >= pr.low && prefix <= pr.high {
				return r.brand
			}
		}
	}
	return Unknown
}

// Normalize strips spaces and dashes, returning "" when anything else is not a digit
func Normalize(number string) string {
	number = strings.NewReplacer(" ", "", "-", "").Replace(number)
	for _, c := range number {
		if c < '0' || c > '9' {
			return ""
		}
	}
	return number
}
