package directory

import (
	"math/big"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var weiPerEther = decimal.New(1, 18)

// yearly rate in wei, indexed by name length; every length outside 3..6 uses the last entry
var yearlyRates = []*big.Int{
	3: big.NewInt(12e15),
	4: big.NewInt(10e15),
	5: big.NewInt(8e15),
	6: big.NewInt(6e15),
	7: big.NewInt(4e15),
}

// Price returns the advisory cost in wei of holding a name of nameLength
// characters for years. The contract enforces the real price.
func Price(nameLength, years int) *big.Int {
	if years <= 0 {
		return new(big.Int)
	}
	var rate *big.Int
	switch {
	case nameLength < 3 || nameLength >= len(yearlyRates):
		rate = yearlyRates[len(yearlyRates)-1]
	default:
		rate = yearlyRates[nameLength]
	}
	return new(big.Int).Mul(rate, big.NewInt(int64(years)))
}

func DomainPrice(name string, years int) *big.Int {
	return Price(utf8.RuneCountInString(name), years)
}

// FormatEther renders wei as a decimal ether string, e.g. 12000000000000000 -> "0.012".
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei, 0).Div(weiPerEther).String()
}
