package credits

// creditPricePaise is the fixed credit→price table in minor currency
// units. Order creation and callback verification consult this identical
// table; a quantity outside it is rejected in both places.
var creditPricePaise = map[int64]int64{
	1:  9900,
	5:  39900,
	10: 69900,
	20: 119900,
}

// Currency for every order created through this ledger.
const Currency = "INR"

// PriceFor maps a credit quantity to its price, failing closed on unknown
// quantities.
func PriceFor(quantity int64) (int64, error) {
	price, ok := creditPricePaise[quantity]
	if !ok {
		return 0, ErrInvalidCreditValue
	}
	return price, nil
}

// Packages lists the purchasable quantities in ascending order.
func Packages() []int64 {
	return []int64{1, 5, 10, 20}
}
