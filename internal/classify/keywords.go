package classify

// Keywords are lowercase substrings that mark an element as a checkout or
// payment trigger. Matching is substring containment, not whole-word.
var Keywords = []string{
	"checkout",
	"place order",
	"place my order",
	"buy now",
	"complete order",
	"proceed to checkout",
	"payment",
	"card number",
	"credit card",
	"cc-number",
	"card-number",
	"billing",
	"pay now",
}

// CardFieldFragments are name fragments that identify card-entry inputs.
var CardFieldFragments = []string{"card", "cc", "cvv", "cvc", "expiry"}

// cardFieldInputTypes are the input types the card-field heuristic applies to.
var cardFieldInputTypes = map[string]bool{
	"text": true,
	"tel":  true,
}
