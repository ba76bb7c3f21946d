// Package announce turns price observations into the sentence that clients
// display and feed to speech synthesis.
package announce

import (
	"fmt"
	"strconv"
	"strings"
)

// Format renders a price observation as a human-readable sentence, e.g.
// "AAPL is at 189.32 dollars". A leading index marker ("^GSPC") is stripped
// so speech synthesis does not stumble over it.
func Format(symbol string, price float64) string {
	name := strings.TrimPrefix(symbol, "^")
	return fmt.Sprintf("%s is at %s dollars", name, strconv.FormatFloat(price, 'f', 2, 64))
}
