// random
package util

import (
	"math/rand"
)

const deviceIDChars = "abcdefghijklmnopqrstuvwxyz0123456789"

// RandomDeviceID generates a throwaway Device-ID header value for GQL
// calls. The upstream only wants it to look unique per request, so this
// deliberately uses math/rand. It is NOT a security token and must
// never be used as one.
func RandomDeviceID() string {
	b := make([]byte, 26)
	for i := range b {
		b[i] = deviceIDChars[rand.Intn(len(deviceIDChars))]
	}
	return string(b)
}
