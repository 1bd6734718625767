package cart

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// RowID derives the cart-wide identity of a line item from its product id and
// options. Option key order does not affect the result.
func RowID(id int64, opts Options) string {
	sum := md5.Sum([]byte(strconv.FormatInt(id, 10) + opts.canonical()))
	return hex.EncodeToString(sum[:])
}

func fallbackCanonical(o Options) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, key := range o.Keys() {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%q:%#v", key, o[key])
	}
	b.WriteByte('}')
	return b.String()
}
