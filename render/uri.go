package render

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/anirudhraja/otpdump"
)

// URI returns the otpauth:// key URI of an account, the form single-account
// QR codes carry. Parameters at their default value are left out.
func URI(a otpdump.Account) string {
	label := a.Name
	if a.Issuer != "" && !strings.HasPrefix(a.Name, a.Issuer+":") {
		label = a.Issuer + ":" + a.Name
	}

	q := url.Values{}
	q.Set("secret", Secret(a.Secret, Options{NoPadding: true}))
	if a.Issuer != "" {
		q.Set("issuer", a.Issuer)
	}
	if alg := a.Algorithm.String(); alg != "SHA1" {
		q.Set("algorithm", alg)
	}
	if d := a.Digits.Digits(); d != 6 {
		q.Set("digits", strconv.Itoa(d))
	}
	if a.Type == otpdump.OTPTypeHOTP {
		q.Set("counter", strconv.FormatUint(a.Counter, 10))
	}

	u := url.URL{
		Scheme:   "otpauth",
		Host:     a.Type.String(),
		Path:     "/" + label,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// URIs writes one key URI per account.
func URIs(w io.Writer, exp *otpdump.Export) error {
	for _, a := range exp.Accounts {
		if _, err := fmt.Fprintln(w, URI(a)); err != nil {
			return err
		}
	}
	return nil
}
