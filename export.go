package otpdump

import (
	"bytes"

	"github.com/anirudhraja/otpdump/emit"
	"github.com/anirudhraja/otpdump/schema"
	"github.com/anirudhraja/otpdump/wire"
)

// Export is the decoded content of one payload.
type Export struct {
	// Records are all recognized fields in decode order.
	Records []emit.Record

	// Accounts groups the records found inside each top-level sub-message.
	Accounts []Account

	Version    uint64
	BatchSize  uint64
	BatchIndex uint64
	BatchID    uint64

	// Extra holds top-level records with no dedicated field.
	Extra []emit.Record

	Size     int     // payload length in bytes
	Consumed int     // bytes decoded before the top-level message stopped
	Warnings []error // errors that stopped nested messages
}

// Account is one enrollment.
type Account struct {
	Secret    []byte
	Name      string
	Issuer    string
	Algorithm Algorithm
	Digits    DigitCount
	Type      OTPType
	Counter   uint64

	// Extra holds records of the account with no dedicated field, and any
	// record found below the account's own level.
	Extra []emit.Record
}

// Algorithm is the HMAC algorithm of an account.
type Algorithm uint64

const (
	AlgorithmUnspecified Algorithm = iota
	AlgorithmSHA1
	AlgorithmSHA256
	AlgorithmSHA512
	AlgorithmMD5
)

func (a Algorithm) String() string {
	switch a {
	case AlgorithmSHA256:
		return "SHA256"
	case AlgorithmSHA512:
		return "SHA512"
	case AlgorithmMD5:
		return "MD5"
	default:
		return "SHA1"
	}
}

// DigitCount is the encoded code length of an account.
type DigitCount uint64

const (
	DigitCountUnspecified DigitCount = iota
	DigitCountSix
	DigitCountEight
)

// Digits returns the code length; unspecified means six.
func (d DigitCount) Digits() int {
	if d == DigitCountEight {
		return 8
	}
	return 6
}

// OTPType distinguishes counter-based from time-based accounts.
type OTPType uint64

const (
	OTPTypeUnspecified OTPType = iota
	OTPTypeHOTP
	OTPTypeTOTP
)

func (t OTPType) String() string {
	if t == OTPTypeHOTP {
		return "hotp"
	}
	return "totp"
}

func newExport(data []byte, consumed int, records []emit.Record, warnings []error) *Export {
	exp := &Export{
		Records:  records,
		Size:     len(data),
		Consumed: consumed,
		Warnings: warnings,
	}

	index := make(map[int]int) // group -> position in Accounts
	for _, r := range records {
		if r.Group == 0 {
			exp.setPayloadField(r)
			continue
		}

		i, ok := index[r.Group]
		if !ok {
			i = len(exp.Accounts)
			index[r.Group] = i
			exp.Accounts = append(exp.Accounts, Account{})
		}
		exp.Accounts[i].setField(r)
	}
	return exp
}

func (e *Export) setPayloadField(r emit.Record) {
	v, ok := r.Value.(wire.Varint)
	if !ok {
		e.Extra = append(e.Extra, r)
		return
	}
	switch r.Label {
	case schema.LabelVersion:
		e.Version = uint64(v)
	case schema.LabelBatchSize:
		e.BatchSize = uint64(v)
	case schema.LabelBatchIndex:
		e.BatchIndex = uint64(v)
	case schema.LabelBatchID:
		e.BatchID = uint64(v)
	default:
		e.Extra = append(e.Extra, r)
	}
}

func (a *Account) setField(r emit.Record) {
	if r.Depth != 1 {
		a.Extra = append(a.Extra, r)
		return
	}

	switch v := r.Value.(type) {
	case wire.Bytes:
		switch r.Label {
		case schema.LabelSecret:
			a.Secret = bytes.Clone(v)
		case schema.LabelName:
			a.Name = string(v)
		case schema.LabelIssuer:
			a.Issuer = string(v)
		default:
			a.Extra = append(a.Extra, r)
		}
	case wire.Varint:
		switch r.Label {
		case schema.LabelAlgorithm:
			a.Algorithm = Algorithm(v)
		case schema.LabelDigits:
			a.Digits = DigitCount(v)
		case schema.LabelType:
			a.Type = OTPType(v)
		case schema.LabelCounter:
			a.Counter = uint64(v)
		default:
			a.Extra = append(a.Extra, r)
		}
	default:
		a.Extra = append(a.Extra, r)
	}
}
