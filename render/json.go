package render

import (
	"encoding/json"
	"io"

	"github.com/anirudhraja/otpdump"
)

type jsonExport struct {
	Version    uint64        `json:"version"`
	BatchSize  uint64        `json:"batch_size,omitempty"`
	BatchIndex uint64        `json:"batch_index,omitempty"`
	BatchID    uint64        `json:"batch_id,omitempty"`
	Accounts   []jsonAccount `json:"accounts"`
	Extra      []jsonRecord  `json:"extra,omitempty"`
	Warnings   []string      `json:"warnings,omitempty"`
}

type jsonAccount struct {
	Secret    string       `json:"secret"`
	Name      string       `json:"name"`
	Issuer    string       `json:"issuer,omitempty"`
	Algorithm string       `json:"algorithm"`
	Digits    int          `json:"digits"`
	Type      string       `json:"type"`
	Counter   uint64       `json:"counter,omitempty"`
	URI       string       `json:"uri"`
	Extra     []jsonRecord `json:"extra,omitempty"`
}

type jsonRecord struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Depth int    `json:"depth"`
}

// JSON writes the export as a single JSON object followed by a newline.
func JSON(w io.Writer, exp *otpdump.Export, opts Options) error {
	out := jsonExport{
		Version:    exp.Version,
		BatchSize:  exp.BatchSize,
		BatchIndex: exp.BatchIndex,
		BatchID:    exp.BatchID,
		Accounts:   make([]jsonAccount, 0, len(exp.Accounts)),
	}

	for _, a := range exp.Accounts {
		ja := jsonAccount{
			Secret:    Secret(a.Secret, opts),
			Name:      a.Name,
			Issuer:    a.Issuer,
			Algorithm: a.Algorithm.String(),
			Digits:    a.Digits.Digits(),
			Type:      a.Type.String(),
			Counter:   a.Counter,
			URI:       URI(a),
		}
		for _, r := range a.Extra {
			ja.Extra = append(ja.Extra, jsonRecord{Label: string(r.Label), Value: Value(r, opts), Depth: r.Depth})
		}
		out.Accounts = append(out.Accounts, ja)
	}
	for _, r := range exp.Extra {
		out.Extra = append(out.Extra, jsonRecord{Label: string(r.Label), Value: Value(r, opts), Depth: r.Depth})
	}
	for _, err := range exp.Warnings {
		out.Warnings = append(out.Warnings, err.Error())
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(out)
}
