package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/anirudhraja/otpdump"
	"github.com/anirudhraja/otpdump/envelope"
	"github.com/anirudhraja/otpdump/registry"
	"github.com/anirudhraja/otpdump/render"
	"github.com/anirudhraja/otpdump/wire"
)

type sampleAccount struct {
	secret    []byte
	name      string
	issuer    string
	algorithm uint64
	digits    uint64
	otpType   uint64
	counter   uint64
}

func main() {
	accounts := []sampleAccount{
		{secret: []byte("Hello!\xde\xad\xbe\xef"), name: "alice@example.com", issuer: "Example", algorithm: 1, digits: 1, otpType: 2},
		{secret: []byte("12345678901234567890"), name: "bob", issuer: "ACME Co", algorithm: 2, digits: 2, otpType: 2},
		{secret: []byte{0x3f, 0x91, 0x0c, 0x55, 0xaa, 0x17, 0x02, 0x9e, 0x44, 0x61}, name: "ops", otpType: 1, counter: 42},
	}

	payload := buildPayload(accounts)
	qrText := envelope.Encode(payload)

	fmt.Println("🔐 otpdump sample app")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Println("QR text:")
	fmt.Println(qrText)

	fmt.Println("\n" + strings.Repeat("=", 70))
	fmt.Println("📋 Default label table (secret, name, issuer, version):")
	fmt.Println(strings.Repeat("=", 70))

	basic := otpdump.New()
	exp, err := basic.ParseText(qrText)
	if err != nil {
		log.Fatalf("Failed to parse: %v", err)
	}
	if err := render.Text(os.Stdout, exp, render.Options{}); err != nil {
		log.Fatal(err)
	}

	fmt.Println(strings.Repeat("=", 70))
	fmt.Println("🧬 Label table from the built-in export schema:")
	fmt.Println(strings.Repeat("=", 70))

	table, err := registry.LoadDefault()
	if err != nil {
		log.Fatalf("Failed to load schema: %v", err)
	}
	full := otpdump.New(otpdump.WithTable(table))
	exp, err = full.ParseText(qrText)
	if err != nil {
		log.Fatalf("Failed to parse: %v", err)
	}
	if err := render.Text(os.Stdout, exp, render.Options{}); err != nil {
		log.Fatal(err)
	}

	fmt.Println("Key URIs:")
	if err := render.URIs(os.Stdout, exp); err != nil {
		log.Fatal(err)
	}

	fmt.Println("\nTrace:")
	traced := otpdump.New(otpdump.WithConfig(wire.Config{Trace: os.Stdout}))
	if _, err := traced.Parse(payload); err != nil {
		log.Fatal(err)
	}
	fmt.Println()
}

func buildPayload(accounts []sampleAccount) []byte {
	e := wire.NewEncoder()
	for _, a := range accounts {
		p := wire.NewEncoder().
			BytesField(1, a.secret).
			StringField(2, a.name)
		if a.issuer != "" {
			p.StringField(3, a.issuer)
		}
		p.VarintField(4, a.algorithm).
			VarintField(5, a.digits).
			VarintField(6, a.otpType)
		if a.counter != 0 {
			p.VarintField(7, a.counter)
		}
		e.MessageField(1, p)
	}
	e.VarintField(2, 1) // version
	e.VarintField(3, 1) // batch_size
	e.VarintField(4, 0) // batch_index
	e.VarintField(5, 1234567)
	return e.Bytes()
}
