// Command generator writes synthetic raw batches into a staging directory,
// laid out the way upstream drops them (date=YYYY-MM-DD/hour=HH partition
// dirs, gzipped JSON lines). A fraction of the records is deliberately
// broken so quarantine paths get exercised too.
package main

import (
	"compress/gzip"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

func main() {
	var (
		outDir       = flag.String("out", "./data/raw", "raw staging root")
		date         = flag.String("date", time.Now().UTC().Format("2006-01-02"), "partition date")
		hour         = flag.Int("hour", time.Now().UTC().Hour(), "partition hour")
		customers    = flag.Int("customers", 50, "customer records")
		products     = flag.Int("products", 20, "product records")
		transactions = flag.Int("transactions", 100, "transaction records")
		erasures     = flag.Int("erasures", 5, "erasure request records")
		brokenRatio  = flag.Float64("broken", 0.1, "fraction of records made invalid")
		seed         = flag.Int64("seed", time.Now().UnixNano(), "rng seed")
	)
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))
	g := &generator{rng: rng, broken: *brokenRatio}

	partition := filepath.Join("date="+*date, fmt.Sprintf("hour=%02d", *hour))

	sets := []struct {
		name  string
		count int
		make  func(i int) map[string]any
	}{
		{"customers", *customers, g.customer},
		{"products", *products, g.product},
		{"transactions", *transactions, g.transaction},
		{"erasure-requests", *erasures, g.erasureRequest},
	}

	for _, set := range sets {
		if set.count == 0 {
			continue
		}
		records := make([]map[string]any, set.count)
		for i := range records {
			records[i] = set.make(i)
		}
		path := filepath.Join(*outDir, partition, set.name+".json.gz")
		if err := writeBatch(path, records); err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("write batch")
		}
		log.Info().Str("path", path).Int("records", set.count).Msg("batch written")
	}
}

type generator struct {
	rng    *rand.Rand
	broken float64
}

func (g *generator) breakIt() bool {
	return g.rng.Float64() < g.broken
}

// num renders a decimal as a bare JSON number; the default decimal encoding
// is a quoted string, which the ingest schema would reject.
func num(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

func (g *generator) customer(i int) map[string]any {
	rec := map[string]any{
		"id":          int64(i + 1),
		"first_name":  fmt.Sprintf("First%d", i),
		"last_name":   fmt.Sprintf("Last%d", i),
		"email":       fmt.Sprintf("user%d@example.com", i),
		"phone_number": nil,
		"address":     fmt.Sprintf("%d Main Street", i+1),
		"city":        "Springfield",
		"country":     "GB",
		"postcode":    "SP1 1AA",
		"last_change": time.Now().UTC().Format(time.RFC3339),
		"segment":     nil,
		"date_of_birth": time.Date(1970+g.rng.Intn(40), time.Month(1+g.rng.Intn(12)),
			1+g.rng.Intn(28), 0, 0, 0, 0, time.UTC).Format("2006-01-02"),
	}
	if g.breakIt() {
		switch g.rng.Intn(3) {
		case 0:
			rec["email"] = "not-an-email"
		case 1:
			delete(rec, "last_name")
		default:
			rec["surprise"] = true
		}
	}
	return rec
}

func (g *generator) product(i int) map[string]any {
	price := decimal.NewFromInt(int64(g.rng.Intn(9000) + 100)).Div(decimal.NewFromInt(100))
	rec := map[string]any{
		"sku":        int64(1000 + i),
		"name":       fmt.Sprintf("Product %d", i),
		"price":      num(price),
		"category":   []string{"home", "garden", "toys", "food"}[g.rng.Intn(4)],
		"popularity": g.rng.Float64() + 0.01,
	}
	if g.breakIt() {
		rec["popularity"] = 0
	}
	return rec
}

func (g *generator) transaction(i int) map[string]any {
	lines := 1 + g.rng.Intn(3)
	products := make([]map[string]any, lines)
	total := decimal.Zero
	for l := range products {
		price := decimal.NewFromInt(int64(g.rng.Intn(5000) + 100)).Div(decimal.NewFromInt(100))
		qty := int64(1 + g.rng.Intn(4))
		lineTotal := price.Mul(decimal.NewFromInt(qty)).Round(2)
		products[l] = map[string]any{
			"sku":      int64(1000 + g.rng.Intn(20)),
			"quantity": qty,
			"price":    num(price),
			"total":    num(lineTotal),
		}
		total = total.Add(lineTotal)
	}
	rec := map[string]any{
		"transaction_id":   uuid.NewString(),
		"transaction_time": time.Now().UTC().Format(time.RFC3339),
		"customer_id":      int64(1 + g.rng.Intn(50)),
		"delivery_address": map[string]any{
			"address":  "1 Delivery Lane",
			"city":     "Springfield",
			"country":  "GB",
			"postcode": "SP1 1AA",
		},
		"purchases": map[string]any{
			"products":   products,
			"total_cost": num(total),
		},
	}
	if g.breakIt() {
		switch g.rng.Intn(2) {
		case 0:
			rec["customer_id"] = int64(999999)
		default:
			rec["purchases"].(map[string]any)["total_cost"] = num(total.Add(decimal.NewFromInt(1)))
		}
	}
	return rec
}

func (g *generator) erasureRequest(i int) map[string]any {
	id := int64(1 + g.rng.Intn(50))
	rec := map[string]any{
		"customer_id": id,
		"email":       fmt.Sprintf("user%d@example.com", id-1),
	}
	if g.breakIt() {
		rec["customer_id"] = int64(888888)
	}
	return rec
}

func writeBatch(path string, records []map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	zw := gzip.NewWriter(f)
	enc := json.NewEncoder(zw)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return f.Close()
}
