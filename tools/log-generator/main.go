// Command log-generator emits synthetic application log lines with a
// controllable mix of benign traffic and injected attack patterns, for
// exercising the analyzer locally.
package main

import (
	"bufio"
	"flag"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/go-faker/faker/v4"
)

func main() {
	seedFlag := flag.Int64("seed", time.Now().UnixNano(), "seed for synthetic data generation")
	countFlag := flag.Int("count", 1000, "number of log lines to emit")
	attackRateFlag := flag.Float64("attack-rate", 0.05, "fraction of lines carrying an injected attack pattern")
	flag.Parse()

	if *countFlag <= 0 {
		log.Fatalf("count must be positive: %d", *countFlag)
	}
	if *attackRateFlag < 0 || *attackRateFlag > 1 {
		log.Fatalf("attack-rate must be within [0, 1]: %.2f", *attackRateFlag)
	}

	faker.SetRandomSource(faker.NewSafeSource(rand.NewSource(*seedFlag)))
	rng := rand.New(rand.NewSource(*seedFlag))

	start := time.Now().UTC().Add(-time.Duration(*countFlag) * time.Second)
	lines := generateLines(*countFlag, *attackRateFlag, start, rng)

	writer := bufio.NewWriter(os.Stdout)
	for _, line := range lines {
		if _, err := writer.WriteString(line); err != nil {
			log.Fatalf("failed to write log line: %v", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			log.Fatalf("failed to write newline: %v", err)
		}
	}
	if err := writer.Flush(); err != nil {
		log.Fatalf("failed to flush output: %v", err)
	}
}
