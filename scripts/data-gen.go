/*
	Basic script that churns a running contactsd with inserts, growing and
	shrinking updates and deletes, to exercise relocation and padding on disk.
*/

package main

import (
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/0xRadioAc7iv/go-contactfile/contacts"
	"github.com/0xRadioAc7iv/go-contactfile/core"
	"github.com/0xRadioAc7iv/go-contactfile/internal"
)

const (
	concurrency = 6

	// Fixed universe
	totalEmails = 200

	// Per-cycle behavior
	insertsPerCycle = 20
	updatesPerCycle = 10
	deletesPerCycle = 5
	cyclesPerWorker = 2000

	sleepBetweenCycles = 10 * time.Millisecond

	progressEvery = 200
)

func main() {
	host := flag.String("host", internal.DEFAULT_HOST, "contactsd host")
	port := flag.Int("port", internal.DEFAULT_PORT, "contactsd port")
	flag.Parse()

	start := time.Now()
	fmt.Println("Starting contact churn load generator")

	emails := makeEmails(totalEmails)

	var wg sync.WaitGroup

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			runWorker(id, *host, *port, emails)
		}(i)
	}

	wg.Wait()
	fmt.Printf("Load finished in %v\n", time.Since(start))
}

func runWorker(id int, host string, port int, emails []string) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)))

	client, err := contacts.Connect(contacts.WithHost(host), contacts.WithPort(port))
	if err != nil {
		fmt.Printf("[worker %d] connect error: %v\n", id, err)
		return
	}
	defer client.Close()

	for cycle := 1; cycle <= cyclesPerWorker; cycle++ {

		// ---- INSERT PHASE (duplicates are expected) ----
		for i := 0; i < insertsPerCycle; i++ {
			email := emails[rng.Intn(len(emails))]

			err := client.Insert(randomContact(rng, email))
			if err != nil && !errors.Is(err, core.ErrDuplicateKey) {
				fmt.Printf("[worker %d] INSERT error: %v\n", id, err)
				return
			}
		}

		// ---- UPDATE PHASE (random sizes force relocation and padding) ----
		for i := 0; i < updatesPerCycle; i++ {
			email := emails[rng.Intn(len(emails))]

			_, err := client.Update(email, randomContact(rng, email))
			if err != nil {
				fmt.Printf("[worker %d] UPDATE error: %v\n", id, err)
				return
			}
		}

		// ---- DELETE PHASE ----
		for i := 0; i < deletesPerCycle; i++ {
			email := emails[rng.Intn(len(emails))]

			if _, err := client.Delete(email); err != nil {
				fmt.Printf("[worker %d] DELETE error: %v\n", id, err)
				return
			}
		}

		if cycle%progressEvery == 0 {
			fmt.Printf("[worker %d] completed %d cycles\n", id, cycle)
		}

		if sleepBetweenCycles > 0 {
			time.Sleep(sleepBetweenCycles)
		}
	}
}

func randomContact(rng *rand.Rand, email string) *contacts.Contact {
	return &contacts.Contact{
		GivenNames:  randomWord(rng, 3, 12),
		FamilyNames: randomWord(rng, 3, 16),
		Company:     randomWord(rng, 0, 40),
		Address:     fmt.Sprintf("%d %s St", rng.Intn(999)+1, randomWord(rng, 4, 20)),
		City:        randomWord(rng, 3, 14),
		Country:     randomWord(rng, 2, 10),
		Region:      randomWord(rng, 0, 12),
		Phone1:      fmt.Sprintf("555-%04d", rng.Intn(10000)),
		Phone2:      randomWord(rng, 0, 10),
		Email:       email,
	}
}

func randomWord(rng *rand.Rand, minLen, maxLen int) string {
	n := minLen + rng.Intn(maxLen-minLen+1)

	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(byte('a' + rng.Intn(26)))
	}
	return b.String()
}

func makeEmails(n int) []string {
	emails := make([]string, n)
	for i := 0; i < n; i++ {
		emails[i] = fmt.Sprintf("contact-%03d@example.com", i)
	}
	return emails
}
