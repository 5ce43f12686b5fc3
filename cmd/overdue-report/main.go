// cmd/overdue-report/main.go
//
// overdue-report queries a running circulation service and prints the
// current overdue loans, one per line, oldest due date first. Delivery of
// reminders is someone else's job; this tool only produces the list.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"
)

type loan struct {
	ID       int64     `json:"id"`
	ItemID   string    `json:"item_id"`
	MemberID string    `json:"member_id"`
	DueDate  time.Time `json:"due_date"`
}

func main() {
	serviceURL := flag.String("service", getEnv("CIRCULATION_SERVICE_URL", "http://localhost:8082"), "circulation service base URL")
	asOf := flag.String("as-of", "", "reference date YYYY-MM-DD (default: today)")
	flag.Parse()

	endpoint := *serviceURL + "/overdue"
	if *asOf != "" {
		if _, err := time.Parse("2006-01-02", *asOf); err != nil {
			log.Fatalf("invalid -as-of date %q: %v", *asOf, err)
		}
		endpoint += "?as_of=" + url.QueryEscape(*asOf)
	}

	resp, err := http.Get(endpoint)
	if err != nil {
		log.Fatalf("query circulation service: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("circulation service returned status %d", resp.StatusCode)
	}

	var loans []loan
	if err := json.NewDecoder(resp.Body).Decode(&loans); err != nil {
		log.Fatalf("decode response: %v", err)
	}

	if len(loans) == 0 {
		fmt.Println("No overdue loans.")
		return
	}
	for _, l := range loans {
		fmt.Printf("loan %d\titem %s\tmember %s\tdue %s\n",
			l.ID, l.ItemID, l.MemberID, l.DueDate.Format("2006-01-02"))
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
