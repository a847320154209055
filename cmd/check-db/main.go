// Package main is a diagnostic tool for testing database connectivity and
// inspecting live census data. It connects to the database, queries the wards
// and households tables, and prints a summary to stdout. The binary exits with
// a non-zero code on any failure so it can be embedded in health checks or
// CI/CD pipeline steps to gate deployments on a reachable, populated database.
package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
)

func main() {
	dbPassword := os.Getenv("DATABASE_PASSWORD")
	if dbPassword == "" {
		dbPassword = "census"
	}

	connStr := fmt.Sprintf("host=localhost port=5432 user=census password=%s dbname=ward_census sslmode=disable", dbPassword)
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	// Check wards
	fmt.Println("=== WARDS ===")
	rows, err := db.Query("SELECT id, name, ward_number, local_body FROM wards ORDER BY ward_number")
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, name, localBody string
		var wardNumber int
		if err := rows.Scan(&id, &name, &wardNumber, &localBody); err != nil {
			log.Printf("Warning: failed to scan ward row: %v", err)
			continue
		}
		fmt.Printf("Ward %d: %s / %s (ID: %s)\n", wardNumber, name, localBody, id)
	}

	// Check households per ward
	fmt.Println("\n=== HOUSEHOLDS ===")
	rows2, err := db.Query(`
		SELECT w.name, COUNT(h.id), COUNT(h.id) FILTER (WHERE h.visit_status = 'VISITED')
		FROM wards w
		LEFT JOIN households h ON h.ward_id = w.id
		GROUP BY w.name
		ORDER BY w.name`)
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}
	defer rows2.Close()

	count := 0
	for rows2.Next() {
		var wardName string
		var total, visited int
		if err := rows2.Scan(&wardName, &total, &visited); err != nil {
			log.Printf("Warning: failed to scan household row: %v", err)
			continue
		}
		fmt.Printf("Ward %s: %d households (%d visited)\n", wardName, total, visited)
		count += total
	}

	if count == 0 {
		fmt.Println("No households found!")
	}
}
