package main

import (
	"compress/gzip"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// generateSampleExport writes a marketplace order export for local testing,
// both plain and gzipped. Rows cover the cases the parser must tolerate:
// an empty address line, a zip+4 code, a weight below the one ounce floor and
// a weight with trailing text.
func main() {
	dataDir := "exports"

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	rows := []string{
		"Order #,FirstName,LastName,Address1,Address2,City,State,PostalCode,Product Weight",
		"TCG-1001,Ann,Lee,12 Oak St,,Portland,OR,97201,2.5",
		"TCG-1002,Bob,Ray,9 Elm Ave,Apt 4,Austin,TX,78701-1234,0.4",
		"TCG-1003,Cy,Moss,400 Pine Rd,,Denver,CO,80202,3oz",
	}
	content := strings.Join(rows, "\n") + "\n"

	plainPath := filepath.Join(dataDir, "sample_orders.csv")
	if err := os.WriteFile(plainPath, []byte(content), 0644); err != nil {
		log.Fatalf("Failed to create %s: %v", plainPath, err)
	}
	fmt.Printf("Created %s with %d orders\n", plainPath, len(rows)-1)

	gzPath := filepath.Join(dataDir, "sample_orders.csv.gz")
	if err := createGzipFile(gzPath, content); err != nil {
		log.Fatalf("Failed to create %s: %v", gzPath, err)
	}
	fmt.Printf("Created %s with %d orders\n", gzPath, len(rows)-1)

	fmt.Println("\nImport with: POST /api/orders/import {\"key\": \"sample_orders.csv.gz\"}")
}

func createGzipFile(filePath, content string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	if _, err := gzipWriter.Write([]byte(content)); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	return nil
}
