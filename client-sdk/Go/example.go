package main

// Example script for the vecdbd Go SDK.
//
// Run this after vecdbd has started (default address: http://localhost:8080).
// It will:
//  1. Perform a health check.
//  2. Create a collection called 'demo'.
//  3. Insert a few vectors.
//  4. Run a nearest-neighbor search.
//  5. Clean up by deleting the collection.
//
// Usage:
//
//	$ go run example.go

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/rdmurugan/d-vecDB/client-sdk/Go/client"
)

func randomVector(dim int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = rand.Float32()
	}
	return v
}

func main() {
	c := client.NewVecDBClient("http://localhost:8080")

	ok, err := c.HealthCheck()
	if err != nil {
		panic(err)
	}
	fmt.Println("Health check:", ok)

	_, err = c.CreateCollection(client.CreateCollectionOptions{Name: "demo", Dimension: 128})
	if err != nil {
		panic(err)
	}
	fmt.Println("Created collection: demo")

	ids := make([]string, 10)
	for i := range ids {
		ids[i] = uuid.New().String()
		if _, err := c.InsertVector("demo", ids[i], randomVector(128), nil); err != nil {
			panic(err)
		}
	}
	fmt.Println("Inserted 10 vectors")

	queryVec := randomVector(128)
	results, err := c.Search("demo", queryVec, 3, 0, nil)
	if err != nil {
		panic(err)
	}
	fmt.Println("Search results:", results)

	if err := c.DeleteCollection("demo"); err != nil {
		panic(err)
	}
	fmt.Println("Deleted collection 'demo'")
}
