package domain

import "context"

//go:generate mockgen -source=lookup.go -destination=../mocks/mock_lookup.go -package=mocks

// Result is the location resolved for one queried address.
type Result struct {
	Query       string
	CountryCode string
	Region      string
}

// Lookup resolves many addresses in one round trip. Addresses the provider
// could not resolve are simply absent from the result.
type Lookup interface {
	LookupBatch(ctx context.Context, ips []string) ([]Result, error)
}
