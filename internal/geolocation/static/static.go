// Package static answers geolocation queries from a fixed dataset.
package static

import (
	"context"
	"strings"

	"github.com/mandarons/wapar/internal/geolocation/domain"
)

type Lookup struct {
	records map[string]domain.Result
}

func New(records []domain.Result) *Lookup {
	index := make(map[string]domain.Result, len(records))
	for _, r := range records {
		query := strings.TrimSpace(r.Query)
		if query == "" {
			continue
		}
		r.Query = query
		index[query] = r
	}
	return &Lookup{records: index}
}

// LookupBatch returns the known entries in request order.
func (l *Lookup) LookupBatch(ctx context.Context, ips []string) ([]domain.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]domain.Result, 0, len(ips))
	for _, ip := range ips {
		if r, ok := l.records[strings.TrimSpace(ip)]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

var _ domain.Lookup = (*Lookup)(nil)
