package rag

import (
	"fmt"
	"strings"

	"github.com/endee-cloud/ragdex/internal/domain"
)

// BuildContext assembles the generation context from ranked search results.
// One block per result in store order, labeled by 1-based rank, blocks joined
// by a blank line. Results with empty content still occupy their rank so the
// labels stay aligned with the returned sources. Pure and deterministic.
func BuildContext(results []domain.SearchResult) string {
	if len(results) == 0 {
		return ""
	}

	blocks := make([]string, len(results))
	for i, r := range results {
		blocks[i] = fmt.Sprintf("Source %d:\n%s", i+1, r.Content())
	}
	return strings.Join(blocks, "\n\n")
}
