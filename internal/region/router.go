// Package region picks the processor family for a merchant's
// geography. Pure function, no I/O.
package region

import "github.com/everpay/dashboard-haven-connect-sub000/internal/models"

// Processor tokens. These key the processor client registry the
// orchestrator is wired with.
const (
	ProcessorItsPaid  = "itspaid"
	ProcessorPrometeo = "prometeo"
)

// SelectProcessor maps a merchant region onto a processor token.
// Latin America routes to Prometeo; everything else, including an
// unclassified region, routes to the primary North America processor.
func SelectProcessor(r models.Region) string {
	if r == models.RegionLatinAmerica {
		return ProcessorPrometeo
	}
	return ProcessorItsPaid
}
