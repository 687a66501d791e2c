// Package fleet filters and orders train listings.
package fleet

import (
	"sort"
	"strings"

	"github.com/zulandar/induction/internal/models"
)

// Sort keys accepted by Query.
const (
	SortRank    = "rank"
	SortMileage = "mileage"
	SortDate    = "date"
)

// Options controls a fleet listing.
type Options struct {
	Search string // case-insensitive substring of train number or name
	Sort   string // rank (default), mileage, date
}

// NormalizeSort maps an arbitrary sort parameter onto a supported key.
func NormalizeSort(key string) string {
	switch key {
	case SortMileage, SortDate:
		return key
	default:
		return SortRank
	}
}

// Query returns the trains matching opts.Search in opts.Sort order.
// The input slice is left untouched and ties keep their input order.
func Query(trains []models.Train, opts Options) []models.Train {
	out := Filter(trains, opts.Search)
	sortTrains(out, NormalizeSort(opts.Sort))
	return out
}

// Filter returns a new slice of trains whose number or name contains search,
// ignoring case. An empty or blank search keeps every train.
func Filter(trains []models.Train, search string) []models.Train {
	needle := strings.ToLower(strings.TrimSpace(search))
	out := make([]models.Train, 0, len(trains))
	for _, t := range trains {
		if needle == "" ||
			strings.Contains(strings.ToLower(t.TrainNumber), needle) ||
			strings.Contains(strings.ToLower(t.TrainName), needle) {
			out = append(out, t)
		}
	}
	return out
}

func sortTrains(trains []models.Train, key string) {
	switch key {
	case SortMileage:
		sort.SliceStable(trains, func(i, j int) bool {
			return trains[i].CurrentMileage > trains[j].CurrentMileage
		})
	case SortDate:
		// ISO dates order lexicographically; unset dates compare as "".
		sort.SliceStable(trains, func(i, j int) bool {
			return trains[i].ServiceDate() > trains[j].ServiceDate()
		})
	default:
		sort.SliceStable(trains, func(i, j int) bool {
			return trains[i].Rank < trains[j].Rank
		})
	}
}
