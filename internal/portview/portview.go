// Package portview derives display state for a single switch: search
// filtering, fixed-size port blocks and the aggregate counters shown in the
// dashboard header. Everything here is pure computation over ports already
// loaded by the registry.
package portview

import (
	"strconv"
	"strings"

	"switchdeck/internal/models"
)

// BlockSize is the number of ports rendered per display block.
const BlockSize = 16

// Block is a contiguous run of filtered ports. First and Last are the port
// numbers spanned, used for the block label.
type Block struct {
	Ports []models.Port
	First int
	Last  int
}

// Stats are computed over the full, unfiltered port set.
type Stats struct {
	Total       int
	Connected   int
	Free        int
	Utilization int
}

// EmptyState distinguishes the three reasons a dashboard can show no port
// blocks; each gets its own user message.
type EmptyState int

const (
	// NotEmpty: at least one port passed the filter.
	NotEmpty EmptyState = iota
	// NoSearchResults: a non-empty search term matched nothing.
	NoSearchResults
	// NoPortsConfigured: the switch has no ports at all.
	NoPortsConfigured
	// NoMatches: ports exist and the search is empty, yet nothing passed.
	NoMatches
)

// Filter returns the ports matching term, preserving order. A port matches
// when its number (as decimal text) contains the term, or its device's
// name or MAC (case-insensitive) or IP contains it. An empty term matches
// everything.
func Filter(ports []models.Port, term string) []models.Port {
	if term == "" {
		return ports
	}
	lower := strings.ToLower(term)

	var out []models.Port
	for _, p := range ports {
		if strings.Contains(strconv.Itoa(p.PortNumber), term) {
			out = append(out, p)
			continue
		}
		d := p.Device()
		if d == nil {
			continue
		}
		if strings.Contains(strings.ToLower(d.Name), lower) ||
			strings.Contains(d.IP, term) ||
			strings.Contains(strings.ToLower(d.MAC), lower) {
			out = append(out, p)
		}
	}
	return out
}

// Blocks partitions filtered ports into contiguous blocks of BlockSize.
func Blocks(ports []models.Port) []Block {
	var blocks []Block
	for i := 0; i < len(ports); i += BlockSize {
		end := i + BlockSize
		if end > len(ports) {
			end = len(ports)
		}
		chunk := ports[i:end]
		blocks = append(blocks, Block{
			Ports: chunk,
			First: chunk[0].PortNumber,
			Last:  chunk[len(chunk)-1].PortNumber,
		})
	}
	return blocks
}

// Aggregate computes the header counters over the unfiltered port set.
// Utilization is a rounded percentage, 0 for a portless switch.
func Aggregate(ports []models.Port) Stats {
	s := Stats{Total: len(ports)}
	for _, p := range ports {
		if p.Device() != nil {
			s.Connected++
		}
	}
	s.Free = s.Total - s.Connected
	if s.Total > 0 {
		s.Utilization = int(float64(s.Connected)/float64(s.Total)*100 + 0.5)
	}
	return s
}

// ClassifyEmpty picks the empty-state message condition for a render.
func ClassifyEmpty(total, filtered int, term string) EmptyState {
	if filtered > 0 {
		return NotEmpty
	}
	if term != "" {
		return NoSearchResults
	}
	if total == 0 {
		return NoPortsConfigured
	}
	return NoMatches
}
