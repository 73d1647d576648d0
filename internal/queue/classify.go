package queue

import (
	"strings"

	"github.com/roach88/ilsfeed/internal/change"
)

// AgeOfRecordCause marks periodic re-index entries that are already
// accounted for by the indexer's own refresh.
const AgeOfRecordCause = "Age of Record in Solr"

// Routing priorities.
const (
	PriorityDefault = 0
	PriorityItem    = 5
	PriorityLink    = 7
)

// Route is the routing decision for one upstream entry.
type Route struct {
	Queue    Name `json:"queue,omitempty"`
	Priority int  `json:"priority"`
	Skip     bool `json:"skip,omitempty"`
}

// Classify decides where an upstream entry goes based on its cause text.
// Rules are checked in order and the first match wins:
//
//	== "Age of Record in Solr"  skip
//	contains "Delete"           deletion, default priority
//	contains "Item"             availability, priority 5
//	contains "Link"             availability, priority 7
//	otherwise                   generation, priority 0
func Classify(cause string) Route {
	c := change.NormalizeCause(cause)
	switch {
	case c == AgeOfRecordCause:
		return Route{Skip: true}
	case strings.Contains(c, "Delete"):
		return Route{Queue: Deletion, Priority: PriorityDefault}
	case strings.Contains(c, "Item"):
		return Route{Queue: Availability, Priority: PriorityItem}
	case strings.Contains(c, "Link"):
		return Route{Queue: Availability, Priority: PriorityLink}
	default:
		return Route{Queue: Generation, Priority: PriorityDefault}
	}
}
