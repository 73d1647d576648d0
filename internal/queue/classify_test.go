package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		cause string
		want  Route
	}{
		{"Record Deleted", Route{Queue: Deletion, Priority: PriorityDefault}},
		{"Item Status Changed", Route{Queue: Availability, Priority: 5}},
		{"Title Link Changed", Route{Queue: Availability, Priority: 7}},
		{"MARC Record Updated", Route{Queue: Generation, Priority: 0}},
		{"Age of Record in Solr", Route{Skip: true}},
		{"  Age of Record   in Solr ", Route{Skip: true}},
		{"", Route{Queue: Generation, Priority: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.cause, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.cause))
		})
	}
}

func TestClassify_FirstMatchWins(t *testing.T) {
	// "Delete" is checked before "Item" and "Link".
	assert.Equal(t, Deletion, Classify("Item Deleted").Queue)
	assert.Equal(t, Deletion, Classify("Link Deleted").Queue)
	// "Item" is checked before "Link".
	assert.Equal(t, PriorityItem, Classify("Item Link Changed").Priority)
}

func TestClassify_AgeOfRecordMustMatchExactly(t *testing.T) {
	r := Classify("Age of Record in Solr (forced)")
	assert.False(t, r.Skip)
	assert.Equal(t, Generation, r.Queue)
}

func TestParseName(t *testing.T) {
	n, err := ParseName("deletion")
	assert.NoError(t, err)
	assert.Equal(t, Deletion, n)
	assert.Equal(t, "deletion_queue", n.Table())

	_, err = ParseName("bogus")
	assert.Error(t, err)
}
