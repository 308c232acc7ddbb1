package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseSentinels(t *testing.T) {
	assert.Equal(t, "*", AllDatabases().Name)
	assert.Equal(t, "!", FirstMatch().Name)
	assert.Equal(t, FirstMatch(), DefaultDatabase())
}

func TestStrategySentinels(t *testing.T) {
	assert.Equal(t, ".", DefaultStrategy().Name)
	assert.Equal(t, Strategy{Name: "exact"}, ExactStrategy())
	assert.Equal(t, Strategy{Name: "prefix"}, PrefixStrategy())
}

func TestEmptyDefinition(t *testing.T) {
	def := EmptyDefinition()
	assert.Equal(t, AllDatabases(), def.Source)
	assert.Equal(t, []string{"No definition"}, def.Text)

	// every call returns a fresh value
	def.Text[0] = "changed"
	assert.Equal(t, []string{"No definition"}, EmptyDefinition().Text)
}
