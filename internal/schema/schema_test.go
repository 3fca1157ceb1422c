package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatGroupsByTable(t *testing.T) {
	columns := []Column{
		{Table: "users", Name: "id", DataType: "integer"},
		{Table: "videos", Name: "title", DataType: "text"},
		{Table: "users", Name: "email", DataType: "text"},
	}

	expected := "TABLE users\n" +
		"  id integer\n" +
		"  email text\n" +
		"TABLE videos\n" +
		"  title text\n"
	assert.Equal(t, expected, Format(columns))
}

func TestFormatStableOrdering(t *testing.T) {
	columns := []Column{
		{Table: "zebra", Name: "id", DataType: "integer"},
		{Table: "alpha", Name: "id", DataType: "integer"},
	}

	expected := "TABLE alpha\n  id integer\nTABLE zebra\n  id integer\n"
	assert.Equal(t, expected, Format(columns))
}

func TestFormatEmpty(t *testing.T) {
	assert.Equal(t, "", Format(nil))
}
