package model

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

// Auto-migration runs on a stock PostgreSQL, so column defaults must not call
// functions that only extensions provide. Ids are always assigned by the application.
func TestModels_MigrateWithoutExtensionDefaults(t *testing.T) {
	cache := &sync.Map{}

	for _, m := range All() {
		s, err := schema.Parse(m, cache, schema.NamingStrategy{})
		require.NoError(t, err)

		for _, field := range s.Fields {
			assert.Falsef(t, strings.Contains(field.DefaultValue, "("),
				"%s.%s has a function default %q", s.Table, field.DBName, field.DefaultValue)
		}

		for _, pk := range s.PrimaryFields {
			if pk.DBName == "id" {
				assert.Emptyf(t, pk.DefaultValue, "%s.id must be set by the application", s.Table)
			}
		}
	}
}
