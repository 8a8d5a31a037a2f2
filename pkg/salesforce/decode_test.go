package salesforce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlasfield/soqlgate/pkg/models"
)

func TestDecodeRecords(t *testing.T) {
	in := []models.Record{
		{
			"attributes": map[string]interface{}{"type": "Account", "url": "/a"},
			"Id":         "001xx",
			"Name":       "Acme",
		},
	}

	var items []models.RecentItem
	require.NoError(t, DecodeRecords(in, &items))
	require.Len(t, items, 1)
	assert.Equal(t, "001xx", items[0].ID)
	assert.Equal(t, "Acme", items[0].Name)
	assert.Equal(t, "Account", items[0].Attributes.Type)
}

func TestDecodeRecordsWeakTyping(t *testing.T) {
	// Salesforce JSON numbers arrive as float64
	in := map[string]interface{}{
		"Max":       float64(100000),
		"Remaining": float64(99999),
	}

	var limit models.OrgLimit
	require.NoError(t, DecodeRecords(in, &limit))
	assert.Equal(t, 100000, limit.Max)
	assert.Equal(t, 99999, limit.Remaining)
}
