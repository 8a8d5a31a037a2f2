package soql

import (
	"github.com/atlasfield/soqlgate/pkg/models"
)

// Record-count heuristics for well-known standard objects. Anything else gets
// the default. These feed row estimates only; they are not live counts.
var objectRecordCounts = map[string]int{
	"Account":     50000,
	"Contact":     100000,
	"Lead":        75000,
	"Opportunity": 25000,
}

// defaultRecordCount is assumed for objects without a heuristic entry.
const defaultRecordCount = 10000

// Fields assumed indexed on every object in addition to Id and any
// reference or unique fields found in the describe.
var standardIndexedFields = []string{"Name", "Email", "CreatedDate", "LastModifiedDate", "OwnerId"}

// estimatedRecordCount returns the heuristic row count for an object.
func estimatedRecordCount(object string) int {
	if n, ok := objectRecordCounts[object]; ok {
		return n
	}
	return defaultRecordCount
}

// BuildObjectMetadata derives cost-estimation metadata from a describe
// result: the heuristic record count, the set of fields assumed indexed, and
// the custom field names for reference.
func BuildObjectMetadata(describe *models.SObjectDescribe) models.ObjectMetadata {
	meta := models.ObjectMetadata{
		Name:          describe.Name,
		RecordCount:   estimatedRecordCount(describe.Name),
		IndexedFields: []string{"Id"},
	}

	allowed := make(map[string]bool, len(standardIndexedFields))
	for _, f := range standardIndexedFields {
		allowed[f] = true
	}

	for i := range describe.Fields {
		f := &describe.Fields[i]
		if f.Name == "Id" {
			continue
		}
		if f.IsReference() || f.Unique || allowed[f.Name] {
			meta.IndexedFields = append(meta.IndexedFields, f.Name)
		}
		if f.Custom {
			meta.CustomFields = append(meta.CustomFields, f.Name)
		}
	}

	return meta
}

// DefaultObjectMetadata is the fallback when a describe call fails: the
// default record count with only Id assumed indexed. A bad object name
// degrades the estimate instead of failing the analysis.
func DefaultObjectMetadata(object string) models.ObjectMetadata {
	return models.ObjectMetadata{
		Name:          object,
		RecordCount:   estimatedRecordCount(object),
		IndexedFields: []string{"Id"},
	}
}
