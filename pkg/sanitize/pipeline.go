package sanitize

import (
	"context"

	"github.com/atlasfield/soqlgate/pkg/models"
)

// DescribeProvider supplies field-level security metadata for an object.
type DescribeProvider interface {
	DescribeSObject(ctx context.Context, name string) (*models.SObjectDescribe, error)
}

// Logger defines logging interface.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Pipeline sanitizes record batches before they leave the server: fields the
// connected user cannot access are removed, and every remaining string value
// is passed through PII masking.
type Pipeline struct {
	describes DescribeProvider
	logger    Logger
}

// NewPipeline creates a sanitization pipeline.
func NewPipeline(describes DescribeProvider, logger Logger) *Pipeline {
	return &Pipeline{
		describes: describes,
		logger:    logger,
	}
}

// SanitizeRecords sanitizes a batch of records of one object type. The output
// has the same length and order as the input. Metadata is fetched once per
// batch; if the describe call fails the pipeline degrades to value-pattern
// masking without field removal, and a failure sanitizing one record passes
// that record through masked as far as it got. Neither case fails the batch.
func (p *Pipeline) SanitizeRecords(ctx context.Context, objectType string, records []models.Record) []models.Record {
	var describe *models.SObjectDescribe
	if p.describes != nil && objectType != "" {
		d, err := p.describes.DescribeSObject(ctx, objectType)
		if err != nil {
			p.logger.Warn("describe failed; sanitizing without field-level security",
				"object", objectType, "error", err.Error())
		} else {
			describe = d
		}
	}

	out := make([]models.Record, 0, len(records))
	for i, rec := range records {
		out = append(out, p.sanitizeRecord(rec, describe, i))
	}
	return out
}

// SanitizeValues masks PII value patterns in a string slice, preserving
// length and order. Used for picklist labels, which have no field metadata.
func (p *Pipeline) SanitizeValues(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = MaskValue(v)
	}
	return out
}

// sanitizeRecord returns a sanitized copy of one record. A panic while
// sanitizing degrades to returning the copy as masked so far rather than
// failing the batch.
func (p *Pipeline) sanitizeRecord(rec models.Record, describe *models.SObjectDescribe, index int) (out models.Record) {
	out = make(models.Record, len(rec))

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("record sanitization failed", "index", index, "panic", r)
		}
	}()

	for name, value := range rec {
		if name == "attributes" {
			out[name] = value
			continue
		}
		if describe != nil {
			if f := describe.Field(name); f != nil && !f.IsAccessible() {
				continue
			}
		}
		out[name] = sanitizeValue(name, value)
	}
	return out
}

// sanitizeValue masks a single field value, descending into nested maps and
// slices from relationship subqueries.
func sanitizeValue(field string, value interface{}) interface{} {
	switch v := value.(type) {
	case string:
		return MaskField(field, v)
	case map[string]interface{}:
		nested := make(map[string]interface{}, len(v))
		for k, inner := range v {
			nested[k] = sanitizeValue(k, inner)
		}
		return nested
	case []interface{}:
		items := make([]interface{}, len(v))
		for i, inner := range v {
			items[i] = sanitizeValue(field, inner)
		}
		return items
	default:
		return value
	}
}
