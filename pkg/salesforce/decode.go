package salesforce

import (
	"github.com/mitchellh/mapstructure"
)

// DecodeRecords decodes loosely-typed REST records into a typed destination
// using the mapstructure tags on the model types. Weak typing tolerates the
// numeric and null quirks of Salesforce JSON payloads.
func DecodeRecords(in interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(in)
}
