package models

// Record is a loosely-typed Salesforce record as returned by the REST API.
// The "attributes" entry carries the object type marker.
type Record map[string]interface{}

// ObjectType returns the sobject type from the record's attributes marker,
// or an empty string when absent.
func (r Record) ObjectType() string {
	attrs, ok := r["attributes"].(map[string]interface{})
	if !ok {
		return ""
	}
	t, _ := attrs["type"].(string)
	return t
}

// FieldDescribe is the per-field slice of a describe result.
type FieldDescribe struct {
	Name       string `json:"name" mapstructure:"name"`
	Label      string `json:"label" mapstructure:"label"`
	Type       string `json:"type" mapstructure:"type"`
	Length     int    `json:"length" mapstructure:"length"`
	Custom     bool   `json:"custom" mapstructure:"custom"`
	Unique     bool   `json:"unique" mapstructure:"unique"`
	Nillable   bool   `json:"nillable" mapstructure:"nillable"`
	Filterable bool   `json:"filterable" mapstructure:"filterable"`
	Sortable   bool   `json:"sortable" mapstructure:"sortable"`
	Createable bool   `json:"createable" mapstructure:"createable"`
	Updateable bool   `json:"updateable" mapstructure:"updateable"`
	// Accessible reflects field-level security for the connected user.
	// Absent in the payload means accessible.
	Accessible     *bool           `json:"accessible,omitempty" mapstructure:"accessible"`
	PicklistValues []PicklistValue `json:"picklistValues,omitempty" mapstructure:"picklistValues"`
	ReferenceTo    []string        `json:"referenceTo,omitempty" mapstructure:"referenceTo"`
}

// IsAccessible reports whether the field is readable under field-level security.
func (f *FieldDescribe) IsAccessible() bool {
	return f.Accessible == nil || *f.Accessible
}

// IsReference reports whether the field is a lookup or master-detail reference.
func (f *FieldDescribe) IsReference() bool {
	return f.Type == "reference" || len(f.ReferenceTo) > 0
}

// PicklistValue is one entry of a picklist field describe.
type PicklistValue struct {
	Label        string `json:"label" mapstructure:"label"`
	Value        string `json:"value" mapstructure:"value"`
	Active       bool   `json:"active" mapstructure:"active"`
	DefaultValue bool   `json:"defaultValue" mapstructure:"defaultValue"`
}

// SObjectDescribe is the describe result for a single sobject.
type SObjectDescribe struct {
	Name           string          `json:"name" mapstructure:"name"`
	Label          string          `json:"label" mapstructure:"label"`
	LabelPlural    string          `json:"labelPlural" mapstructure:"labelPlural"`
	KeyPrefix      string          `json:"keyPrefix" mapstructure:"keyPrefix"`
	Custom         bool            `json:"custom" mapstructure:"custom"`
	Queryable      bool            `json:"queryable" mapstructure:"queryable"`
	Searchable     bool            `json:"searchable" mapstructure:"searchable"`
	Createable     bool            `json:"createable" mapstructure:"createable"`
	Updateable     bool            `json:"updateable" mapstructure:"updateable"`
	Deletable      bool            `json:"deletable" mapstructure:"deletable"`
	Fields         []FieldDescribe `json:"fields" mapstructure:"fields"`
	ChildRelations []ChildRelation `json:"childRelationships,omitempty" mapstructure:"childRelationships"`
}

// Field returns the describe entry for the named field, or nil.
func (d *SObjectDescribe) Field(name string) *FieldDescribe {
	for i := range d.Fields {
		if d.Fields[i].Name == name {
			return &d.Fields[i]
		}
	}
	return nil
}

// ChildRelation links a parent object to a child relationship name.
type ChildRelation struct {
	ChildSObject     string `json:"childSObject" mapstructure:"childSObject"`
	Field            string `json:"field" mapstructure:"field"`
	RelationshipName string `json:"relationshipName" mapstructure:"relationshipName"`
}

// GlobalSObject is one entry of the global describe listing.
type GlobalSObject struct {
	Name       string `json:"name" mapstructure:"name"`
	Label      string `json:"label" mapstructure:"label"`
	KeyPrefix  string `json:"keyPrefix" mapstructure:"keyPrefix"`
	Custom     bool   `json:"custom" mapstructure:"custom"`
	Queryable  bool   `json:"queryable" mapstructure:"queryable"`
	Searchable bool   `json:"searchable" mapstructure:"searchable"`
}

// OrgLimit is a single org limit with its remaining allowance.
type OrgLimit struct {
	Max       int `json:"Max" mapstructure:"Max"`
	Remaining int `json:"Remaining" mapstructure:"Remaining"`
}

// RecentItem is one entry of the recently-viewed listing.
type RecentItem struct {
	Attributes RecordAttributes `json:"attributes" mapstructure:"attributes"`
	ID         string           `json:"Id" mapstructure:"Id"`
	Name       string           `json:"Name" mapstructure:"Name"`
}

// RecordAttributes is the type/url marker attached to REST records.
type RecordAttributes struct {
	Type string `json:"type" mapstructure:"type"`
	URL  string `json:"url" mapstructure:"url"`
}

// UserInfo describes the connected user and org.
type UserInfo struct {
	UserID          string `json:"user_id" mapstructure:"user_id"`
	OrganizationID  string `json:"organization_id" mapstructure:"organization_id"`
	Username        string `json:"preferred_username" mapstructure:"preferred_username"`
	Name            string `json:"name" mapstructure:"name"`
	Email           string `json:"email" mapstructure:"email"`
	Zoneinfo        string `json:"zoneinfo" mapstructure:"zoneinfo"`
	Locale          string `json:"locale" mapstructure:"locale"`
	UserType        string `json:"user_type" mapstructure:"user_type"`
	UTCOffsetMillis int    `json:"utcOffset" mapstructure:"utcOffset"`
}

// LayoutSection is one section of a page layout describe.
type LayoutSection struct {
	Heading    string   `json:"heading" mapstructure:"heading"`
	Columns    int      `json:"columns" mapstructure:"columns"`
	Rows       int      `json:"rows" mapstructure:"rows"`
	FieldNames []string `json:"fieldNames" mapstructure:"fieldNames"`
	UseHeading bool     `json:"useHeading" mapstructure:"useHeading"`
	Collapsed  bool     `json:"collapsed" mapstructure:"collapsed"`
}

// LayoutDescribe is a trimmed page layout describe result.
type LayoutDescribe struct {
	ID       string          `json:"id" mapstructure:"id"`
	Name     string          `json:"name" mapstructure:"name"`
	Sections []LayoutSection `json:"sections" mapstructure:"sections"`
}

// SearchResult is the envelope of a SOSL search response.
type SearchResult struct {
	SearchRecords []Record `json:"searchRecords" mapstructure:"searchRecords"`
}

// QueryResult is the envelope of a SOQL query response.
type QueryResult struct {
	TotalSize int      `json:"totalSize" mapstructure:"totalSize"`
	Done      bool     `json:"done" mapstructure:"done"`
	Records   []Record `json:"records" mapstructure:"records"`
}
