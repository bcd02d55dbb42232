package master

// DefaultCatalog is the onboarding catalog for the apparel ERP. Field
// synonyms cover the header spellings seen in customer spreadsheets.
// Defaults listed here are the only values ever substituted for blank
// cells at publish time.
func DefaultCatalog() []MasterType {
	return []MasterType{
		{
			Key:         "uom",
			Label:       "Unit of Measure",
			IsMandatory: true,
			LabelField:  "name",
			Fields: []FieldDefinition{
				{Field: "name", Label: "UOM Name", Required: true, Synonyms: []string{"uom", "unit", "unit name", "measure"}},
				{Field: "symbol", Label: "Symbol", Synonyms: []string{"abbreviation", "short"}},
				{Field: "status", Label: "Status", Default: "Active"},
			},
		},
		{
			Key:         "shade",
			Label:       "Shade",
			IsMandatory: true,
			LabelField:  "name",
			Fields: []FieldDefinition{
				{Field: "name", Label: "Shade Name", Required: true, Synonyms: []string{"shade", "colour", "color"}},
				{Field: "shadeCode", Label: "Shade Code", Synonyms: []string{"code"}},
				{Field: "status", Label: "Status", Default: "Active"},
			},
		},
		{
			Key:         "category",
			Label:       "Category",
			IsMandatory: true,
			LabelField:  "name",
			Fields: []FieldDefinition{
				{Field: "name", Label: "Category Name", Required: true, Synonyms: []string{"category"}},
				{Field: "parent", Label: "Parent Category", Reference: "category", Synonyms: []string{"parent"}},
				{Field: "status", Label: "Status", Default: "Active"},
			},
		},
		{
			Key:         "supplier",
			Label:       "Supplier",
			IsMandatory: true,
			LabelField:  "name",
			Fields: []FieldDefinition{
				{Field: "name", Label: "Supplier Name", Required: true, Synonyms: []string{"supplier", "vendor", "vendor name"}},
				{Field: "gstin", Label: "GSTIN", Synonyms: []string{"gst", "gst no", "tax id"}},
				{Field: "city", Label: "City", Synonyms: []string{"location"}},
				{Field: "status", Label: "Status", Default: "Active"},
			},
		},
		{
			Key:          "fabric",
			Label:        "Fabric",
			IsMandatory:  true,
			Dependencies: []string{"uom", "shade", "category"},
			LabelField:   "fabricCode",
			Fields: []FieldDefinition{
				{Field: "type", Label: "Type", Required: true, Synonyms: []string{"fabric type"}},
				{Field: "construction", Label: "Construction", Required: true, Synonyms: []string{"weave"}},
				{Field: "composition", Label: "Composition", Required: true, Synonyms: []string{"blend", "content"}},
				{Field: "gsm", Label: "Fabric Weight", Required: true, Synonyms: []string{"gsm", "weight", "grams per square metre"}},
				{Field: "widthM", Label: "Width (m)", Required: true, Synonyms: []string{"width", "width in meters"}},
				{Field: "defaultUOM", Label: "UOM", Required: true, Synonyms: []string{"unit", "default uom"}},
				{Field: "fabricCode", Label: "Fabric Code", Synonyms: []string{"item code"}},
				{Field: "shade", Label: "Shade", Reference: "shade", Synonyms: []string{"colour", "color"}},
				{Field: "category", Label: "Category", Reference: "category"},
				{Field: "supplier", Label: "Supplier", Reference: "supplier", Synonyms: []string{"vendor"}},
				{Field: "status", Label: "Status", Default: "Active"},
			},
		},
		{
			Key:          "trim",
			Label:        "Trim",
			IsMandatory:  true,
			Dependencies: []string{"uom", "category"},
			LabelField:   "trimCode",
			Fields: []FieldDefinition{
				{Field: "type", Label: "Type", Required: true, Synonyms: []string{"trim type"}},
				{Field: "trimCode", Label: "Trim Code", Synonyms: []string{"item code"}},
				{Field: "size", Label: "Size", Synonyms: []string{"dimension"}},
				{Field: "defaultUOM", Label: "UOM", Required: true, Synonyms: []string{"unit", "default uom"}},
				{Field: "category", Label: "Category", Reference: "category"},
				{Field: "supplier", Label: "Supplier", Reference: "supplier", Synonyms: []string{"vendor"}},
				{Field: "status", Label: "Status", Default: "Active"},
			},
		},
		{
			Key:          "opening_stock",
			Label:        "Opening Stock",
			Dependencies: []string{"fabric", "trim"},
			LabelField:   "item",
			Fields: []FieldDefinition{
				{Field: "item", Label: "Item Code", Required: true, Reference: "fabric", Synonyms: []string{"item", "code", "fabric code"}},
				{Field: "warehouse", Label: "Warehouse", Synonyms: []string{"store", "godown"}},
				{Field: "quantity", Label: "Quantity", Required: true, Synonyms: []string{"qty", "stock"}},
				{Field: "uom", Label: "UOM", Reference: "uom", Synonyms: []string{"unit"}},
			},
		},
		{
			Key:          "bom",
			Label:        "Bill of Materials",
			Dependencies: []string{"fabric", "trim"},
			LabelField:   "product",
			Fields: []FieldDefinition{
				{Field: "product", Label: "Product", Required: true, Synonyms: []string{"style", "product code"}},
				{Field: "component", Label: "Component", Required: true, Reference: "trim", Synonyms: []string{"trim", "trim code"}},
				{Field: "quantity", Label: "Quantity", Required: true, Synonyms: []string{"qty", "consumption"}},
				{Field: "uom", Label: "UOM", Reference: "uom", Synonyms: []string{"unit"}},
			},
		},
	}
}

// NewDefaultRegistry builds the registry from the default catalog. Used by
// the fx graph at startup; a cycle or bad reference aborts boot.
func NewDefaultRegistry() (*Registry, error) {
	return NewRegistry(DefaultCatalog())
}
