package catalog

// Default returns the catalog of the known pre-aggregated collections plus
// the raw transaction collection they are built from.
//
// The raw collection carries both known irregularities: "Sales Date" mixes
// typed dates with DD/MM/YYYY strings, and "Total" mixes doubles with
// comma-decimal strings. The pre-aggregates were materialized after
// normalization and are clean.
func Default() *Catalog {
	c, err := New(builtinDescriptors())
	if err != nil {
		// Builtin descriptors are compile-time constants; a failure here
		// is a programming error.
		panic(err)
	}
	return c
}

func builtinDescriptors() []CollectionDescriptor {
	return []CollectionDescriptor{
		{
			Name:        "transaction_sales",
			Description: "Raw point-of-sale transactions, one document per line item",
			Shape:       ShapeFlat,
			Fields: []FieldSpec{
				{Name: "Sales Date", Type: TypeDate, Irregularity: IrregularMixedDate, Canonical: "sales_date"},
				{Name: "Sales Time", Type: TypeString},
				{Name: "Location Name", Type: TypeString},
				{Name: "Product Name", Type: TypeString},
				{Name: "Product Category Name", Type: TypeString},
				{Name: "Payment Method", Type: TypeString},
				{Name: "Total", Type: TypeDecimal, Irregularity: IrregularCommaDecimal, Canonical: "total_amount"},
				{Name: "month", Type: TypeNumber},
				{Name: "year", Type: TypeNumber},
			},
			Dimensions: []string{"location", "month", "year", "product", "category", "payment"},
			Synonyms: Synonyms{
				Primary:   []string{"transaksi", "transaction", "detail", "raw"},
				Secondary: []string{"penjualan", "sales", "struk", "receipt"},
			},
			DocCount: 250_000,
		},
		{
			Name:        "sales_by_location",
			Description: "Sales totals per store location",
			Shape:       ShapeFlat,
			Fields: []FieldSpec{
				{Name: "location_name", Type: TypeString},
				{Name: "total_sales", Type: TypeNumber},
				{Name: "total_transactions", Type: TypeNumber},
				{Name: "average_transaction", Type: TypeNumber},
			},
			Dimensions: []string{"location"},
			Synonyms: Synonyms{
				Primary:   []string{"lokasi", "location", "toko", "store"},
				Secondary: []string{"cabang", "branch", "per lokasi", "by location"},
			},
			DocCount: 12,
		},
		{
			Name:        "sales_by_month",
			Description: "Sales totals per calendar month",
			Shape:       ShapeFlat,
			Fields: []FieldSpec{
				{Name: "month", Type: TypeNumber},
				{Name: "year", Type: TypeNumber},
				{Name: "total_sales", Type: TypeNumber},
				{Name: "total_transactions", Type: TypeNumber},
			},
			Dimensions: []string{"month", "year"},
			Synonyms: Synonyms{
				Primary:   []string{"bulan", "month", "bulanan", "monthly"},
				Secondary: []string{"trend", "tren", "tahun", "year", "per bulan", "by month", "revenue"},
			},
			DocCount: 24,
		},
		{
			Name:        "sales_by_location_month",
			Description: "Sales totals per location per month",
			Shape:       ShapeNested,
			Fields: []FieldSpec{
				{Name: "location_name", Type: TypeString},
				{Name: "month", Type: TypeNumber},
				{Name: "year", Type: TypeNumber},
				{Name: "total_sales", Type: TypeNumber},
				{Name: "product_categories", Type: TypeString, Nested: []FieldSpec{}},
			},
			Dimensions: []string{"location", "month", "year"},
			Synonyms: Synonyms{
				Primary:   []string{"per lokasi per bulan", "location month", "lokasi bulan", "by location by month"},
				Secondary: []string{"toko bulan", "store month", "lokasi per bulan", "location and month"},
			},
			DocCount: 288,
		},
		{
			Name:        "sales_by_product",
			Description: "Revenue and quantity per product",
			Shape:       ShapeFlat,
			Fields: []FieldSpec{
				{Name: "product_name", Type: TypeString},
				{Name: "product_category", Type: TypeString},
				{Name: "total_revenue", Type: TypeNumber},
				{Name: "total_quantity_sold", Type: TypeNumber},
			},
			Dimensions: []string{"product", "category"},
			Synonyms: Synonyms{
				Primary:   []string{"produk", "product", "barang", "item"},
				Secondary: []string{"kategori", "category", "per produk", "by product"},
			},
			DocCount: 1_500,
		},
		{
			Name:        "sales_by_payment_method",
			Description: "Sales totals per payment method",
			Shape:       ShapeFlat,
			Fields: []FieldSpec{
				{Name: "payment_method", Type: TypeString},
				{Name: "total_sales", Type: TypeNumber},
				{Name: "total_transactions", Type: TypeNumber},
			},
			Dimensions: []string{"payment"},
			Synonyms: Synonyms{
				Primary:   []string{"payment", "pembayaran", "bayar"},
				Secondary: []string{"cash", "qris", "card", "metode", "method"},
			},
			DocCount: 6,
		},
		{
			Name:        "product_performance_nested",
			Description: "Per-product revenue with a per-location breakdown sub-list",
			Shape:       ShapeNested,
			Fields: []FieldSpec{
				{Name: "product_name", Type: TypeString},
				{Name: "product_category", Type: TypeString},
				{Name: "total_revenue", Type: TypeNumber},
				{Name: "performance_breakdown", Type: TypeString, Nested: []FieldSpec{
					{Name: "location", Type: TypeString},
					{Name: "revenue", Type: TypeNumber},
					{Name: "quantity", Type: TypeNumber},
				}},
			},
			Dimensions: []string{"product", "location", "category"},
			Synonyms: Synonyms{
				Primary:   []string{"produk terbanyak", "top product", "produk terbesar", "best seller"},
				Secondary: []string{"performa", "performance", "terlaris", "breakdown"},
			},
			DocCount: 1_500,
		},
	}
}
