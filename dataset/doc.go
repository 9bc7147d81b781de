// Package dataset provides the tabular data model for the platform.
//
// The dataset package defines the immutable Table type (rows by named
// columns with mixed column types) that user scripts operate on, and the
// loaders that build a Table from uploaded file bytes in any of the
// supported formats (CSV, JSON, JSONL, Excel, Parquet).
//
// Usage:
//
//	tbl, err := dataset.Load(raw, dataset.FormatCSV)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d rows x %d columns\n", tbl.NumRows(), tbl.NumCols())
package dataset
