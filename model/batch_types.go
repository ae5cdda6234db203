package model

// Batch は batches テーブルのレコードを表します。
type Batch struct {
	ID            int64  `db:"id" json:"id"`
	BatchNumber   string `db:"batch_number" json:"batchNumber"`
	BatchPrefix   string `db:"batch_prefix" json:"batchPrefix"`
	SequenceNo    int    `db:"sequence_no" json:"sequenceNo"`
	ProductType   string `db:"product_type" json:"productType"`
	Color         string `db:"color" json:"color"`
	Mrp           string `db:"mrp" json:"mrp"`
	MfdDate       string `db:"mfd_date" json:"mfdDate"`
	DateGenerated string `db:"date_generated" json:"dateGenerated"`
}

// Allocation は採番直後にオペレーターへ表示する内容です。
type Allocation struct {
	BatchNumber   string `json:"batchNumber"`
	ProductType   string `json:"productType"`
	Color         string `json:"color"`
	Mrp           string `json:"mrp"`
	MfdDate       string `json:"mfdDate"`
	DateGenerated string `json:"dateGenerated"`
}

// ProductType は品種リストの1件です。Price はリストファイルに書かれたままの参考価格です。
type ProductType struct {
	Name  string `json:"name"`
	Code  int    `json:"code"`
	Price string `json:"price"`
}

// Color は色リストの1件です。
type Color struct {
	Name string `json:"name"`
	Code int    `json:"code"`
}
