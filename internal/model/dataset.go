package model

import "time"

const (
	DatasetSourceSnapshot = "snapshot"
	DatasetSourceWRDS     = "wrds"
)

// DatasetMeta describes the currently installed in-memory dataset.
type DatasetMeta struct {
	Rows     int
	Tickers  int
	From     time.Time
	To       time.Time
	Source   string // snapshot | wrds
	BuiltAt  time.Time
	Snapshot string // path of the snapshot file backing the dataset
}
