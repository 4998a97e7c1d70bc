// Package market holds the wire-level domain model for the Universalis
// listings feed.
package market

import "fmt"

// Listing 对应一条市场板挂单（价格/数量/HQ 标记）。
type Listing struct {
	PricePerUnit int64 `bson:"pricePerUnit" json:"pricePerUnit"`
	Quantity     int64 `bson:"quantity" json:"quantity"`
	HQ           bool  `bson:"hq" json:"hq"`
}

// Event 对应一帧 listings/add 事件，listings 保持线上顺序。
type Event struct {
	ItemID   int32     `bson:"item" json:"item"`
	WorldID  int32     `bson:"world" json:"world"`
	Listings []Listing `bson:"listings" json:"listings"`
}

// URL returns the Universalis item page for notification links.
func URL(itemID int32) string {
	return fmt.Sprintf("https://universalis.app/market/%d", itemID)
}
