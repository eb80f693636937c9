package entity

// SaleEvent is the payload of a streamed sale consumed from Kafka. Events
// for a product already in the dataset add to its quantity and revenue;
// unknown products become new rows.
type SaleEvent struct {
	Product   string  `json:"product"`
	Quantity  float64 `json:"quantity"`
	UnitCost  float64 `json:"cost"`
	UnitPrice float64 `json:"sale_price"`
	Revenue   float64 `json:"revenue"`
}
