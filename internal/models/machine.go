package models

// Machine is one row of the machines snapshot.
type Machine struct {
	ID          string  `json:"id"`
	Status      string  `json:"status"`      // running | idle | fault | ...
	Temperature float64 `json:"temperature"` // °C
	Vibration   float64 `json:"vibration"`
}

// Order is one row of the orders snapshot.
type Order struct {
	OrderID    string  `json:"order_id"`
	Stage      string  `json:"stage"`
	Progress   float64 `json:"progress"` // 0-100
	DueInHours float64 `json:"due_in_hours"`
}
