package core

// Category is the alert class assigned to a qualifying token
type Category string

const (
	CategoryNormal     Category = "normal"
	CategoryHighVolume Category = "high_volume"
)

func (c Category) String() string { return string(c) }

// Decision is produced for every token that qualifies for an alert
type Decision struct {
	Record   TokenRecord
	Category Category
}

// DecisionSubscriber receives every decision produced by a scan, after delivery
type DecisionSubscriber interface {
	OnDecision(Decision)
}
