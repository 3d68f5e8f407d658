package events

// Event enumerates the topics published inside the trading core.
type Event string

const (
	EventPriceTick      Event = "price_tick"
	EventOrderExecuted  Event = "order.executed"
	EventOrderCancelled Event = "order.cancelled"
	EventTradingEnabled Event = "trading.enabled"
)
