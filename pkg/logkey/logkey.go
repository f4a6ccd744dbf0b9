package logkey

// Keys used across slog calls so log lines stay greppable.
const (
	TraceID    = "TRACE ID"
	ERROR      = "ERROR"
	UserID     = "UserID"
	CustomerID = "CustomerID"
	ProductID  = "ProductID"
	OrderID    = "OrderID"
	Action     = "Action"
	Topic      = "Topic"
)
