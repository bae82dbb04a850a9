package model

const (
	MessageOrderNotFound = "Order not found"
	MessageProductAdded  = "Product added successfully"
	MessageNoProduct     = "Product not found"
)

type BatchRequest struct {
	OrderIDs []int64
	SKU      string
	Quantity int
}

type OrderMutationResult struct {
	OrderID int64  `json:"order_id"`
	Status  Status `json:"status"`
	Message string `json:"message"`
}

func Succeeded(orderID int64) OrderMutationResult {
	return OrderMutationResult{OrderID: orderID, Status: StatusSuccess, Message: MessageProductAdded}
}

func Failed(orderID int64, msg string) OrderMutationResult {
	return OrderMutationResult{OrderID: orderID, Status: StatusError, Message: msg}
}
