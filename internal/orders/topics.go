package orders

import "strconv"

const (
	TopicOrderPlaced        = "order.placed"
	TopicOrderStatusChanged = "order.status.changed"
	TopicOrderDeleted       = "order.deleted"
)

// LifecycleTopics is everything the audit consumer subscribes to.
var LifecycleTopics = []string{TopicOrderPlaced, TopicOrderStatusChanged, TopicOrderDeleted}

// Partition key = order_id so every event of one order keeps its order.
func PartitionKey(orderID int64) []byte { return []byte(strconv.FormatInt(orderID, 10)) }
