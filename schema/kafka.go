package schema

// KafkaActivity is the message body published for every newly archived event.
type KafkaActivity struct {
	ActivityEvent
	Manager string `json:"manager"`
}
