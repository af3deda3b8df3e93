package services

// Notifier receives a message after every successful write.
type Notifier interface {
	Publish(kind string, id uint, data interface{})
}

type nopNotifier struct{}

func (nopNotifier) Publish(string, uint, interface{}) {}
