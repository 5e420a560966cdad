package newsletter

// Database is implemented by the storage engines backing SubscriberService.
type Database interface {
	Open() error
	Close() error
}
