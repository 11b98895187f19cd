package handlers

// HandlerBundle groups the endpoint handlers wired in main.
type HandlerBundle struct {
	JWTSecret         []byte
	MaxRequestsPerMin int

	Booking    *BookingHandler
	Settlement *SettlementHandler
	Device     *DeviceHandler
	Events     *EventsHandler
}
