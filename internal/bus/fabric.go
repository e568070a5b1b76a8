package bus

// Fabric is the set of buses owned by the application context and passed to
// every component that talks to the playback engine.
type Fabric struct {
	Commands *Topic[Command]
	Events   *Topic[Event]
	Requests *RequestBus[Request, Response]
}

// New creates a fabric with default buffer sizes.
func New() *Fabric {
	return &Fabric{
		Commands: NewTopic[Command](DefaultBufferSize),
		Events:   NewTopic[Event](DefaultBufferSize),
		Requests: NewRequestBus[Request, Response](DefaultReplayWindow),
	}
}

// Send publishes a command.
func (f *Fabric) Send(c Command) {
	f.Commands.Publish(c)
}

// Emit publishes an event.
func (f *Fabric) Emit(e Event) {
	f.Events.Publish(e)
}

// Close shuts down all buses.
func (f *Fabric) Close() {
	f.Commands.Close()
	f.Events.Close()
	f.Requests.Close()
}
