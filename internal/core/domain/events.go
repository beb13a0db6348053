package domain

// GlobalHelloTopic is shared by HelloEvent and UpdateEvent. The bus routes
// on type, so the shared label never mixes their listeners up.
const GlobalHelloTopic = "io.github.eventbuzz.global.hello.topic"

// HelloEvent greets whoever is listening.
type HelloEvent struct {
	Message string
}

func (HelloEvent) Topic() string { return GlobalHelloTopic }

// UpdateEvent announces a change.
type UpdateEvent struct {
	Message string
}

func (UpdateEvent) Topic() string { return GlobalHelloTopic }
