package sse

import (
	"context"
	"sync"

	"ms-campus/internal/models"
)

// SalesEmitter fans completed sales out to organizers watching an event
type SalesEmitter struct {
	// key: eventID, value: client channels
	eventClients     map[string][]chan models.SaleEvent
	eventClientMutex sync.RWMutex
}

func NewSalesEmitter() *SalesEmitter {
	return &SalesEmitter{
		eventClients: make(map[string][]chan models.SaleEvent),
	}
}

// SubscribeToEvent adds a client to the event's sales stream. The channel is
// closed once ctx is done.
func (e *SalesEmitter) SubscribeToEvent(ctx context.Context, eventID string) chan models.SaleEvent {
	clientChan := make(chan models.SaleEvent, 10)

	e.eventClientMutex.Lock()
	e.eventClients[eventID] = append(e.eventClients[eventID], clientChan)
	e.eventClientMutex.Unlock()

	go func() {
		<-ctx.Done()
		e.removeEventClient(eventID, clientChan)
	}()

	return clientChan
}

// EmitSale broadcasts a sale to every client watching its event
func (e *SalesEmitter) EmitSale(sale models.SaleEvent) {
	e.eventClientMutex.RLock()
	defer e.eventClientMutex.RUnlock()

	for _, clientChan := range e.eventClients[sale.EventID] {
		// slow clients miss events rather than block checkout
		select {
		case clientChan <- sale:
		default:
		}
	}
}

func (e *SalesEmitter) removeEventClient(eventID string, clientChan chan models.SaleEvent) {
	e.eventClientMutex.Lock()
	defer e.eventClientMutex.Unlock()

	clients := e.eventClients[eventID]
	for i, ch := range clients {
		if ch == clientChan {
			e.eventClients[eventID] = append(clients[:i], clients[i+1:]...)
			close(clientChan)
			break
		}
	}
	if len(e.eventClients[eventID]) == 0 {
		delete(e.eventClients, eventID)
	}
}

// GetEventClientCount returns the number of clients currently subscribed to an event
func (e *SalesEmitter) GetEventClientCount(eventID string) int {
	e.eventClientMutex.RLock()
	defer e.eventClientMutex.RUnlock()
	return len(e.eventClients[eventID])
}
