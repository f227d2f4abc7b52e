package payments

import (
	"context"
	"fmt"
)

// Manager routes checkout calls to a named provider adapter.
type Manager struct {
	gateways map[string]CheckoutGateway
}

func NewManager() *Manager {
	return &Manager{gateways: make(map[string]CheckoutGateway)}
}

func (m *Manager) RegisterGateway(name string, gateway CheckoutGateway) {
	m.gateways[name] = gateway
}

func (m *Manager) CreateSession(ctx context.Context, provider string, req CheckoutRequest) (CheckoutResponse, error) {
	gateway, ok := m.gateways[provider]
	if !ok {
		return CheckoutResponse{}, fmt.Errorf("gateway not registered: %s", provider)
	}
	return gateway.CreateSession(ctx, req)
}

func (m *Manager) VerifySession(ctx context.Context, provider string, req VerifyRequest) (VerifyResponse, error) {
	gateway, ok := m.gateways[provider]
	if !ok {
		return VerifyResponse{}, fmt.Errorf("gateway not registered: %s", provider)
	}
	return gateway.VerifySession(ctx, req)
}
