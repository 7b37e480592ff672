package main

import (
	"testing"

	"github.com/essenza/backend/internal/services"
)

// Every background job handed to runEvery must report how many records it
// touched; a worker drifting to another return type is a wiring mistake.
func TestMaintenanceJobsFitRunEvery(t *testing.T) {
	var orders *services.OrderService
	var auth *services.AuthService

	jobs := []func() (int, error){
		orders.CheckPendingPayments,
		orders.CleanupStalePending,
		orders.SendPickupReminders,
		func() (int, error) { return 0, auth.CleanupExpiredTokens() },
	}

	if len(jobs) != 4 {
		t.Fatalf("expected 4 maintenance jobs, got %d", len(jobs))
	}
}
