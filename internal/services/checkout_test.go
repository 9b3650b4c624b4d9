package services

import (
	"regexp"
	"testing"

	"rbxmart_echo/internal/models"
)

func TestGenerateGatewayOrderID(t *testing.T) {
	pattern := regexp.MustCompile(`^RBX-\d{14}-[0-9A-F]{8}$`)

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := GenerateGatewayOrderID()
		if !pattern.MatchString(id) {
			t.Fatalf("GenerateGatewayOrderID() = %q; want match for %s", id, pattern)
		}
		if seen[id] {
			t.Fatalf("GenerateGatewayOrderID() produced duplicate %q", id)
		}
		seen[id] = true
	}
}

func TestGenerateInvoiceID(t *testing.T) {
	pattern := regexp.MustCompile(`^INV-\d{8}-[0-9A-F]{8}$`)

	id := GenerateInvoiceID()
	if !pattern.MatchString(id) {
		t.Errorf("GenerateInvoiceID() = %q; want match for %s", id, pattern)
	}
}

func TestMarshalServicePayload(t *testing.T) {
	tests := []struct {
		name    string
		item    LineItem
		wantErr bool
	}{
		{
			name: "robux instant with account",
			item: LineItem{
				ServiceType: models.ServiceTypeRobuxInstant,
				Robux:       &RobuxOrderDetails{RobloxUsername: "builderman"},
			},
		},
		{
			name: "robux 5day with account",
			item: LineItem{
				ServiceType: models.ServiceTypeRobux5Day,
				Robux:       &RobuxOrderDetails{RobloxUsername: "builderman", RobloxPassword: "secret"},
			},
		},
		{
			name: "gamepass with reference",
			item: LineItem{
				ServiceType: models.ServiceTypeGamepass,
				Gamepass:    &GamepassOrderDetails{RobloxUsername: "builderman", GamepassID: "123456"},
			},
		},
		{
			name: "joki with brief",
			item: LineItem{
				ServiceType: models.ServiceTypeJoki,
				Joki: &JokiOrderDetails{
					RobloxUsername: "builderman",
					RobloxPassword: "secret",
					GameName:       "Blox Fruits",
					TaskBrief:      "level 100 to 500",
				},
			},
		},
		{
			name:    "robux without account details",
			item:    LineItem{ServiceType: models.ServiceTypeRobuxInstant},
			wantErr: true,
		},
		{
			name:    "gamepass without reference",
			item:    LineItem{ServiceType: models.ServiceTypeGamepass},
			wantErr: true,
		},
		{
			name:    "joki without brief",
			item:    LineItem{ServiceType: models.ServiceTypeJoki},
			wantErr: true,
		},
		{
			name:    "unknown service type",
			item:    LineItem{ServiceType: models.ServiceType("nitro")},
			wantErr: true,
		},
		{
			name: "payload must match service type",
			item: LineItem{
				ServiceType: models.ServiceTypeJoki,
				Robux:       &RobuxOrderDetails{RobloxUsername: "builderman"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := marshalServicePayload(tt.item)
			if (err != nil) != tt.wantErr {
				t.Fatalf("marshalServicePayload() error = %v; wantErr %v", err, tt.wantErr)
			}
			if err == nil && len(payload) == 0 {
				t.Error("marshalServicePayload() returned empty payload")
			}
		})
	}
}
