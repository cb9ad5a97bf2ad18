// ABOUTME: Travel pack exposes the flight times lookup tool.
// ABOUTME: Backed by the static flight schedule.

package builtins

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopstream/shopmcp/internal/services"
	"github.com/shopstream/shopmcp/internal/tools"
)

// TravelPack creates the travel pack from the flight service.
func TravelPack(flights *services.FlightService) *Pack {
	h := &travelHandlers{flights: flights}
	return &Pack{
		ID: "builtin:travel",
		Tools: []*tools.Tool{
			{
				Definition: tools.Definition{
					Name:        "getFlightTimes",
					Description: "Get scheduled flight times between two airports by IATA code",
					InputSchema: json.RawMessage(`{
						"type": "object",
						"properties": {
							"departure": {"type": "string", "description": "Departure airport code, e.g. LGA"},
							"arrival": {"type": "string", "description": "Arrival airport code, e.g. LAX"}
						},
						"required": ["departure", "arrival"]
					}`),
				},
				Handler: h.FlightTimes,
			},
		},
	}
}

type travelHandlers struct {
	flights *services.FlightService
}

func (h *travelHandlers) FlightTimes(ctx context.Context, args json.RawMessage) (*tools.Result, error) {
	var in struct {
		Departure string `json:"departure"`
		Arrival   string `json:"arrival"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	flights, err := h.flights.Lookup(ctx, in.Departure, in.Arrival)
	if err != nil {
		return nil, err
	}
	return tools.TextResult(services.FormatFlights(in.Departure, in.Arrival, flights)), nil
}
