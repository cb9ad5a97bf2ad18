// ABOUTME: Flight time lookups over a static route table.
// ABOUTME: Routes are keyed by departure and arrival airport codes.

package services

import (
	"context"
	"fmt"
	"strings"
)

// Flight describes one scheduled flight on a route.
type Flight struct {
	Airline       string `json:"airline"`
	FlightNumber  string `json:"flightNumber"`
	DepartureTime string `json:"departureTime"`
	ArrivalTime   string `json:"arrivalTime"`
	Duration      string `json:"duration"`
}

// flightRoutes is the demo schedule, keyed "DEP-ARR".
var flightRoutes = map[string][]Flight{
	"LGA-LAX": {
		{Airline: "Delta", FlightNumber: "DL 2134", DepartureTime: "08:30", ArrivalTime: "11:45", Duration: "6h 15m"},
		{Airline: "American", FlightNumber: "AA 118", DepartureTime: "14:20", ArrivalTime: "17:40", Duration: "6h 20m"},
	},
	"LAX-LGA": {
		{Airline: "Delta", FlightNumber: "DL 2135", DepartureTime: "09:15", ArrivalTime: "17:30", Duration: "5h 15m"},
		{Airline: "JetBlue", FlightNumber: "B6 624", DepartureTime: "22:00", ArrivalTime: "06:10", Duration: "5h 10m"},
	},
	"LHR-JFK": {
		{Airline: "British Airways", FlightNumber: "BA 117", DepartureTime: "10:30", ArrivalTime: "13:25", Duration: "7h 55m"},
		{Airline: "Virgin Atlantic", FlightNumber: "VS 3", DepartureTime: "13:00", ArrivalTime: "16:05", Duration: "8h 5m"},
	},
	"JFK-LHR": {
		{Airline: "British Airways", FlightNumber: "BA 112", DepartureTime: "18:50", ArrivalTime: "06:50", Duration: "7h 0m"},
		{Airline: "Delta", FlightNumber: "DL 1", DepartureTime: "21:30", ArrivalTime: "09:25", Duration: "6h 55m"},
	},
	"CDG-DXB": {
		{Airline: "Emirates", FlightNumber: "EK 74", DepartureTime: "11:05", ArrivalTime: "20:00", Duration: "6h 55m"},
		{Airline: "Air France", FlightNumber: "AF 662", DepartureTime: "13:40", ArrivalTime: "22:45", Duration: "7h 5m"},
	},
	"DXB-CDG": {
		{Airline: "Emirates", FlightNumber: "EK 73", DepartureTime: "08:25", ArrivalTime: "13:30", Duration: "7h 5m"},
		{Airline: "Air France", FlightNumber: "AF 655", DepartureTime: "09:55", ArrivalTime: "15:10", Duration: "7h 15m"},
	},
}

// FlightService answers flight time queries from the static schedule.
type FlightService struct{}

// NewFlightService creates a flight service.
func NewFlightService() *FlightService {
	return &FlightService{}
}

// Routes returns the route keys the service knows about.
func (s *FlightService) Routes() []string {
	routes := make([]string, 0, len(flightRoutes))
	for key := range flightRoutes {
		routes = append(routes, key)
	}
	return routes
}

// Lookup returns flights between two airports. Codes are case-insensitive.
func (s *FlightService) Lookup(ctx context.Context, departure, arrival string) ([]Flight, error) {
	departure = strings.ToUpper(strings.TrimSpace(departure))
	arrival = strings.ToUpper(strings.TrimSpace(arrival))
	if departure == "" || arrival == "" {
		return nil, fmt.Errorf("departure and arrival airports are required")
	}

	key := departure + "-" + arrival
	flights, ok := flightRoutes[key]
	if !ok {
		return nil, fmt.Errorf("no flight data for route %s to %s", departure, arrival)
	}
	return flights, nil
}

// FormatFlights renders a flight list as text for model consumption.
func FormatFlights(departure, arrival string, flights []Flight) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Flights from %s to %s:\n", strings.ToUpper(departure), strings.ToUpper(arrival))
	for _, f := range flights {
		fmt.Fprintf(&b, "- %s %s: departs %s, arrives %s (%s)\n",
			f.Airline, f.FlightNumber, f.DepartureTime, f.ArrivalTime, f.Duration)
	}
	return b.String()
}
