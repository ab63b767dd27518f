package application

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"testing"

	"flightstats-client/flightstats/domain"

	"github.com/stretchr/testify/require"
)

// callerFunc adapta uma função a domain.Caller.
type callerFunc func(ctx context.Context, path string, params url.Values) ([]byte, error)

func (f callerFunc) Call(ctx context.Context, path string, params url.Values) ([]byte, error) {
	return f(ctx, path, params)
}

// recordingCaller guarda os caminhos chamados e responde com respond.
type recordingCaller struct {
	mu      sync.Mutex
	paths   []string
	params  []url.Values
	respond func(path string) ([]byte, error)
}

func (c *recordingCaller) Call(_ context.Context, path string, params url.Values) ([]byte, error) {
	c.mu.Lock()
	c.paths = append(c.paths, path)
	c.params = append(c.params, params)
	c.mu.Unlock()
	return c.respond(path)
}

func hourOf(path string) string {
	return path[strings.LastIndex(path, "/")+1:]
}

// statusBody monta uma resposta com um voo próprio da hora e o voo 999,
// repetido em todas as horas com status diferente.
func statusBody(airport, hour string) []byte {
	return []byte(fmt.Sprintf(`{
  "flightStatuses": [
    {"flightId": 1%s, "carrierFsCode": "AA", "flightNumber": "%s", "departureAirportFsCode": "%s", "arrivalAirportFsCode": "LHR", "status": "L", "departureDate": {"dateLocal": "x", "dateUtc": "y"}},
    {"flightId": 999, "carrierFsCode": "BA", "flightNumber": "1", "departureAirportFsCode": "%s", "arrivalAirportFsCode": "ZZZ", "status": "H%s", "departureDate": {"dateLocal": "x", "dateUtc": "y"}}
  ],
  "appendix": {
    "airports": [
      {"fs": "%s", "iata": "%s", "name": "%s Airport", "city": "%s City", "countryCode": "US", "countryName": "United States", "regionName": "North America", "latitude": 40.5, "longitude": -73.0},
      {"fs": "LHR", "iata": "LHR", "name": "Heathrow", "city": "London", "countryCode": "GB", "countryName": "United Kingdom", "regionName": "Europe", "latitude": 51.4775, "longitude": -0.461389}
    ],
    "equipments": [
      {"iata": "77W", "name": "Boeing 777-300ER", "jet": true, "widebody": true}
    ]
  }
}`, hour, hour, airport, airport, hour, airport, airport, airport, airport))
}

func mustFlight(t *testing.T, js string) domain.FlightRecord {
	t.Helper()
	var f domain.FlightRecord
	require.NoError(t, json.Unmarshal([]byte(js), &f))
	return f
}

func mustAirport(t *testing.T, js string) domain.AirportRecord {
	t.Helper()
	var a domain.AirportRecord
	require.NoError(t, json.Unmarshal([]byte(js), &a))
	return a
}

func mustAirplane(t *testing.T, js string) domain.AirplaneRecord {
	t.Helper()
	var a domain.AirplaneRecord
	require.NoError(t, json.Unmarshal([]byte(js), &a))
	return a
}
