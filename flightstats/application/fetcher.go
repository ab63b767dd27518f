package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"flightstats-client/flightstats/domain"
)

const (
	DefaultNumHours = 6

	// {aeroporto}/dep/{ano}/{mes}/{dia}/{hora}
	pathTemplate = "%s/dep/%d/%d/%d/%d"
)

// QueryHours são as horas do dia consultadas; com numHours=6 cobrem o dia todo.
var QueryHours = []int{0, 6, 12, 18}

// Batch acumula os registros das chamadas de um RunSet, na ordem recebida.
type Batch struct {
	Flights   []domain.FlightRecord
	Airports  []domain.AirportRecord
	Airplanes []domain.AirplaneRecord
}

type Fetcher struct {
	NumHours int
	Logger   *slog.Logger
}

func (f Fetcher) numHours() int {
	if f.NumHours <= 0 {
		return DefaultNumHours
	}
	return f.NumHours
}

// Path monta o caminho da chamada para uma hora do dia do RunSet.
func Path(rs domain.RunSet, hour int) string {
	d := rs.Date
	return fmt.Sprintf(pathTemplate, rs.Airport, d.Year(), int(d.Month()), d.Day(), hour)
}

// Fetch faz uma chamada por hora em QueryHours. Qualquer falha interrompe as
// chamadas restantes e descarta o que já foi acumulado.
func (f Fetcher) Fetch(ctx context.Context, rs domain.RunSet) (Batch, error) {
	if rs.Client == nil {
		return Batch{}, fmt.Errorf("runset %s has no client", rs.ID())
	}

	params := url.Values{}
	params.Set("numHours", strconv.Itoa(f.numHours()))

	var b Batch
	for _, hour := range QueryHours {
		path := Path(rs, hour)
		if f.Logger != nil {
			f.Logger.Debug("fetching", "runset", rs.ID(), "path", path)
		}

		body, err := rs.Client.Call(ctx, path, params)
		if err != nil {
			return Batch{}, fmt.Errorf("hour %d: %w", hour, err)
		}

		var resp domain.StatusResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return Batch{}, fmt.Errorf("hour %d: decoding statuses: %w", hour, err)
		}

		b.Flights = append(b.Flights, resp.FlightStatuses...)
		if resp.Appendix != nil {
			b.Airports = append(b.Airports, resp.Appendix.Airports...)
			b.Airplanes = append(b.Airplanes, resp.Appendix.Equipments...)
		}
	}
	return b, nil
}
